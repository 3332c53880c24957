// Package report renders evaluation results as Excel workbooks.
package report

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"niyamr/internal/domain"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// columns defines the results header row.
var columns = []string{
	"#",
	"Rule",
	"Status",
	"Confidence",
	"Evidence",
	"Reasoning",
	"Degraded",
}

// Meta describes where a result came from.
type Meta struct {
	Source      string
	GeneratedAt time.Time
}

// Summary counts verdicts by outcome.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Degraded int
}

// Summarize counts the verdicts in result. Degraded verdicts are also counted as failed.
func Summarize(result domain.EvaluationResult) Summary {
	s := Summary{Total: len(result)}
	for i := range result {
		switch result[i].Status {
		case domain.VerdictPass:
			s.Passed++
		default:
			s.Failed++
		}
		if result[i].IsDegraded() {
			s.Degraded++
		}
	}
	return s
}

// FileName derives a download name from the document source.
func FileName(source string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(source, "\\", "/")), path.Ext(source))
	if base == "" || base == "." || base == "/" {
		base = "compliance"
	}
	return base + "-report.xlsx"
}

// Build renders result into an in-memory workbook.
func Build(result domain.EvaluationResult, meta Meta) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeResults(f, result); err != nil {
		return nil, err
	}
	if err := writeSummary(f, result, meta); err != nil {
		return nil, err
	}

	idx, err := f.GetSheetIndex(resultsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf, nil
}

// Write renders result as a workbook to w.
func Write(w io.Writer, result domain.EvaluationResult, meta Meta) error {
	buf, err := Build(result, meta)
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func writeResults(f *excelize.File, result domain.EvaluationResult) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	passStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#006100"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	if err != nil {
		return fmt.Errorf("creating pass style: %w", err)
	}
	failStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})
	if err != nil {
		return fmt.Errorf("creating fail style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("creating wrap style: %w", err)
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(resultsSheet, "A1", last, headerStyle)

	for i := range result {
		row := i + 2
		r := &result[i]
		values := []any{i + 1, string(r.Rule), string(r.Status), r.Confidence, r.Evidence, r.Reasoning, formatBool(r.IsDegraded())}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}

		statusCell, _ := excelize.CoordinatesToCellName(3, row)
		style := failStyle
		if r.Status == domain.VerdictPass {
			style = passStyle
		}
		_ = f.SetCellStyle(resultsSheet, statusCell, statusCell, style)

		ruleCell, _ := excelize.CoordinatesToCellName(2, row)
		reasonCell, _ := excelize.CoordinatesToCellName(6, row)
		_ = f.SetCellStyle(resultsSheet, ruleCell, ruleCell, wrapStyle)
		_ = f.SetCellStyle(resultsSheet, "E"+fmt.Sprint(row), reasonCell, wrapStyle)
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 5)
	_ = f.SetColWidth(resultsSheet, "B", "B", 48)
	_ = f.SetColWidth(resultsSheet, "C", "D", 12)
	_ = f.SetColWidth(resultsSheet, "E", "F", 60)
	_ = f.SetColWidth(resultsSheet, "G", "G", 10)

	return f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, result domain.EvaluationResult, meta Meta) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	s := Summarize(result)
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	rows := [][2]any{
		{"Source", meta.Source},
		{"Generated At", generated.Format(time.RFC3339)},
		{"Rules", s.Total},
		{"Passed", s.Passed},
		{"Failed", s.Failed},
		{"Degraded", s.Degraded},
	}
	for i, kv := range rows {
		row := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)
	return nil
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Package ruleset loads rule lists from files for batch and CLI use.
package ruleset

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"niyamr/internal/domain"
)

// File is the document form of a rule file:
//
//	name: vendor-contracts
//	rules:
//	  - The document must state its purpose.
//	  - The document must name a responsible party.
//
// A bare YAML or JSON list of strings is accepted as well.
type File struct {
	Name  string   `yaml:"name"`
	Rules []string `yaml:"rules"`
}

// Load reads rules from path. The format is chosen by extension:
// .yaml, .yml and .json are parsed as YAML, .xlsx reads the first column of
// the first sheet, and anything else is read as one rule per line.
func Load(path string) ([]domain.Rule, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return Parse(data)
	default:
		return parseLines(data)
	}
}

// Parse decodes a YAML (or JSON) rule document.
func Parse(data []byte) ([]domain.Rule, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return domain.RulesFromStrings(list), nil
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}
	if f.Rules == nil {
		return nil, fmt.Errorf("rule file has no rules list: %w", domain.ErrInvalidRules)
	}
	return domain.RulesFromStrings(f.Rules), nil
}

// maxLineBytes bounds a single rule in the line format.
const maxLineBytes = 1 << 20

func parseLines(data []byte) ([]domain.Rule, error) {
	var rules []domain.Rule
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, domain.Rule(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading rule lines: %w", err)
	}
	return rules, nil
}

func loadXLSX(path string) ([]domain.Rule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading rule sheet: %w", err)
	}

	var rules []domain.Rule
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		// Skip a header row.
		if i == 0 && strings.EqualFold(cell, "rule") {
			continue
		}
		rules = append(rules, domain.Rule(cell))
	}
	return rules, nil
}

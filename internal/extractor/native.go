package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"niyamr/internal/domain"
)

const (
	engineNative = "native"
	// headerWindow is how far into the buffer a PDF header may appear.
	headerWindow = 1024
)

var (
	errEmptyDocument = errors.New("document is empty")
	errNotPDF        = errors.New("missing %PDF- header")
)

// NativeExtractor extracts text in-process with a pure-Go PDF reader.
// It implements port.TextExtractor.
type NativeExtractor struct{}

// NewNativeExtractor creates a NativeExtractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

// Extract returns the plain text of every page, pages separated by newlines.
// The reader panics on some malformed inputs; those are reported as
// extraction errors like any other unreadable document.
func (e *NativeExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if err := checkHeader(data); err != nil {
		return "", domain.NewExtractionError(engineNative, err)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.NewExtractionError(engineNative, fmt.Errorf("malformed document: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewExtractionError(engineNative, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.NewExtractionError(engineNative, fmt.Errorf("page %d: %w", i, err))
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// checkHeader rejects buffers that cannot be a PDF before any parsing.
func checkHeader(data []byte) error {
	if len(data) == 0 {
		return errEmptyDocument
	}
	head := data
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return errNotPDF
	}
	return nil
}

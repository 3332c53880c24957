package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"niyamr/internal/domain"
)

const enginePdftotext = "pdftotext"

// PdftotextExtractor shells out to poppler's pdftotext.
// It implements port.TextExtractor.
type PdftotextExtractor struct {
	binary string
	logger *zap.Logger
}

// NewPdftotextExtractor creates an extractor that runs binary (usually "pdftotext").
func NewPdftotextExtractor(binary string, logger *zap.Logger) *PdftotextExtractor {
	if binary == "" {
		binary = "pdftotext"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PdftotextExtractor{binary: binary, logger: logger}
}

func (e *PdftotextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := checkHeader(data); err != nil {
		return "", domain.NewExtractionError(enginePdftotext, err)
	}

	tmp, err := os.CreateTemp("", "niyamr-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			e.logger.Warn("failed to remove temp file", zap.String("path", tmp.Name()), zap.Error(err))
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	// pdftotext -enc UTF-8 -eol unix <path> -
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", domain.NewExtractionError(enginePdftotext,
				fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
		}
		return "", fmt.Errorf("running %s: %w", e.binary, err)
	}

	// Form feeds separate pages.
	text := strings.ReplaceAll(stdout.String(), "\f", "\n")
	return strings.TrimSpace(text), nil
}

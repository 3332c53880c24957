package extractor

import (
	"fmt"

	"go.uber.org/zap"

	"niyamr/internal/config"
	"niyamr/internal/domain"
	"niyamr/internal/port"
)

// New returns the TextExtractor selected by cfg.Engine.
func New(cfg *config.ExtractorConfig, logger *zap.Logger) (port.TextExtractor, error) {
	switch domain.ExtractorEngine(cfg.Engine) {
	case domain.ExtractorNative, "":
		return NewNativeExtractor(), nil
	case domain.ExtractorPdftotext:
		return NewPdftotextExtractor(cfg.PdftotextPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown extractor engine: %s", cfg.Engine)
	}
}

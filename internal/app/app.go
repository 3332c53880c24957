// Package app wires configuration into the evaluation pipeline shared by
// the HTTP server and the command-line checker.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"niyamr/internal/config"
	"niyamr/internal/extractor"
	"niyamr/internal/llm"
	"niyamr/internal/llm/providers"
	"niyamr/internal/port"
	"niyamr/internal/prompt"
	"niyamr/internal/service"
	s3storage "niyamr/internal/storage/s3"
)

// Components are the long-lived services built from configuration.
type Components struct {
	Evaluator service.EvaluationService
	Source    service.DocumentSource
	Providers []string
}

// Build constructs the extractor, completion chain, evaluation service and
// (when enabled) the object-storage document source.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Components, error) {
	providers.RegisterBuiltins()

	textExtractor, err := extractor.New(&cfg.Extractor, log.Named("extractor"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize extractor: %w", err)
	}

	completer, names, err := llm.NewChain(&cfg.LLM, log.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion providers: %w", err)
	}

	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	evaluator := service.NewEvaluationService(
		textExtractor,
		completer,
		prompt.NewBuilder(cfg.Evaluator.MaxDocumentChars),
		service.EvaluationConfig{Concurrency: cfg.Evaluator.Concurrency},
		log.Named("evaluator"),
	)

	return &Components{
		Evaluator: evaluator,
		Source:    service.NewDocumentSource(storage, cfg.S3.Bucket, cfg.S3.MaxFileSizeMB<<20),
		Providers: names,
	}, nil
}

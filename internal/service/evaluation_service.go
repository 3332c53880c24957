package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"niyamr/internal/domain"
	"niyamr/internal/logger"
	"niyamr/internal/port"
	"niyamr/internal/prompt"
	"niyamr/internal/verdict"
)

// EvaluationConfig holds settings for the rule evaluation service.
type EvaluationConfig struct {
	Concurrency int
}

// EvaluationService defines the rule evaluation contract.
type EvaluationService interface {
	// Evaluate extracts text from document and judges every rule against it.
	// Only extraction failures and cancellation are returned as errors.
	Evaluate(ctx context.Context, document []byte, rules []domain.Rule) (domain.EvaluationResult, error)
	// EvaluateText judges every rule against already extracted text.
	EvaluateText(ctx context.Context, text string, rules []domain.Rule) (domain.EvaluationResult, error)
}

type evaluationService struct {
	extractor port.TextExtractor
	completer port.Completer
	prompts   *prompt.Builder
	cfg       EvaluationConfig
	logger    *zap.Logger
}

// NewEvaluationService creates a new EvaluationService implementation.
func NewEvaluationService(
	extractor port.TextExtractor,
	completer port.Completer,
	prompts *prompt.Builder,
	cfg EvaluationConfig,
	log *zap.Logger,
) EvaluationService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if prompts == nil {
		prompts = prompt.NewBuilder(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &evaluationService{
		extractor: extractor,
		completer: completer,
		prompts:   prompts,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, document []byte, rules []domain.Rule) (domain.EvaluationResult, error) {
	log := logger.FromContext(ctx, s.logger)

	start := time.Now()
	text, err := s.extractor.Extract(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("extracting document text: %w", err)
	}
	log.Info("document text extracted",
		zap.Int("document_bytes", len(document)),
		zap.Int("text_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	if strings.TrimSpace(text) == "" {
		log.Warn("document has no extractable text; rules will be judged against empty text")
	}

	return s.EvaluateText(ctx, text, rules)
}

func (s *evaluationService) EvaluateText(ctx context.Context, text string, rules []domain.Rule) (domain.EvaluationResult, error) {
	results := make(domain.EvaluationResult, len(rules))
	if len(rules) == 0 {
		return results, nil
	}

	log := logger.FromContext(ctx, s.logger)
	start := time.Now()

	// Each task writes only its own index, so results needs no locking.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, rule := range rules {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.evaluateRule(gctx, log, i, rule, text)
			return nil
		})
	}
	_ = g.Wait()

	// A cancelled request yields no partial result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	degraded := 0
	for i := range results {
		if results[i].IsDegraded() {
			degraded++
		}
	}
	log.Info("rules evaluated",
		zap.Int("rules", len(rules)),
		zap.Int("degraded", degraded),
		zap.Int("concurrency", s.cfg.Concurrency),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// evaluateRule never fails: completion and parse problems become a degraded verdict.
func (s *evaluationService) evaluateRule(ctx context.Context, log *zap.Logger, index int, rule domain.Rule, text string) domain.RuleResult {
	payload := s.prompts.Build(rule, text)

	out, err := s.completer.Complete(ctx, payload.Prompt)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("completion failed", zap.Int("rule_index", index), zap.Error(err))
		}
		return domain.RuleResult{Rule: rule, Verdict: domain.CompletionFailedVerdict(err)}
	}

	v, perr := verdict.ParseDetailed(out.Text)
	if perr != nil {
		log.Warn("unusable completion, verdict degraded",
			zap.Int("rule_index", index),
			zap.String("provider", out.Provider),
			zap.String("stage", string(perr.Stage)),
			zap.Error(perr))
	}
	return domain.RuleResult{Rule: rule, Verdict: v}
}

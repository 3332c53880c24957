// Command checkdoc judges a PDF against compliance rules from the command line.
//
//	checkdoc contract.pdf --rules rules.yaml
//	checkdoc s3://contracts/2024/msa.pdf --rule "The document must state its purpose." --xlsx report.xlsx
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"niyamr/internal/app"
	"niyamr/internal/config"
	"niyamr/internal/domain"
	"niyamr/internal/logger"
	"niyamr/internal/report"
	"niyamr/internal/ruleset"
	"niyamr/internal/service"
)

// errViolations is returned when --fail-on-violation is set and a rule failed.
var errViolations = errors.New("one or more rules failed")

type options struct {
	ruleFiles       []string
	rules           []string
	xlsxPath        string
	concurrency     int
	failOnViolation bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, errViolations) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "checkdoc <file.pdf|s3://bucket/key>",
		Short:        "Check a PDF document against natural-language rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.ruleFiles, "rules", "f", nil, "rule file (.yaml, .yml, .json, .xlsx or one rule per line); repeatable")
	f.StringArrayVarP(&opts.rules, "rule", "r", nil, "a single rule; repeatable")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "write an Excel report to this path instead of printing JSON")
	f.IntVar(&opts.concurrency, "concurrency", 0, "override evaluator.concurrency")
	f.BoolVar(&opts.failOnViolation, "fail-on-violation", false, "exit with status 2 when any rule fails")
	return cmd
}

func run(ctx context.Context, out io.Writer, source string, opts *options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := collectRules(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.concurrency > 0 {
		cfg.Evaluator.Concurrency = opts.concurrency
	}
	if strings.HasPrefix(source, "s3://") {
		cfg.S3.Enabled = true
	}

	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	components, err := app.Build(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	document, err := readSource(ctx, components.Source, source)
	if err != nil {
		return err
	}

	if cfg.Evaluator.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Evaluator.RequestTimeout)
		defer cancel()
	}

	result, err := components.Evaluator.Evaluate(ctx, document, rules)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", source, err)
	}

	if opts.xlsxPath != "" {
		if err := writeReport(opts.xlsxPath, source, result); err != nil {
			return err
		}
		s := report.Summarize(result)
		zlog.Info("report written",
			zap.String("path", opts.xlsxPath),
			zap.Int("rules", s.Total),
			zap.Int("passed", s.Passed),
			zap.Int("failed", s.Failed))
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}

	if opts.failOnViolation && report.Summarize(result).Failed > 0 {
		return errViolations
	}
	return nil
}

func collectRules(opts *options) ([]domain.Rule, error) {
	var rules []domain.Rule
	for _, path := range opts.ruleFiles {
		loaded, err := ruleset.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rules = append(rules, loaded...)
	}
	rules = append(rules, domain.RulesFromStrings(opts.rules)...)
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules given; use --rules or --rule: %w", domain.ErrInvalidRules)
	}
	return rules, nil
}

func readSource(ctx context.Context, source service.DocumentSource, location string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		return source.Fetch(ctx, bucket, key)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return data, nil
}

func writeReport(path, source string, result domain.EvaluationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.Write(f, result, report.Meta{Source: source}); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

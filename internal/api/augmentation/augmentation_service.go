package augmentation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// Generator produces text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	// RequestInterval is the minimum spacing between model calls. Zero disables pacing.
	RequestInterval time.Duration
	MaxAttempts     int
	RetryDelay      time.Duration
}

// Report summarises a pipeline run.
type Report struct {
	Resumed   int `json:"resumed"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Pipeline asks the model to describe each place and appends the answers to a
// JSON dataset, saving after every row so an interrupted run can resume.
type Pipeline struct {
	generator      Generator
	limiter        *rate.Limiter
	promptTemplate string
	expectedOutput string
	maxAttempts    int
	retryDelay     time.Duration
	logger         *slog.Logger
}

func NewPipeline(generator Generator, promptTemplate, expectedOutput string, opts Options, logger *slog.Logger) *Pipeline {
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &Pipeline{
		generator:      generator,
		limiter:        rate.NewLimiter(limit, 1),
		promptTemplate: promptTemplate,
		expectedOutput: expectedOutput,
		maxAttempts:    opts.MaxAttempts,
		retryDelay:     opts.RetryDelay,
		logger:         logger,
	}
}

// Run processes the rows of table not yet present in outputPath. Rows that
// still fail after MaxAttempts are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, table *PlacesTable, outputPath string) (*Report, error) {
	ctx, span := otel.Tracer("Augmentation").Start(ctx, "Run", trace.WithAttributes(
		attribute.Int("rows.count", len(table.Rows)),
		attribute.String("output.path", outputPath),
	))
	defer span.End()

	l := p.logger.With(slog.String("method", "Run"))

	done, err := LoadAugmented(outputPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load previous output")
		return nil, err
	}
	report := &Report{Resumed: len(done), Total: len(table.Rows)}
	if len(done) > 0 {
		l.InfoContext(ctx, "Resuming augmentation", slog.Int("existing", len(done)))
	}

	for i := len(done); i < len(table.Rows); i++ {
		poi, err := p.augmentRow(ctx, table.Columns, table.Rows[i])
		if err != nil {
			if ctx.Err() != nil {
				span.RecordError(ctx.Err())
				span.SetStatus(codes.Error, "Cancelled")
				return report, ctx.Err()
			}
			report.Failed++
			l.WarnContext(ctx, "Max attempts reached, moving to the next row",
				slog.Int("row", i),
				slog.Any("error", err))
			continue
		}

		done = append(done, poi)
		if err := SaveAugmented(outputPath, done); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to save progress")
			return report, err
		}
		report.Processed++
		l.InfoContext(ctx, "Row augmented", slog.Int("count", len(done)), slog.Int("total", len(table.Rows)))
	}

	span.SetAttributes(attribute.Int("processed", report.Processed), attribute.Int("failed", report.Failed))
	span.SetStatus(codes.Ok, "Augmentation completed")
	return report, nil
}

func (p *Pipeline) augmentRow(ctx context.Context, columns, row []string) (types.AugmentedPOI, error) {
	prompt := BuildPrompt(p.promptTemplate, columns, row, p.expectedOutput)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return types.AugmentedPOI{}, err
		}

		response, err := p.generator.GenerateContent(ctx, prompt)
		if err == nil {
			var poi types.AugmentedPOI
			if poi, err = ExtractJSON(response); err == nil {
				return poi, nil
			}
		}
		lastErr = err
		p.logger.WarnContext(ctx, "Augmentation attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.maxAttempts),
			slog.Any("error", err))

		if attempt < p.maxAttempts && p.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return types.AugmentedPOI{}, ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}
	}
	return types.AugmentedPOI{}, fmt.Errorf("row failed after %d attempts: %w", p.maxAttempts, lastErr)
}

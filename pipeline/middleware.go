package pipeline

import (
	"context"
	"time"

	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
)

// Middleware wraps a stage processor.
type Middleware func(stageName string, next Processor) Processor

// WithLogging logs each processor run with its duration and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(stageName string, next Processor) Processor {
		return ProcessorFunc(func(ctx context.Context, input any, artifacts *State) (any, error) {
			start := time.Now()
			output, err := next.Process(ctx, input, artifacts)
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldStage:    stageName,
				logger.FieldDuration: duration.String(),
			}
			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Error("stage processor failed", fields)
			} else {
				log.Debug("stage processor completed", fields)
			}
			return output, err
		})
	}
}

// WithTracing wraps each processor run in a span named "{prefix}.{stage}".
func WithTracing(prefix string) Middleware {
	return func(stageName string, next Processor) Processor {
		return ProcessorFunc(func(ctx context.Context, input any, artifacts *State) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+stageName)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrStageName, stageName)

			output, err := next.Process(ctx, input, artifacts)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return output, err
		})
	}
}

// WithMetrics records stage run counts, durations, and errors.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(stageName string, next Processor) Processor {
		return ProcessorFunc(func(ctx context.Context, input any, artifacts *State) (any, error) {
			metrics.RecordStageStart(ctx, stageName)
			start := time.Now()
			output, err := next.Process(ctx, input, artifacts)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "process", stageName)
			}
			metrics.RecordStageEnd(ctx, stageName, status, duration)
			return output, err
		})
	}
}

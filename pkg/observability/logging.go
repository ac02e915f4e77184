package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/flume/pkg/domain"
)

// LoggingHooks returns pipeline hooks that log every event to logger.
// Structural changes log at Debug, lifecycle events at Info (Warn on failure).
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGraphChange: func(ctx context.Context, e *domain.GraphEvent) {
			logger.DebugContext(ctx, string(e.Type),
				"pipeline", e.PipelineID,
				"name", e.Name,
				"cluster", e.Cluster,
			)
		},
		OnConnectionChange: func(ctx context.Context, e *domain.ConnectionEvent) {
			logger.DebugContext(ctx, string(e.Type),
				"pipeline", e.PipelineID,
				"from", e.Connection.From.String(),
				"to", e.Connection.To.String(),
			)
		},
		OnLifecycle: func(ctx context.Context, e *domain.LifecycleEvent) {
			attrs := []any{
				"pipeline", e.PipelineID,
				"processes", e.Processes,
				"edges", e.Edges,
				"duration", e.Duration,
			}
			if !e.Success {
				logger.WarnContext(ctx, string(e.Type), append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, string(e.Type), attrs...)
		},
	}
}

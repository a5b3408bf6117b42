package mirror

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"go.uber.org/zap"
)

type MirrorBuilderOption func(*mirrorImpl)

// WithLogger sets the logger used for device failures.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - MirrorBuilderOption: a function that sets the mirror's logger
func WithLogger(logger *zap.Logger) MirrorBuilderOption {
	return func(m *mirrorImpl) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics attaches the collectors updated on state changes, uploads, dispatches and failed downloads.
//
// Parameters:
//   - metrics: the metrics set
//
// Returns:
//   - MirrorBuilderOption: a function that sets the mirror's metrics
func WithMetrics(metrics *profiler.Metrics) MirrorBuilderOption {
	return func(m *mirrorImpl) {
		m.metrics = metrics
	}
}

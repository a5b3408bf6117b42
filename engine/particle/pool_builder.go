package particle

import "go.uber.org/zap"

type PoolBuilderOption func(*poolImpl)

// WithLogger sets the logger used for exhaustion and unknown-id warnings.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - PoolBuilderOption: a function that sets the pool's logger
func WithLogger(logger *zap.Logger) PoolBuilderOption {
	return func(p *poolImpl) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithChangeCallback registers a callback fired after every successful mutation.
// The callback runs synchronously on the goroutine that mutated the pool.
//
// Parameters:
//   - cb: the callback receiving the mutation event
//
// Returns:
//   - PoolBuilderOption: a function that sets the pool's change callback
func WithChangeCallback(cb func(PoolEvent)) PoolBuilderOption {
	return func(p *poolImpl) {
		p.onChange = cb
	}
}

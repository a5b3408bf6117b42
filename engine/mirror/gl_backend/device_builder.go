package gl_backend

import "go.uber.org/zap"

// DeviceBuilderOption configures a Device.
type DeviceBuilderOption func(*Device)

// WithLogger sets the device logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - DeviceBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) DeviceBuilderOption {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

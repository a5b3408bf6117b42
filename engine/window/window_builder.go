package window

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"go.uber.org/zap"
)

// WindowBuilderOption configures a window before it is created.
type WindowBuilderOption func(w *engineWindow)

// WithConfig applies a [window] config section: title, size, size limits and resizability.
// Present mode and MSAA belong to the renderer and are ignored here.
//
// Parameters:
//   - cfg: the window section of the configuration
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithConfig(cfg config.Window) WindowBuilderOption {
	return func(w *engineWindow) {
		WithTitle(cfg.Title)(w)
		WithSize(cfg.Width, cfg.Height)(w)
		WithSizeLimits(SizeLimits{
			MinWidth:  cfg.MinWidth,
			MinHeight: cfg.MinHeight,
			MaxWidth:  cfg.MaxWidth,
			MaxHeight: cfg.MaxHeight,
		})(w)
		WithResizable(cfg.Resizable)(w)
	}
}

// WithTitle sets the title bar text. An empty title keeps the current one.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		if title != "" {
			w.title = title
		}
	}
}

// WithSize sets the initial framebuffer size. Non-positive values keep the current size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithSizeLimits bounds interactive resizing. Negative fields are treated as zero.
//
// Parameters:
//   - limits: the minimum and maximum size; a zero maximum is unbounded
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(limits SizeLimits) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits = SizeLimits{
			MinWidth:  max(limits.MinWidth, 0),
			MinHeight: max(limits.MinHeight, 0),
			MaxWidth:  max(limits.MaxWidth, 0),
			MaxHeight: max(limits.MaxHeight, 0),
		}
	}
}

func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}

// WithLogger sets the logger for window lifecycle and resize events.
func WithLogger(logger *zap.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

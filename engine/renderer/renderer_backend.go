package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. Lowest latency, may tear.
	PresentModeUncapped
)

// ParsePresentMode maps a configuration name to a PresentMode.
// "fifo" and "vsync" select PresentModeVSync, "immediate" and "uncapped" select PresentModeUncapped.
//
// Parameters:
//   - name: the configured name
//
// Returns:
//   - PresentMode: the mode
//   - bool: false for unknown names
func ParsePresentMode(name string) (PresentMode, bool) {
	switch name {
	case "fifo", "vsync":
		return PresentModeVSync, true
	case "immediate", "uncapped":
		return PresentModeUncapped, true
	default:
		return PresentModeVSync, false
	}
}

// MSAASampleCount is the number of samples used for multisample anti-aliasing.
// WebGPU guarantees 1 and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is the top-level backend interface for the Renderer.
type RendererBackend interface {
	wgpuRendererBackend
}

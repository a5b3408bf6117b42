package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	def := config.Default().Window
	w := newEngineWindow()

	assert.Equal(t, def.Title, w.Title())
	assert.Equal(t, def.Width, w.Width())
	assert.Equal(t, def.Height, w.Height())
	assert.Equal(t, def.Resizable, w.resizable)
	assert.Equal(t, SizeLimits{def.MinWidth, def.MinHeight, def.MaxWidth, def.MaxHeight}, w.limits)
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestWithConfig(t *testing.T) {
	cfg := config.Window{
		Title:     "sandbox",
		Width:     800,
		Height:    600,
		Resizable: false,
		MinWidth:  320,
		MinHeight: 240,
		MaxWidth:  0,
		MaxHeight: 0,
	}
	w := newEngineWindow(WithConfig(cfg))

	assert.Equal(t, "sandbox", w.Title())
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.False(t, w.resizable)
	assert.Equal(t, SizeLimits{MinWidth: 320, MinHeight: 240}, w.limits)
}

func TestOptionsApplyInOrder(t *testing.T) {
	w := newEngineWindow(
		WithConfig(config.Default().Window),
		WithTitle(""),
		WithSize(0, 100),
		WithResizable(false),
		WithSizeLimits(SizeLimits{MinWidth: -5, MaxWidth: 1000}),
		WithSize(4000, 50),
	)

	assert.Equal(t, config.Default().Window.Title, w.Title(), "an empty title keeps the configured one")
	assert.Equal(t, 1000, w.Width(), "size is clamped to the max width")
	assert.Equal(t, 50, w.Height(), "no height limits remain")
	assert.False(t, w.resizable)
	assert.Equal(t, SizeLimits{MaxWidth: 1000}, w.limits)
}

func TestSizeLimitsClamp(t *testing.T) {
	tests := []struct {
		name          string
		limits        SizeLimits
		width, height int
		wantW, wantH  int
	}{
		{"inside", SizeLimits{100, 100, 1000, 1000}, 500, 400, 500, 400},
		{"below min", SizeLimits{100, 100, 1000, 1000}, 10, 20, 100, 100},
		{"above max", SizeLimits{100, 100, 1000, 1000}, 2000, 1500, 1000, 1000},
		{"unbounded max", SizeLimits{MinWidth: 100, MinHeight: 100}, 5000, 3000, 5000, 3000},
		{"zero limits", SizeLimits{}, 640, 480, 640, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.limits.Clamp(tt.width, tt.height)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestHandleKey(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := newEngineWindow(WithLogger(zap.New(core)))
	var keys []uint32
	w.SetKeyDownCallback(func(k uint32) { keys = append(keys, k) })

	w.handleKey(common.KeyEsc, keyPress, false)
	w.handleKey(common.KeyEsc, keyRelease, false)
	w.handleKey(common.KeyC, keyRepeat, false)
	w.handleKey(common.KeyC, keyRelease, true)
	assert.Equal(t, []uint32{common.KeyEsc, common.KeyC}, keys)
	assert.False(t, w.quit)

	w.handleKey(common.KeyEsc, keyPress, true)
	assert.True(t, w.quit)
	assert.Len(t, keys, 2, "shift+esc is not forwarded")
	assert.Equal(t, 1, logs.FilterMessage("window close requested").Len())
}

func TestHandleKeyWithoutCallback(t *testing.T) {
	w := newEngineWindow()
	assert.NotPanics(t, func() { w.handleKey(common.KeyC, keyPress, false) })
	assert.NotPanics(t, func() { w.handleScroll(1) })
	assert.NotPanics(t, func() { w.handleFramebufferSize(100, 100) })
}

func TestHandleScroll(t *testing.T) {
	w := newEngineWindow()
	var got float32
	w.SetScrollCallback(func(d float32) { got += d })

	w.handleScroll(1.5)
	w.handleScroll(-0.5)
	assert.InDelta(t, 1.0, got, 1e-6)
}

func TestHandleFramebufferSizeIgnoresMinimize(t *testing.T) {
	w := newEngineWindow(WithSize(800, 600))
	var calls [][2]int
	w.SetResizeCallback(func(width, height int) { calls = append(calls, [2]int{width, height}) })

	w.handleFramebufferSize(0, 0)
	w.handleFramebufferSize(1024, 0)
	assert.Empty(t, calls)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())

	w.handleFramebufferSize(800, 600)
	assert.Empty(t, calls, "an unchanged size is not reported")

	w.handleFramebufferSize(1024, 768)
	assert.Equal(t, [][2]int{{1024, 768}}, calls)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
}

package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMenuNames(t *testing.T) {
	assert.Equal(t, []string{NameClearColor, NameCircle, NameParticles}, DefaultMenu().Names())
}

func TestMenuOpen(t *testing.T) {
	m := NewMenu()
	m.Register("clear", func(Env) (Scene, error) { return NewClearColorScene(), nil })
	m.Register("broken", func(Env) (Scene, error) { return nil, errors.New("boom") })
	m.Register("clear", func(Env) (Scene, error) { return NewClearColorScene(), nil })
	assert.Equal(t, []string{"clear", "broken"}, m.Names())

	s, err := m.Open("clear", Env{})
	require.NoError(t, err)
	cc, ok := s.(ClearColorer)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{0.2, 0.3, 0.8, 1}, cc.ClearColor())

	_, err = m.Open("missing", Env{})
	assert.ErrorIs(t, err, ErrUnknownScene)

	_, err = m.Open("broken", Env{})
	assert.ErrorContains(t, err, "boom")
}

func TestHeadlessCircleSceneHasNoPipeline(t *testing.T) {
	s, err := DefaultMenu().Open(NameCircle, Env{})
	require.NoError(t, err)
	s.OnUpdate(0.01)
	s.OnUIRender(NewUIState(DefaultSpawnParams(), 0))
	s.Close()
}

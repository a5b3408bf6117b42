package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"create", Command{Type: CommandCreate}},
		{"  destroy 7 ", Command{Type: CommandDestroy, ID: 7}},
		{"resize 0", Command{Type: CommandResize, Capacity: 0}},
		{"resize 2000", Command{Type: CommandResize, Capacity: 2000}},
		{"print-ids", Command{Type: CommandPrintIDs}},
		{"toggle-spawn", Command{Type: CommandToggleSpawn}},
		{"open particles", Command{Type: CommandOpen, Scene: "particles"}},
		{"back", Command{Type: CommandBack}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ParseCommand(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"spawn",
		"create 1",
		"destroy",
		"destroy -1",
		"destroy abc",
		"resize -5",
		"open",
		"open a b",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}

func TestParseScript(t *testing.T) {
	cmds, err := ParseScript([]string{"open particles", "create", "create", "destroy 0"})
	require.NoError(t, err)
	require.Len(t, cmds, 4)
	assert.True(t, cmds[0].IsHarness())
	assert.False(t, cmds[3].IsHarness())

	_, err = ParseScript([]string{"create", "explode"})
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Contains(t, err.Error(), "line 2")
}

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasColorSupport(t *testing.T) {
	t.Run("NO_COLOR disables colors", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		assert.False(t, HasColorSupport())
	})

	t.Run("dumb terminal disables colors", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		assert.False(t, HasColorSupport())
	})
}

func TestNewOutputStyles(t *testing.T) {
	styles := NewOutputStyles()
	assert.NotNil(t, styles)
	assert.True(t, styles.Success.GetBold())
	assert.True(t, styles.Error.GetBold())
	assert.True(t, NewTableStyles().Header.GetBold())
}

func TestPatchStatus(t *testing.T) {
	CheckNoColor()

	assert.Contains(t, stripANSI(PatchStatus(true, true)), "applied")
	assert.Contains(t, stripANSI(PatchStatus(true, false)), "failed")
	assert.Contains(t, stripANSI(PatchStatus(false, false)), "not attempted")
}

func TestLineDelta(t *testing.T) {
	assert.Equal(t, "+12 -3", stripANSI(LineDelta(12, 3)))
	assert.Equal(t, "+0 -0", stripANSI(LineDelta(0, 0)))
}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"csi color", "\x1b[31mred\x1b[0m", "red"},
		{"osc hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
		{"osc with st", "\x1b]0;title\x1b\\text", "text"},
		{"lone escape", "\x1b", "\x1b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripANSI(tt.input))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4), "never truncates")
	assert.Equal(t, "\x1b[1mab\x1b[0m  ", padRight("\x1b[1mab\x1b[0m", 4))
}

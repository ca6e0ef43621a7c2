package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPinHints(t *testing.T) {
	out := PinHints("a\nb\n", "hint", 7)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 7)
	assert.Equal(t, []string{"", "", "a", "b", "", "", "hint"}, lines)

	assert.Equal(t, "a\nb\nhint", PinHints("a\nb", "hint", 2))
	assert.Equal(t, "hint", PinHints("", "hint", 1))
}

func TestRenderHelp(t *testing.T) {
	sections := []HelpSection{
		{Title: "Board", Binds: []HelpBind{{Key: "n", Desc: "New card"}, {Key: "ctrl+c", Desc: "Quit"}}},
	}
	assert.Equal(t, 9, keyColumnWidth(sections))

	out := RenderHelp(sections, 60, 20)
	assert.Contains(t, out, "New card")
	assert.Contains(t, out, "Press any key to close")
	assert.Len(t, strings.Split(out, "\n"), 20)
}

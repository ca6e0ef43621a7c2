package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"planner/internal/tui/theme"
)

// HelpBind is one key and what it does
type HelpBind struct {
	Key  string
	Desc string
}

// HelpSection groups binds under a heading
type HelpSection struct {
	Title string
	Binds []HelpBind
}

var (
	helpSectionStyle = theme.Title
	helpKeyStyle     = lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary)
	helpDescStyle    = lipgloss.NewStyle().Foreground(theme.Text)
	helpBoxStyle     = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(theme.BorderFocused).
				Padding(1, 2)
)

// keyColumnWidth is the widest key in sections plus a gap
func keyColumnWidth(sections []HelpSection) int {
	width := 0
	for _, section := range sections {
		for _, bind := range section.Binds {
			width = max(width, lipgloss.Width(bind.Key))
		}
	}
	return width + 3
}

// RenderHelp renders the sections in a box placed in the middle of a
// width x height area.
func RenderHelp(sections []HelpSection, width, height int) string {
	keyWidth := keyColumnWidth(sections)

	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(helpSectionStyle.Render(section.Title) + "\n")
		for _, bind := range section.Binds {
			b.WriteString("  " + helpKeyStyle.Width(keyWidth).Render(bind.Key) + helpDescStyle.Render(bind.Desc) + "\n")
		}
	}
	b.WriteString("\n" + theme.HelpHint.Render("Press any key to close"))

	box := helpBoxStyle.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

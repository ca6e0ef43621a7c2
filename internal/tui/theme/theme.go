// Package theme holds the palette and the styles shared across views.
// Colors stay within ANSI 0-15 so the terminal's own scheme applies,
// except Surface which needs a 256-color background.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Text       = lipgloss.Color("7")
	TextMuted  = lipgloss.Color("8")
	TextBright = lipgloss.Color("15")

	Primary       = lipgloss.Color("4") // blue
	Secondary     = lipgloss.Color("6") // cyan
	Accent        = lipgloss.Color("5") // magenta
	Success       = lipgloss.Color("2")
	Warning       = lipgloss.Color("3")
	Danger        = lipgloss.Color("1")
	Surface       = lipgloss.Color("236")
	Border        = TextMuted
	BorderFocused = Primary
)

func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// text
var (
	Title    = bold(Primary)
	Muted    = lipgloss.NewStyle().Foreground(TextMuted)
	Bold     = lipgloss.NewStyle().Bold(true)
	Selected = bold(Warning)

	Error = bold(Danger)
	Warn  = bold(Warning)
	Ok    = bold(Success)
)

// card content
var (
	Link     = lipgloss.NewStyle().Foreground(Secondary).Underline(true)
	Image    = lipgloss.NewStyle().Foreground(Accent)
	Done     = Muted.Strikethrough(true)
	Unsynced = bold(Danger)
	Undo     = bold(TextBright).Background(Accent).Padding(0, 1)
)

// chrome
var (
	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)
	ModalTitle = bold(Warning)

	StatusBar = Muted.
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)
	HelpHint = Muted

	TabActive   = bold(Primary).Underline(true)
	TabInactive = Muted
	TabBar      = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Border)
)

// ColumnColor returns the accent for a column's color hint, or Primary when
// the column has none.
func ColumnColor(hint string) lipgloss.Color {
	if hint == "" {
		return Primary
	}
	return lipgloss.Color(hint)
}

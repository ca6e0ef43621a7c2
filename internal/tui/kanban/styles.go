package kanban

import (
	"github.com/charmbracelet/lipgloss"

	"planner/internal/tui/theme"
)

const (
	columnWidth             = 40
	columnPaddingHorizontal = 2
	cardPaddingHorizontal   = 1
	cardBorderWidth         = 1
)

var (
	colorSuccess = theme.Success
	colorWarning = theme.Warning
	colorDanger  = theme.Danger
	colorMoving  = lipgloss.Color("54")
)

// columnBox is the frame around one column
func columnBox(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, columnPaddingHorizontal).
		Width(columnWidth)
}

// cardBox draws a card with a bar on its left edge only
func cardBox(bar lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(bar).
		Padding(0, cardPaddingHorizontal).
		MarginBottom(1)
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	titleStyle = theme.Title.Padding(0, 1)

	columnStyle         = columnBox(theme.Border)
	selectedColumnStyle = columnBox(theme.BorderFocused)

	columnTitleStyle         = theme.Bold.Align(lipgloss.Center)
	selectedColumnTitleStyle = columnTitleStyle.Underline(true).Background(theme.Surface)

	cardStyle             = cardBox(theme.Border)
	selectedCardStyle     = cardBox(theme.BorderFocused).Background(theme.Surface).Bold(true)
	moveSelectedCardStyle = cardBox(theme.Warning).Background(colorMoving).Bold(true)

	cardTitleStyle   = fg(theme.Primary).Bold(true)
	cardMetaStyle    = fg(theme.Secondary).Italic(true)
	cardPreviewStyle = fg(theme.TextMuted)

	helpStyle = theme.Muted.Padding(1, 2)

	listItemStyle         = fg(theme.Text).Padding(0, 2)
	selectedListItemStyle = fg(theme.Warning).Bold(true).Padding(0, 2)

	errorStyle   = theme.Error
	warningStyle = theme.Warn
	successStyle = theme.Ok

	scrollIndicatorStyle = fg(theme.Primary).Italic(true).Align(lipgloss.Center)
	filterIndicatorStyle = theme.Warn

	// card editor
	editorBoxStyle           = theme.ModalBox.Width(70)
	editorTitleStyle         = theme.ModalTitle.Align(lipgloss.Center)
	editorLabelStyle         = fg(theme.Primary).Bold(true).Width(8)
	editorItemStyle          = fg(theme.Text)
	editorItemHighlightStyle = theme.Selected.Background(theme.Surface)

	// delete confirmation
	confirmBoxStyle   = theme.ModalBox.BorderForeground(theme.Danger)
	confirmTitleStyle = theme.ModalTitle
	confirmYesStyle   = theme.Error
	confirmNoStyle    = theme.Ok

	// date picker
	datePickerBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(theme.Accent).
				Padding(1, 2).
				Width(50)
	datePickerTitleStyle     = theme.ModalTitle.Align(lipgloss.Center)
	datePickerMonthStyle     = fg(theme.Accent).Bold(true).Align(lipgloss.Center)
	datePickerDayHeaderStyle = theme.Muted.Bold(true)
	datePickerDayStyle       = fg(theme.Text)
	datePickerTodayStyle     = fg(theme.Primary).Bold(true)
	datePickerCursorStyle    = fg(lipgloss.Color("0")).Background(theme.Warning).Bold(true)
	datePickerExamplesStyle  = theme.Muted.Italic(true)
)

// badge is a bold label in c, used for mode and filter markers
func badge(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

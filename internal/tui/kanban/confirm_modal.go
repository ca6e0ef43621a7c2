package kanban

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmResult int

const (
	confirmPending confirmResult = iota
	confirmYes
	confirmNo
)

// ConfirmationModal asks a yes/no question about a destructive action.
// It holds no answer itself; the caller feeds it keys through Decide.
type ConfirmationModal struct {
	Question string
	Subject  string // usually the card title, may be empty
	Width    int
}

func NewConfirmationModal(question, subject string, width int) *ConfirmationModal {
	return &ConfirmationModal{Question: question, Subject: subject, Width: width}
}

// Decide maps a key to an answer; other keys leave the modal open
func (m *ConfirmationModal) Decide(msg tea.KeyMsg) confirmResult {
	switch msg.String() {
	case "y", "enter":
		return confirmYes
	case "n", "esc":
		return confirmNo
	}
	return confirmPending
}

func (m *ConfirmationModal) View() string {
	lines := []string{confirmTitleStyle.Render(m.Question)}
	if m.Subject != "" {
		lines = append(lines, "", m.Subject)
	}
	lines = append(lines, "",
		confirmYesStyle.Render("[y]")+" delete  "+confirmNoStyle.Render("[n/esc]")+" keep")
	return confirmBoxStyle.Width(m.Width).Render(strings.Join(lines, "\n"))
}

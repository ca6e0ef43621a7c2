package kanban

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/kanban/controller"
	"planner/internal/kanban/models"
	"planner/internal/tui/messages"
	"planner/internal/tui/shared"
)

// ArchiveModel lists archived cards. Archived cards cannot be dragged back;
// the last archive is reversed with the undo key while its window is open.
type ArchiveModel struct {
	ctx     context.Context
	ctrl    *controller.Controller
	cards   []models.Card
	cursor  int
	confirm *ConfirmationModal
	pending bool
	err     error
	message string
	width   int
	height  int
}

func NewArchiveModel(ctx context.Context, ctrl *controller.Controller) ArchiveModel {
	m := ArchiveModel{ctx: ctx, ctrl: ctrl}
	m.Refresh()
	return m
}

func (m *ArchiveModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Refresh re-reads the archived column, newest last
func (m *ArchiveModel) Refresh() {
	board := m.ctrl.Board()
	m.cards = nil
	if col := board.GetColumn(models.ColumnArchived); col != nil {
		m.cards = col.Items
	}
	if m.cursor >= len(m.cards) {
		m.cursor = max(0, len(m.cards)-1)
	}
}

// IsModal returns true while a delete confirmation is showing
func (m ArchiveModel) IsModal() bool {
	return m.confirm != nil
}

func (m ArchiveModel) Update(msg tea.Msg) (ArchiveModel, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.BoardEventMsg:
		m.Refresh()
		return m, nil

	case messages.StatusMsg:
		m.pending = false
		m.err = msg.Err
		m.message = ""
		if msg.Err == nil {
			m.message = msg.Text
		}
		m.Refresh()
		return m, nil

	case tea.KeyMsg:
		if m.pending {
			return m, nil
		}
		if m.confirm != nil {
			return m.updateConfirmDelete(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m ArchiveModel) updateNormal(msg tea.KeyMsg) (ArchiveModel, tea.Cmd) {
	m.err = nil
	m.message = ""

	switch msg.String() {
	case "esc", "b", "A":
		return m, messages.SwitchView(messages.ViewBoard)

	case "j", "down":
		if m.cursor < len(m.cards)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "D":
		if m.cursor < len(m.cards) {
			m.confirm = NewConfirmationModal("Delete this card permanently?", m.cards[m.cursor].Title, 50)
		}

	case "u":
		return m.run("", func(ctx context.Context) error {
			ok, err := m.ctrl.RestoreArchive(ctx)
			return restoreResult(ok, err, "archive")
		})
	}
	return m, nil
}

func (m ArchiveModel) updateConfirmDelete(msg tea.KeyMsg) (ArchiveModel, tea.Cmd) {
	answer := m.confirm.Decide(msg)
	if answer == confirmPending {
		return m, nil
	}
	m.confirm = nil
	if answer == confirmNo || m.cursor >= len(m.cards) {
		return m, nil
	}
	card := m.cards[m.cursor]
	return m.run("Deleted: "+card.Title+" (U on the board to undo)", func(ctx context.Context) error {
		return m.ctrl.DeleteCard(ctx, card.ID)
	})
}

func (m ArchiveModel) run(text string, call func(ctx context.Context) error) (ArchiveModel, tea.Cmd) {
	m.pending = true
	ctx := m.ctx
	return m, func() tea.Msg {
		return messages.StatusMsg{Text: text, Err: call(ctx)}
	}
}

func (m ArchiveModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Archive (%d)", len(m.cards))))
	s.WriteString("\n\n")

	if len(m.cards) == 0 {
		s.WriteString(listItemStyle.Render(cardPreviewStyle.Render("No archived cards")))
		s.WriteString("\n")
	}
	for i, card := range m.cards {
		line := card.Title
		if card.DueDate != nil {
			line += "  " + cardPreviewStyle.Render("due "+card.DueDate.Format("2006-01-02"))
		}
		if i == m.cursor {
			s.WriteString(selectedListItemStyle.Render("> " + line))
		} else {
			s.WriteString(listItemStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}

	var hints strings.Builder
	switch {
	case m.err != nil:
		hints.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	case m.message != "":
		hints.WriteString(successStyle.Render(m.message) + "\n")
	}
	if m.confirm != nil {
		hints.WriteString(m.confirm.View())
	} else {
		hints.WriteString(helpStyle.Render("j/k: navigate • u: undo last archive • D: delete • esc/b: back to board"))
	}

	return shared.PinHints(s.String(), hints.String(), max(1, m.height))
}

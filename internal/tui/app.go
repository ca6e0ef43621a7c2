package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"planner/internal/config"
	"planner/internal/kanban/controller"
	"planner/internal/kanban/events"
	"planner/internal/logs"
	kanbanview "planner/internal/tui/kanban"
	"planner/internal/tui/messages"
	"planner/internal/tui/shared"
)

// undoTickInterval is how often the undo countdown redraws
const undoTickInterval = time.Second

// AppModel is the root model that dispatches to child views
type AppModel struct {
	ctx         context.Context
	ctrl        *controller.Controller
	events      <-chan events.Event
	currentView ViewType
	boardView   kanbanview.BoardModel
	archiveView kanbanview.ArchiveModel
	ticking     bool
	syncErr     error
	showHelp    bool
	width       int
	height      int
	ready       bool
}

// NewAppModel creates the root application model. It subscribes to the
// controller's events; the subscription ends when the controller closes.
func NewAppModel(ctx context.Context, cfg *config.Config, ctrl *controller.Controller) AppModel {
	view := ViewBoard
	if cfg != nil && cfg.DefaultView == config.ViewArchive {
		view = ViewArchive
	}

	return AppModel{
		ctx:         ctx,
		ctrl:        ctrl,
		events:      ctrl.Subscribe(),
		currentView: view,
		boardView:   kanbanview.NewBoardModel(ctx, ctrl),
		archiveView: kanbanview.NewArchiveModel(ctx, ctrl),
	}
}

func (m AppModel) Init() tea.Cmd {
	return messages.WaitForEvent(m.events)
}

func undoTick() tea.Cmd {
	return tea.Tick(undoTickInterval, func(time.Time) tea.Msg {
		return UndoTickMsg{}
	})
}

// startTicking arms the countdown tick unless one is already running
func (m *AppModel) startTicking() tea.Cmd {
	if m.ticking || !m.boardView.HasPendingUndo() {
		return nil
	}
	m.ticking = true
	return undoTick()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		contentHeight := msg.Height - 3 // Reserve space for status bar
		m.boardView.SetSize(msg.Width, contentHeight)
		m.archiveView.SetSize(msg.Width, contentHeight)
		return m, nil

	case BoardEventMsg:
		logs.Logger.Debug("board event",
			zap.String("type", string(msg.Event.Type)),
			zap.String("card", msg.Event.CardID))
		switch msg.Event.Type {
		case events.SyncFailed:
			m.syncErr = msg.Event.Err
		case events.BoardReloaded:
			m.syncErr = nil
		}
		var boardCmd, archiveCmd tea.Cmd
		m.boardView, boardCmd = m.boardView.Update(msg)
		m.archiveView, archiveCmd = m.archiveView.Update(msg)
		return m, tea.Batch(boardCmd, archiveCmd, messages.WaitForEvent(m.events), m.startTicking())

	case messages.SubscriptionClosedMsg:
		return m, nil

	case UndoTickMsg:
		m.ticking = false
		return m, m.startTicking()

	case StatusMsg:
		if len(m.ctrl.Unsynced()) == 0 {
			m.syncErr = nil
		}
		var cmd tea.Cmd
		switch m.currentView {
		case ViewArchive:
			m.archiveView, cmd = m.archiveView.Update(msg)
			m.boardView.Refresh()
		default:
			m.boardView, cmd = m.boardView.Update(msg)
			m.archiveView.Refresh()
		}
		return m, tea.Batch(cmd, m.startTicking())

	case SwitchViewMsg:
		m.currentView = msg.View
		m.boardView.Refresh()
		m.archiveView.Refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Dismiss help overlay on any key
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if !m.childIsModal() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			}
		}
	}

	// Dispatch to current child view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewArchive:
		m.archiveView, cmd = m.archiveView.Update(msg)
	default:
		m.boardView, cmd = m.boardView.Update(msg)
	}
	return m, cmd
}

func (m AppModel) childIsModal() bool {
	if m.currentView == ViewArchive {
		return m.archiveView.IsModal()
	}
	return m.boardView.IsModal()
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return shared.RenderHelp(helpSections(), m.width, m.height)
	}

	var content, statusText string
	switch m.currentView {
	case ViewArchive:
		content = m.archiveView.View()
		statusText = "Archive | esc: board | ?: help | q: quit"
	default:
		content = m.boardView.View()
		statusText = "Board | A: archive | ?: help | q: quit"
	}

	status := HelpStyle.Render(statusText)
	if n := len(m.ctrl.Unsynced()); n > 0 {
		detail := ""
		if m.syncErr != nil {
			detail = fmt.Sprintf(": %v", m.syncErr)
		}
		status += "  " + ErrorStyle.Render(fmt.Sprintf("%d card(s) not saved%s", n, detail))
	}

	statusBar := StatusBarStyle.Width(m.width).Render(status)
	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func helpSections() []shared.HelpSection {
	return []shared.HelpSection{
		{Title: "Global", Binds: []shared.HelpBind{
			{Key: "A", Desc: "Toggle archive view"},
			{Key: "?", Desc: "Show this help"},
			{Key: "q", Desc: "Quit"},
			{Key: "ctrl+c", Desc: "Force quit"},
		}},
		{Title: "Board", Binds: []shared.HelpBind{
			{Key: "h j k l", Desc: "Navigate"},
			{Key: "m / space", Desc: "Move mode (h/l column, j/k reorder)"},
			{Key: "n", Desc: "New card in column"},
			{Key: "enter / e", Desc: "Edit card"},
			{Key: "a", Desc: "Archive card"},
			{Key: "D", Desc: "Delete card"},
			{Key: "u / U", Desc: "Undo archive / delete"},
			{Key: "/", Desc: "Filter"},
		}},
		{Title: "Card Editor", Binds: []shared.HelpBind{
			{Key: "tab", Desc: "Checklist, links, images, notes"},
			{Key: "t / d", Desc: "Title / due date"},
			{Key: "a / e / D", Desc: "Add / edit / remove item"},
			{Key: "space", Desc: "Toggle checklist item"},
			{Key: "s", Desc: "Save"},
			{Key: "esc", Desc: "Discard"},
		}},
	}
}

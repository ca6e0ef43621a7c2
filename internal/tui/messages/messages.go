package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/kanban/events"
)

// ViewType represents the different views in the application
type ViewType int

const (
	ViewBoard ViewType = iota
	ViewArchive
)

// SwitchViewMsg is sent by child views to switch to a different view
type SwitchViewMsg struct {
	View ViewType
}

// BoardEventMsg wraps an event published by the controller
type BoardEventMsg struct {
	Event events.Event
}

// SubscriptionClosedMsg is sent once the controller closed the event channel
type SubscriptionClosedMsg struct{}

// UndoTickMsg drives the undo countdown while a restore is pending
type UndoTickMsg struct{}

// StatusMsg carries the outcome of a controller call back to the UI
type StatusMsg struct {
	Text string
	Err  error
}

func SwitchView(v ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: v}
	}
}

// WaitForEvent blocks on ch and returns the next event as a message.
// Callers re-issue it after every BoardEventMsg.
func WaitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return SubscriptionClosedMsg{}
		}
		return BoardEventMsg{Event: e}
	}
}

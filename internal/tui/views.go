package tui

import "planner/internal/tui/messages"

// Re-export types from messages package for convenience
type ViewType = messages.ViewType

const (
	ViewBoard   = messages.ViewBoard
	ViewArchive = messages.ViewArchive
)

type SwitchViewMsg = messages.SwitchViewMsg
type BoardEventMsg = messages.BoardEventMsg
type StatusMsg = messages.StatusMsg
type UndoTickMsg = messages.UndoTickMsg

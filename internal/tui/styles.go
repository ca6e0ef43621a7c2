package tui

import "planner/internal/tui/theme"

var (
	TitleStyle     = theme.Title
	StatusBarStyle = theme.StatusBar
	HelpStyle      = theme.HelpHint
	ErrorStyle     = theme.Error
)

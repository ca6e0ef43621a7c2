package kanban

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	columnSlotWidth = columnWidth + 6 // column plus border and gap
	arrowWidth      = 5
	columnChrome    = 8 // title, scroll hints and padding inside a column
)

// columnView remembers where the cursor and the scroll window were in a
// column so that leaving and re-entering it keeps the position.
type columnView struct {
	cursor int
	offset int // first card drawn
}

// boardHeight is the fixed height of every column box
func (m BoardModel) boardHeight() int {
	const header, footer = 3, 6
	return max(10, m.height-header-footer)
}

// columnRange returns the half-open range of columns that fit the width
func (m BoardModel) columnRange() (int, int) {
	n := len(m.board.Columns)
	fit := max(1, (m.width-2*arrowWidth)/columnSlotWidth)
	start := min(m.firstCol, max(0, n-1))
	return start, min(n, start+fit)
}

// scrollColumns shifts firstCol until the selected column is on screen
func (m *BoardModel) scrollColumns() {
	if len(m.board.Columns) == 0 {
		return
	}
	start, end := m.columnRange()
	switch {
	case m.selectedCol < start:
		m.firstCol = m.selectedCol
	case m.selectedCol >= end:
		m.firstCol = m.selectedCol - (end - start) + 1
	}
	m.firstCol = max(0, m.firstCol)
}

// scrollCards moves the selected column's window so the cursor card is
// drawn. Card heights vary, so the window is measured by rendering.
func (m *BoardModel) scrollCards() {
	if m.selectedCol >= len(m.cols) {
		return
	}
	view := &m.cols[m.selectedCol]
	cards := m.visibleCards(m.selectedCol)
	if len(cards) == 0 {
		view.offset = 0
		return
	}

	if m.selectedCard < view.offset {
		view.offset = m.selectedCard
	}
	room := m.boardHeight() - columnChrome
	for view.offset < m.selectedCard {
		used := 0
		for i := view.offset; i <= m.selectedCard; i++ {
			used += lipgloss.Height(m.renderCard(m.selectedCol, i, cards[i]))
		}
		if used <= room {
			break
		}
		view.offset++
	}
	view.offset = min(view.offset, len(cards)-1)
}

// arrow renders a horizontal scroll marker, blank when there is nothing
// more in that direction
func arrow(symbol string, more bool, height int) string {
	if !more {
		symbol = " "
	}
	return lipgloss.NewStyle().
		Width(3).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(colorWarning).
		Bold(true).
		Render(symbol)
}

package kanban

import (
	"github.com/charmbracelet/bubbles/textinput"

	"planner/internal/kanban/controller"
	"planner/internal/kanban/models"
)

// cardFilter narrows every column to the cards matching a fuzzy query.
// hits is nil while no query is applied; an applied query with no matches
// leaves empty per-column slices.
type cardFilter struct {
	input textinput.Model
	query string
	hits  [][]int // per visible column, indexes into Column.Items
}

func (f cardFilter) active() bool {
	return f.hits != nil
}

// edit focuses a fresh input holding the current query
func (f *cardFilter) edit() {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.SetValue(f.query)
	ti.Focus()
	f.input = ti
}

// apply searches for query and records the hits per column of board
func (f *cardFilter) apply(query string, ctrl *controller.Controller, board models.Board) {
	f.query = query
	f.hits = nil
	if query == "" {
		return
	}
	f.hits = make([][]int, len(board.Columns))
	for _, r := range ctrl.Search(query) {
		if col := board.GetColumnIndex(r.Column); col >= 0 {
			f.hits[col] = append(f.hits[col], r.Index)
		}
	}
}

func (f *cardFilter) clear() {
	f.query = ""
	f.hits = nil
}

// cards returns the items of column col that pass the filter
func (f cardFilter) cards(col int, items []models.Card) []models.Card {
	if !f.active() || col >= len(f.hits) {
		return items
	}
	out := make([]models.Card, 0, len(f.hits[col]))
	for _, i := range f.hits[col] {
		if i < len(items) {
			out = append(out, items[i])
		}
	}
	return out
}

// itemIndex maps a position among the filtered cards back to Column.Items
func (f cardFilter) itemIndex(col, pos int) int {
	if !f.active() || col >= len(f.hits) || pos >= len(f.hits[col]) {
		return pos
	}
	return f.hits[col][pos]
}

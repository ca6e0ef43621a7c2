package models

// ColumnID identifies one of the fixed board columns
type ColumnID string

const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "inprogress"
	ColumnDone       ColumnID = "done"
	ColumnArchived   ColumnID = "archived"
)

// Visible returns false for the archived column
func (id ColumnID) Visible() bool {
	return id != ColumnArchived
}

// IsValidColumn checks id against the fixed enumeration
func IsValidColumn(id ColumnID) bool {
	switch id {
	case ColumnTodo, ColumnInProgress, ColumnDone, ColumnArchived:
		return true
	}
	return false
}

// Column is a named bucket holding an ordered list of cards
type Column struct {
	ID        ColumnID
	Name      string
	ColorHint string
	Items     []Card // Order here is the intra-column order
}

// DefaultColumns returns the fixed columns of a planning board
func DefaultColumns() []Column {
	return []Column{
		{ID: ColumnTodo, Name: "To Do", ColorHint: "4", Items: []Card{}},
		{ID: ColumnInProgress, Name: "In Progress", ColorHint: "3", Items: []Card{}},
		{ID: ColumnDone, Name: "Published", ColorHint: "2", Items: []Card{}},
		{ID: ColumnArchived, Name: "Archived", ColorHint: "8", Items: []Card{}},
	}
}

// Board represents one owner's planner
type Board struct {
	OwnerID string
	Columns []Column
}

// NewBoard returns an empty board with the default columns
func NewBoard(ownerID string) Board {
	return Board{OwnerID: ownerID, Columns: DefaultColumns()}
}

// GetColumn returns a pointer to the column with the given id
func (b *Board) GetColumn(id ColumnID) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// GetColumnIndex returns the index of the column with the given id
func (b *Board) GetColumnIndex(id ColumnID) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// Locate finds a card by id across all columns, archived included
func (b *Board) Locate(cardID string) (colIdx, itemIdx int, ok bool) {
	for i := range b.Columns {
		for j := range b.Columns[i].Items {
			if b.Columns[i].Items[j].ID == cardID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// VisibleColumns returns every column except archived
func (b *Board) VisibleColumns() []Column {
	cols := make([]Column, 0, len(b.Columns))
	for _, col := range b.Columns {
		if col.ID.Visible() {
			cols = append(cols, col)
		}
	}
	return cols
}

// CardCount returns the number of cards across all columns
func (b *Board) CardCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Items)
	}
	return n
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := Board{OwnerID: b.OwnerID, Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		items := make([]Card, len(col.Items))
		for j, card := range col.Items {
			items[j] = card.Clone()
		}
		col.Items = items
		out.Columns[i] = col
	}
	return out
}

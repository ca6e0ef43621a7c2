package operations

import (
	"errors"
	"fmt"

	"planner/internal/kanban/models"
)

// ErrInvalidGesture is returned when a gesture references a bad column or index
var ErrInvalidGesture = errors.New("invalid move gesture")

// Gesture is a drag-and-drop request: take the card at SourceIndex of
// SourceColumn and place it at DestIndex of DestColumn
type Gesture struct {
	SourceColumn models.ColumnID
	SourceIndex  int
	DestColumn   models.ColumnID
	DestIndex    int
}

// IsNoop reports whether the gesture drops the card where it started
func (g Gesture) IsNoop() bool {
	return g.SourceColumn == g.DestColumn && g.SourceIndex == g.DestIndex
}

// MoveResult describes what ApplyMove did
type MoveResult struct {
	Card          models.Card // The moved card, with its new ColumnID
	Changed       bool        // False for the no-op gesture
	ColumnChanged bool        // True only for cross-column moves
	From          models.ColumnID
	To            models.ColumnID
	Index         int // Final index in the destination column
}

// ApplyMove computes the board that results from g. The input board is not
// modified. A no-op gesture returns the input board unchanged.
func ApplyMove(board models.Board, g Gesture) (models.Board, MoveResult, error) {
	if g.IsNoop() {
		return board, MoveResult{From: g.SourceColumn, To: g.DestColumn, Index: g.DestIndex}, nil
	}

	srcIdx, err := gestureColumn(&board, g.SourceColumn)
	if err != nil {
		return board, MoveResult{}, err
	}
	dstIdx, err := gestureColumn(&board, g.DestColumn)
	if err != nil {
		return board, MoveResult{}, err
	}

	if g.SourceIndex < 0 || g.SourceIndex >= len(board.Columns[srcIdx].Items) {
		return board, MoveResult{}, fmt.Errorf("%w: source index %d out of range", ErrInvalidGesture, g.SourceIndex)
	}

	next := board.Clone()

	srcCol := &next.Columns[srcIdx]
	card := srcCol.Items[g.SourceIndex]
	srcCol.Items = RemoveAt(srcCol.Items, g.SourceIndex)

	dstCol := &next.Columns[dstIdx]
	index := clamp(g.DestIndex, 0, len(dstCol.Items))
	card.ColumnID = g.DestColumn
	dstCol.Items = InsertAt(dstCol.Items, index, card)

	return next, MoveResult{
		Card:          card,
		Changed:       true,
		ColumnChanged: g.SourceColumn != g.DestColumn,
		From:          g.SourceColumn,
		To:            g.DestColumn,
		Index:         index,
	}, nil
}

func gestureColumn(board *models.Board, id models.ColumnID) (int, error) {
	if !id.Visible() {
		return -1, fmt.Errorf("%w: column %q cannot be a drag target", ErrInvalidGesture, id)
	}
	idx := board.GetColumnIndex(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: unknown column %q", ErrInvalidGesture, id)
	}
	return idx, nil
}

// RemoveCard takes a card out of whatever column holds it.
// Returns the card, its column and its index.
func RemoveCard(board *models.Board, cardID string) (models.Card, models.ColumnID, int, bool) {
	colIdx, itemIdx, ok := board.Locate(cardID)
	if !ok {
		return models.Card{}, "", -1, false
	}
	col := &board.Columns[colIdx]
	card := col.Items[itemIdx]
	col.Items = RemoveAt(col.Items, itemIdx)
	return card, col.ID, itemIdx, true
}

// InsertCard places card into column at index (clamped), setting its ColumnID.
// Returns the index actually used.
func InsertCard(board *models.Board, card models.Card, column models.ColumnID, index int) (int, error) {
	col := board.GetColumn(column)
	if col == nil {
		return -1, fmt.Errorf("unknown column %q", column)
	}
	index = clamp(index, 0, len(col.Items))
	card.ColumnID = column
	col.Items = InsertAt(col.Items, index, card)
	return index, nil
}

// ReplaceCard swaps the stored copy of a card, keeping its position
func ReplaceCard(board *models.Board, card models.Card) bool {
	colIdx, itemIdx, ok := board.Locate(card.ID)
	if !ok {
		return false
	}
	card.ColumnID = board.Columns[colIdx].ID
	board.Columns[colIdx].Items[itemIdx] = card
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package operations

import (
	"fmt"
	"math/rand"
	"testing"

	"planner/internal/kanban/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBoard() models.Board {
	b := models.NewBoard("owner")
	todo := b.GetColumn(models.ColumnTodo)
	for i := 0; i < 3; i++ {
		todo.Items = append(todo.Items, models.Card{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Todo %d", i), ColumnID: models.ColumnTodo})
	}
	prog := b.GetColumn(models.ColumnInProgress)
	prog.Items = append(prog.Items, models.Card{ID: "p0", Title: "Prog 0", ColumnID: models.ColumnInProgress})
	return b
}

func ids(col *models.Column) []string {
	out := make([]string, len(col.Items))
	for i, c := range col.Items {
		out[i] = c.ID
	}
	return out
}

func TestApplyMove_Noop(t *testing.T) {
	b := testBoard()
	next, res, err := ApplyMove(b, Gesture{models.ColumnTodo, 1, models.ColumnTodo, 1})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, b, next)
}

func TestApplyMove_SameColumnReorder(t *testing.T) {
	b := testBoard()
	next, res, err := ApplyMove(b, Gesture{models.ColumnTodo, 0, models.ColumnTodo, 2})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.ColumnChanged)
	assert.Equal(t, []string{"t1", "t2", "t0"}, ids(next.GetColumn(models.ColumnTodo)))

	// input untouched
	assert.Equal(t, []string{"t0", "t1", "t2"}, ids(b.GetColumn(models.ColumnTodo)))
}

func TestApplyMove_CrossColumn(t *testing.T) {
	b := testBoard()
	next, res, err := ApplyMove(b, Gesture{models.ColumnTodo, 1, models.ColumnInProgress, 0})
	require.NoError(t, err)
	assert.True(t, res.ColumnChanged)
	assert.Equal(t, "t1", res.Card.ID)
	assert.Equal(t, models.ColumnInProgress, res.Card.ColumnID)
	assert.Equal(t, []string{"t0", "t2"}, ids(next.GetColumn(models.ColumnTodo)))
	assert.Equal(t, []string{"t1", "p0"}, ids(next.GetColumn(models.ColumnInProgress)))
	assert.Equal(t, models.ColumnInProgress, next.GetColumn(models.ColumnInProgress).Items[0].ColumnID)
}

func TestApplyMove_DestIndexClamped(t *testing.T) {
	b := testBoard()
	next, res, err := ApplyMove(b, Gesture{models.ColumnTodo, 0, models.ColumnDone, 42})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, []string{"t0"}, ids(next.GetColumn(models.ColumnDone)))
}

func TestApplyMove_InvalidGestures(t *testing.T) {
	b := testBoard()
	cases := []Gesture{
		{models.ColumnTodo, 5, models.ColumnDone, 0},
		{models.ColumnTodo, -1, models.ColumnDone, 0},
		{"published", 0, models.ColumnDone, 0},
		{models.ColumnTodo, 0, models.ColumnArchived, 0},
		{models.ColumnArchived, 0, models.ColumnTodo, 0},
	}
	for _, g := range cases {
		_, _, err := ApplyMove(b, g)
		assert.ErrorIs(t, err, ErrInvalidGesture, "gesture %+v", g)
	}
}

func TestApplyMove_SingleColumnMembership(t *testing.T) {
	b := testBoard()
	visible := []models.ColumnID{models.ColumnTodo, models.ColumnInProgress, models.ColumnDone}
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 500; step++ {
		src := visible[rng.Intn(len(visible))]
		n := len(b.GetColumn(src).Items)
		if n == 0 {
			continue
		}
		g := Gesture{
			SourceColumn: src,
			SourceIndex:  rng.Intn(n),
			DestColumn:   visible[rng.Intn(len(visible))],
			DestIndex:    rng.Intn(5),
		}
		next, _, err := ApplyMove(b, g)
		require.NoError(t, err)
		b = next

		seen := map[string]int{}
		for _, col := range b.Columns {
			for _, c := range col.Items {
				seen[c.ID]++
				require.Equal(t, col.ID, c.ColumnID, "card %s column mismatch", c.ID)
			}
		}
		require.Len(t, seen, 4)
		for id, count := range seen {
			require.Equal(t, 1, count, "card %s appears %d times", id, count)
		}
	}
}

func TestRemoveAndInsertCard(t *testing.T) {
	b := testBoard()
	card, col, idx, ok := RemoveCard(&b, "t1")
	require.True(t, ok)
	assert.Equal(t, models.ColumnTodo, col)
	assert.Equal(t, 1, idx)

	_, err := InsertCard(&b, card, models.ColumnArchived, 0)
	require.NoError(t, err)
	c, i, ok := b.Locate("t1")
	require.True(t, ok)
	assert.Equal(t, models.ColumnArchived, b.Columns[c].ID)
	assert.Equal(t, models.ColumnArchived, b.Columns[c].Items[i].ColumnID)

	_, _, _, ok = RemoveCard(&b, "missing")
	assert.False(t, ok)
}

func TestListHelpers(t *testing.T) {
	s := []int{1, 2, 3}
	assert.Equal(t, []int{1, 9, 2, 3}, InsertAt(s, 1, 9))
	assert.Equal(t, []int{1, 3}, RemoveAt(s, 1))
	assert.Equal(t, []int{1, 2, 3}, s)

	_, err := ReplaceAt(s, 3, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = Remove(s, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

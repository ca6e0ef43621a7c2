package memory

import (
	"context"
	"testing"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"
	"planner/internal/kanban/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.CardRepository {
		return NewRepository()
	})
}

func TestListCards_OrderFollowsMoves(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	a, err := repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnTodo, Title: "A"})
	require.NoError(t, err)
	_, err = repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnTodo, Title: "B"})
	require.NoError(t, err)
	require.NoError(t, repo.MoveCard(ctx, a.ID, models.ColumnTodo))

	cards, err := repo.ListCards(ctx, "o")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "B", cards[0].Title)
	assert.Equal(t, "A", cards[1].Title)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRepository().ListCards(ctx, "o")
	assert.ErrorIs(t, err, context.Canceled)
}

// Package repotest holds the behaviour every CardRepository must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh repository returned by newRepo
func Run(t *testing.T, newRepo func(t *testing.T) repository.CardRepository) {
	ctx := context.Background()

	t.Run("CreateAssignsIDAndTimestamps", func(t *testing.T) {
		repo := newRepo(t)
		card, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: "Draft reel"})
		require.NoError(t, err)
		assert.NotEmpty(t, card.ID)
		assert.False(t, card.CreatedAt.IsZero())
		assert.False(t, card.UpdatedAt.IsZero())
	})

	t.Run("CreateKeepsProvidedID", func(t *testing.T) {
		repo := newRepo(t)
		card, err := repo.CreateCard(ctx, models.Card{ID: "fixed-id", OwnerID: "alice", ColumnID: models.ColumnDone, Title: "Restored"})
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", card.ID)
	})

	t.Run("CreateRejectsBadColumn", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: "published", Title: "x"})
		assert.ErrorIs(t, err, repository.ErrInvalidColumn)
	})

	t.Run("ListScopedByOwnerWithContent", func(t *testing.T) {
		repo := newRepo(t)
		due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
		_, err := repo.CreateCard(ctx, models.Card{
			OwnerID:   "alice",
			ColumnID:  models.ColumnTodo,
			Title:     "Carousel",
			Notes:     "five slides",
			Checklist: []models.ChecklistItem{{Text: "script", Checked: true}, {Text: "shoot"}},
			Links:     []string{"https://example.com/brief"},
			Images:    []string{"https://cdn.example.com/u/1.png"},
			DueDate:   &due,
		})
		require.NoError(t, err)
		_, err = repo.CreateCard(ctx, models.Card{OwnerID: "bob", ColumnID: models.ColumnTodo, Title: "Not mine"})
		require.NoError(t, err)

		cards, err := repo.ListCards(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, cards, 1)
		c := cards[0]
		assert.Equal(t, "Carousel", c.Title)
		assert.Equal(t, "five slides", c.Notes)
		assert.Equal(t, models.ColumnTodo, c.ColumnID)
		assert.Equal(t, []models.ChecklistItem{{Text: "script", Checked: true}, {Text: "shoot"}}, c.Checklist)
		assert.Equal(t, []string{"https://example.com/brief"}, c.Links)
		assert.Equal(t, []string{"https://cdn.example.com/u/1.png"}, c.Images)
		require.NotNil(t, c.DueDate)
		assert.Equal(t, "2026-11-02", c.DueDate.Format("2006-01-02"))
	})

	t.Run("UpdateAppliesPatch", func(t *testing.T) {
		repo := newRepo(t)
		card, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: "Old"})
		require.NoError(t, err)

		title := "New"
		checklist := []models.ChecklistItem{{Text: "edit"}}
		updated, err := repo.UpdateCard(ctx, card.ID, models.CardPatch{Title: &title, Checklist: &checklist})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, checklist, updated.Checklist)
		assert.False(t, updated.UpdatedAt.Before(card.UpdatedAt))

		cards, err := repo.ListCards(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, "New", cards[0].Title)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		repo := newRepo(t)
		title := "x"
		_, err := repo.UpdateCard(ctx, "nope", models.CardPatch{Title: &title})
		assert.ErrorIs(t, err, repository.ErrCardNotFound)
	})

	t.Run("MoveChangesColumn", func(t *testing.T) {
		repo := newRepo(t)
		card, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: "Move me"})
		require.NoError(t, err)

		require.NoError(t, repo.MoveCard(ctx, card.ID, models.ColumnArchived))
		cards, err := repo.ListCards(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, models.ColumnArchived, cards[0].ColumnID)

		assert.ErrorIs(t, repo.MoveCard(ctx, card.ID, "published"), repository.ErrInvalidColumn)
		assert.ErrorIs(t, repo.MoveCard(ctx, "nope", models.ColumnDone), repository.ErrCardNotFound)
	})

	t.Run("DeleteRemoves", func(t *testing.T) {
		repo := newRepo(t)
		card, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: "Gone"})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteCard(ctx, card.ID))
		cards, err := repo.ListCards(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, cards)
		assert.ErrorIs(t, repo.DeleteCard(ctx, card.ID), repository.ErrCardNotFound)
	})

	t.Run("TitlesRoundTripVerbatim", func(t *testing.T) {
		repo := newRepo(t)
		titles := []string{
			"5 *must-have* tools",
			"Launch post #",
			"__init__ explainer",
			"Use `go test`",
			"[draft] reel: part 2",
			"# not a heading",
			"~~strike~~ <b>tag</b> \\ back",
		}
		want := make(map[string]string)
		for _, title := range titles {
			card, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: title})
			require.NoError(t, err, title)
			want[card.ID] = title
		}

		edited := "**bold** edit #"
		var editedID string
		for id := range want {
			editedID = id
			break
		}
		_, err := repo.UpdateCard(ctx, editedID, models.CardPatch{Title: &edited})
		require.NoError(t, err)
		want[editedID] = edited

		cards, err := repo.ListCards(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, cards, len(titles))
		for _, c := range cards {
			assert.Equal(t, want[c.ID], c.Title)
		}
	})

	t.Run("OwnersDifferingOnlyInCaseOrPunctuation", func(t *testing.T) {
		repo := newRepo(t)
		owners := []string{"Alice", "alice", "a.b", "ab", "a b", "a-b"}
		ids := make(map[string]string)
		for _, owner := range owners {
			card, err := repo.CreateCard(ctx, models.Card{OwnerID: owner, ColumnID: models.ColumnTodo, Title: "private to " + owner})
			require.NoError(t, err, owner)
			ids[owner] = card.ID
		}

		for _, owner := range owners {
			cards, err := repo.ListCards(ctx, owner)
			require.NoError(t, err, owner)
			require.Len(t, cards, 1, owner)
			assert.Equal(t, ids[owner], cards[0].ID, owner)
			assert.Equal(t, owner, cards[0].OwnerID, owner)
		}
	})
}

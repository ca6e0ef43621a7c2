package markdown

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"
	"planner/internal/kanban/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir(), nil)
	require.NoError(t, err)
	return repo
}

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.CardRepository {
		repo := newTestRepo(t)
		return repo
	})
}

func TestBoardFileLayout(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	card, err := repo.CreateCard(ctx, models.Card{OwnerID: "Alice", ColumnID: models.ColumnTodo, Title: "Draft reel", Notes: "hook first"})
	require.NoError(t, err)
	require.NoError(t, repo.MoveCard(ctx, card.ID, models.ColumnInProgress))

	content, err := os.ReadFile(filepath.Join(repo.ownerDir("Alice"), "board.md"))
	require.NoError(t, err)
	board := string(content)

	assert.True(t, strings.HasPrefix(board, "# Alice\n"))
	prog := strings.Index(board, "## inprogress")
	link := strings.Index(board, "[Draft reel](./cards/"+card.ID+".md)")
	require.GreaterOrEqual(t, prog, 0)
	require.Greater(t, link, prog)

	cardFile, err := os.ReadFile(filepath.Join(repo.ownerDir("Alice"), "cards", card.ID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(cardFile), "# Draft reel\n\nhook first\n")
	assert.Contains(t, string(cardFile), "id: "+card.ID)
}

func TestReadBoard_HandEditedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cards"), 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "board.md"), []byte(
		"# bob\n\n## todo\n\n[One](./cards/one.md)\n\n[Two](cards/two.md)\n\n## someday\n\n[Lost](./cards/lost.md)\n\n## done\n\n[Three](./cards/three.md)\n",
	), 0644))

	board, err := readBoard(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "bob", board.Owner)
	assert.Equal(t, []string{"one", "two"}, board.Columns[models.ColumnTodo])
	assert.Equal(t, []string{"three"}, board.Columns[models.ColumnDone])
	assert.Equal(t, "Two", board.Titles["two"])
	_, _, ok := board.columnOf("lost")
	assert.False(t, ok)
}

func TestReadCard_NoFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simple.md")
	require.NoError(t, os.WriteFile(path, []byte("# Simple Card\n\nJust some content.\n"), 0644))

	card, err := readCard(path)
	require.NoError(t, err)
	assert.Equal(t, "Simple Card", card.Title)
	assert.Equal(t, "Just some content.", card.Notes)
	assert.Empty(t, card.Checklist)
	assert.Nil(t, card.DueDate)
}

func TestListCards_SkipsMissingCardFile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, err := repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnTodo, Title: "Keep"})
	require.NoError(t, err)
	b, err := repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnTodo, Title: "Vanish"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(repo.ownerDir("o"), "cards", b.ID+".md")))

	cards, err := repo.ListCards(ctx, "o")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, a.ID, cards[0].ID)
}

func TestUpdateCard_TitleRewritesBoard(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	card, err := repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnDone, Title: "Before"})
	require.NoError(t, err)
	title := "After [v2]"
	_, err = repo.UpdateCard(ctx, card.ID, models.CardPatch{Title: &title})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(repo.ownerDir("o"), "board.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `[After \[v2\]](./cards/`+card.ID+".md)")
}

func TestFindOwnerDir_RejectsTraversal(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.findOwnerDir("../etc/passwd")
	assert.ErrorIs(t, err, repository.ErrCardNotFound)
}

func TestCardFile_TitleKeptVerbatim(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	card, err := repo.CreateCard(ctx, models.Card{OwnerID: "o", ColumnID: models.ColumnTodo, Title: "5 *must-have* tools #", Notes: "body"})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(repo.ownerDir("o"), "cards", card.ID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# 5 *must-have* tools #\n\nbody\n")

	got, err := readCard(filepath.Join(repo.ownerDir("o"), "cards", card.ID+".md"))
	require.NoError(t, err)
	assert.Equal(t, "5 *must-have* tools #", got.Title)
	assert.Equal(t, "body", got.Notes)
}

func TestListCards_IgnoresForeignCardInOwnerDir(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	mine, err := repo.CreateCard(ctx, models.Card{OwnerID: "alice", ColumnID: models.ColumnTodo, Title: "Mine"})
	require.NoError(t, err)
	other, err := repo.CreateCard(ctx, models.Card{OwnerID: "Alice", ColumnID: models.ColumnTodo, Title: "Alice private"})
	require.NoError(t, err)
	assert.NotEqual(t, repo.ownerDir("alice"), repo.ownerDir("Alice"))

	// a card file copied by hand into the wrong owner's board
	dir := repo.ownerDir("alice")
	data, err := os.ReadFile(filepath.Join(repo.ownerDir("Alice"), "cards", other.ID+".md"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards", other.ID+".md"), data, 0644))
	board, err := readBoard(dir, "alice")
	require.NoError(t, err)
	board.append(models.ColumnTodo, other.ID, "Alice private")
	require.NoError(t, writeBoard(dir, board))

	cards, err := repo.ListCards(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, mine.ID, cards[0].ID)
}

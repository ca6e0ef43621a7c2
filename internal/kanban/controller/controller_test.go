package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"planner/internal/kanban/controller"
	"planner/internal/kanban/events"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
	"planner/internal/kanban/repository"
	"planner/internal/kanban/repository/memory"
	"planner/internal/kanban/undo"
	"planner/internal/kanban/undo/undotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "studio"

var start = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

// countingRepo wraps the memory repository, counting calls and failing
// writes on demand
type countingRepo struct {
	*memory.Repository
	mu    sync.Mutex
	calls map[string]int
	fail  error
}

func newCountingRepo() *countingRepo {
	return &countingRepo{Repository: memory.NewRepository(), calls: make(map[string]int)}
}

func (r *countingRepo) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	if op == "list" {
		return nil
	}
	return r.fail
}

func (r *countingRepo) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *countingRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *countingRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for op, c := range r.calls {
		if op != "list" {
			n += c
		}
	}
	return n
}

func (r *countingRepo) ListCards(ctx context.Context, ownerID string) ([]models.Card, error) {
	r.record("list")
	return r.Repository.ListCards(ctx, ownerID)
}

func (r *countingRepo) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	if err := r.record("create"); err != nil {
		return models.Card{}, err
	}
	return r.Repository.CreateCard(ctx, card)
}

func (r *countingRepo) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	if err := r.record("update"); err != nil {
		return models.Card{}, err
	}
	return r.Repository.UpdateCard(ctx, id, patch)
}

func (r *countingRepo) DeleteCard(ctx context.Context, id string) error {
	if err := r.record("delete"); err != nil {
		return err
	}
	return r.Repository.DeleteCard(ctx, id)
}

func (r *countingRepo) MoveCard(ctx context.Context, id string, column models.ColumnID) error {
	if err := r.record("move"); err != nil {
		return err
	}
	return r.Repository.MoveCard(ctx, id, column)
}

func (r *countingRepo) stored(t *testing.T, id string) models.Card {
	t.Helper()
	cards, err := r.Repository.ListCards(context.Background(), owner)
	require.NoError(t, err)
	for _, c := range cards {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("card %s not in repository", id)
	return models.Card{}
}

func setup(t *testing.T, opts ...controller.Option) (*controller.Controller, *countingRepo, *undotest.Clock) {
	t.Helper()
	repo := newCountingRepo()
	clock := undotest.NewClock(start)
	opts = append([]controller.Option{controller.WithUndoOptions(undo.WithClock(clock))}, opts...)
	ctrl := controller.New(owner, repo, opts...)
	t.Cleanup(ctrl.Close)
	require.NoError(t, ctrl.Load(context.Background()))
	return ctrl, repo, clock
}

func addCard(t *testing.T, ctrl *controller.Controller, column models.ColumnID, title string) models.Card {
	t.Helper()
	card, err := ctrl.AddCard(context.Background(), column, models.Draft{Title: title})
	require.NoError(t, err)
	return card
}

func columnIDs(board models.Board, column models.ColumnID) []string {
	col := board.GetColumn(column)
	ids := make([]string, len(col.Items))
	for i, c := range col.Items {
		ids[i] = c.ID
	}
	return ids
}

func TestAddCard_TitleRequired(t *testing.T) {
	ctrl, repo, _ := setup(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := ctrl.AddCard(ctx, models.ColumnTodo, models.Draft{Title: title, Notes: "n"})
		var verr *controller.ValidationError
		require.ErrorAs(t, err, &verr, "title %q", title)
		assert.Equal(t, "title", verr.Field)
		assert.ErrorIs(t, err, models.ErrEmptyTitle)
	}

	assert.Equal(t, 0, repo.writes())
	board := ctrl.Board()
	assert.Equal(t, 0, board.CardCount())
}

func TestEditCard_BlankTitleRejectedBeforeRepository(t *testing.T) {
	ctrl, repo, _ := setup(t)
	card := addCard(t, ctrl, models.ColumnTodo, "Script")
	writes := repo.writes()

	blank := "  "
	_, err := ctrl.EditCard(context.Background(), card.ID, models.CardPatch{Title: &blank})
	assert.ErrorIs(t, err, models.ErrEmptyTitle)
	assert.Equal(t, writes, repo.writes())

	got, ok := ctrl.Card(card.ID)
	require.True(t, ok)
	assert.Equal(t, "Script", got.Title)
	assert.Equal(t, "Script", repo.stored(t, card.ID).Title)
}

func TestAddCard_NormalizesDraft(t *testing.T) {
	ctrl, _, _ := setup(t)

	card, err := ctrl.AddCard(context.Background(), models.ColumnInProgress, models.Draft{
		Title: "  Launch teaser ",
		Links: []string{"", "https://example.com/ref", "  "},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, "Launch teaser", card.Title)
	assert.Equal(t, []string{"https://example.com/ref"}, card.Links)
	assert.Equal(t, models.ColumnInProgress, card.ColumnID)
	assert.Equal(t, owner, card.OwnerID)
}

func TestAddCard_RejectsArchivedColumn(t *testing.T) {
	ctrl, repo, _ := setup(t)

	_, err := ctrl.AddCard(context.Background(), models.ColumnArchived, models.Draft{Title: "x"})
	assert.ErrorIs(t, err, repository.ErrInvalidColumn)
	_, err = ctrl.AddCard(context.Background(), "backlog", models.Draft{Title: "x"})
	assert.ErrorIs(t, err, repository.ErrInvalidColumn)
	assert.Equal(t, 0, repo.writes())
}

func TestAddCard_RejectsForeignImage(t *testing.T) {
	ctrl, repo, _ := setup(t)

	_, err := ctrl.AddCard(context.Background(), models.ColumnTodo, models.Draft{Title: "x", Images: []string{"C:\\photo.png"}})
	var verr *controller.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "images", verr.Field)
	assert.Equal(t, 0, repo.writes())
}

func TestMoveCard_NoopChangesNothing(t *testing.T) {
	ctrl, repo, _ := setup(t)
	addCard(t, ctrl, models.ColumnTodo, "A")
	addCard(t, ctrl, models.ColumnTodo, "B")

	before := ctrl.Board()
	writes := repo.writes()

	res, err := ctrl.MoveCard(context.Background(), operations.Gesture{
		SourceColumn: models.ColumnTodo, SourceIndex: 1,
		DestColumn: models.ColumnTodo, DestIndex: 1,
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, before, ctrl.Board())
	assert.Equal(t, writes, repo.writes())
}

func TestMoveCard_ReorderStaysLocal(t *testing.T) {
	ctrl, repo, _ := setup(t)
	a := addCard(t, ctrl, models.ColumnTodo, "A")
	b := addCard(t, ctrl, models.ColumnTodo, "B")
	writes := repo.writes()

	res, err := ctrl.MoveCard(context.Background(), operations.Gesture{
		SourceColumn: models.ColumnTodo, SourceIndex: 1,
		DestColumn: models.ColumnTodo, DestIndex: 0,
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.ColumnChanged)
	assert.Equal(t, []string{b.ID, a.ID}, columnIDs(ctrl.Board(), models.ColumnTodo))
	assert.Equal(t, writes, repo.writes())
}

func TestMoveCard_CrossColumnPersists(t *testing.T) {
	ctrl, repo, _ := setup(t)
	a := addCard(t, ctrl, models.ColumnTodo, "A")
	b := addCard(t, ctrl, models.ColumnInProgress, "B")

	res, err := ctrl.MoveCard(context.Background(), operations.Gesture{
		SourceColumn: models.ColumnTodo, SourceIndex: 0,
		DestColumn: models.ColumnInProgress, DestIndex: 0,
	})
	require.NoError(t, err)
	assert.True(t, res.ColumnChanged)
	assert.Equal(t, 1, repo.count("move"))

	board := ctrl.Board()
	assert.Empty(t, columnIDs(board, models.ColumnTodo))
	assert.Equal(t, []string{a.ID, b.ID}, columnIDs(board, models.ColumnInProgress))
	assert.Equal(t, models.ColumnInProgress, repo.stored(t, a.ID).ColumnID)
}

func TestMoveCard_InvalidGesture(t *testing.T) {
	ctrl, repo, _ := setup(t)
	addCard(t, ctrl, models.ColumnTodo, "A")

	for _, g := range []operations.Gesture{
		{SourceColumn: models.ColumnTodo, SourceIndex: 0, DestColumn: models.ColumnArchived, DestIndex: 0},
		{SourceColumn: models.ColumnTodo, SourceIndex: 4, DestColumn: models.ColumnDone, DestIndex: 0},
		{SourceColumn: "backlog", SourceIndex: 0, DestColumn: models.ColumnDone, DestIndex: 0},
	} {
		_, err := ctrl.MoveCard(context.Background(), g)
		var verr *controller.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, operations.ErrInvalidGesture)
	}
	assert.Equal(t, 0, repo.count("move"))
}

func TestArchive_RestoreIsExactAndSingleShot(t *testing.T) {
	ctrl, repo, _ := setup(t)
	ctx := context.Background()
	addCard(t, ctrl, models.ColumnInProgress, "First")
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	target, err := ctrl.AddCard(ctx, models.ColumnInProgress, models.Draft{
		Title:     "Reel",
		Notes:     "30s cut",
		Checklist: []models.ChecklistItem{{Text: "storyboard", Checked: true}, {Text: "edit"}},
		Links:     []string{"https://example.com/brief"},
		Images:    []string{"https://cdn.example.com/a.png"},
		DueDate:   &due,
	})
	require.NoError(t, err)
	addCard(t, ctrl, models.ColumnInProgress, "Third")
	before, _ := ctrl.Card(target.ID)

	require.NoError(t, ctrl.ArchiveCard(ctx, target.ID))
	archived, _ := ctrl.Card(target.ID)
	assert.Equal(t, models.ColumnArchived, archived.ColumnID)
	assert.NotContains(t, columnIDs(ctrl.Board(), models.ColumnInProgress), target.ID)

	ok, err := ctrl.RestoreArchive(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	board := ctrl.Board()
	assert.Equal(t, target.ID, columnIDs(board, models.ColumnInProgress)[1])
	restored, _ := ctrl.Card(target.ID)
	assert.Equal(t, before, restored)
	assert.Equal(t, models.ColumnInProgress, repo.stored(t, target.ID).ColumnID)

	ok, err = ctrl.RestoreArchive(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, board, ctrl.Board())
}

func TestArchive_RestoreAfterWindowIsNoop(t *testing.T) {
	ctrl, _, clock := setup(t)
	ctx := context.Background()
	sub := ctrl.Subscribe()
	card := addCard(t, ctrl, models.ColumnTodo, "Old idea")

	require.NoError(t, ctrl.ArchiveCard(ctx, card.ID))
	clock.Advance(undo.DefaultWindow + time.Millisecond)

	ok, err := ctrl.RestoreArchive(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	got, _ := ctrl.Card(card.ID)
	assert.Equal(t, models.ColumnArchived, got.ColumnID)

	var expired bool
	for !expired {
		select {
		case e := <-sub:
			expired = e.Type == events.UndoExpired && e.CardID == card.ID
		default:
			t.Fatal("no undo expiry event")
		}
	}
}

func TestArchive_AlreadyArchivedIsNoop(t *testing.T) {
	ctrl, repo, _ := setup(t)
	card := addCard(t, ctrl, models.ColumnTodo, "A")
	require.NoError(t, ctrl.ArchiveCard(context.Background(), card.ID))
	moves := repo.count("move")

	require.NoError(t, ctrl.ArchiveCard(context.Background(), card.ID))
	assert.Equal(t, moves, repo.count("move"))
}

func TestDelete_RestoreKeepsIDAndPosition(t *testing.T) {
	ctrl, repo, _ := setup(t)
	ctx := context.Background()
	a := addCard(t, ctrl, models.ColumnDone, "A")
	b := addCard(t, ctrl, models.ColumnDone, "B")
	c := addCard(t, ctrl, models.ColumnDone, "C")

	require.NoError(t, ctrl.DeleteCard(ctx, b.ID))
	_, ok := ctrl.Card(b.ID)
	assert.False(t, ok)
	_, err := repo.Repository.UpdateCard(ctx, b.ID, models.CardPatch{})
	assert.ErrorIs(t, err, repository.ErrCardNotFound)

	restored, err := ctrl.RestoreDelete(ctx)
	require.NoError(t, err)
	require.True(t, restored)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, columnIDs(ctrl.Board(), models.ColumnDone))
	assert.Equal(t, "B", repo.stored(t, b.ID).Title)

	restored, err = ctrl.RestoreDelete(ctx)
	assert.NoError(t, err)
	assert.False(t, restored)
}

func TestUndoSlotsAreIndependent(t *testing.T) {
	ctrl, _, _ := setup(t)
	ctx := context.Background()
	a := addCard(t, ctrl, models.ColumnTodo, "A")
	b := addCard(t, ctrl, models.ColumnTodo, "B")

	require.NoError(t, ctrl.ArchiveCard(ctx, a.ID))
	require.NoError(t, ctrl.DeleteCard(ctx, b.ID))

	ok, err := ctrl.RestoreArchive(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ctrl.RestoreDelete(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{a.ID, b.ID}, columnIDs(ctrl.Board(), models.ColumnTodo))
}

func TestDraftReelScenario(t *testing.T) {
	ctrl, _, clock := setup(t)
	ctx := context.Background()

	card, err := ctrl.AddCard(ctx, models.ColumnTodo, models.Draft{Title: "Draft reel"})
	require.NoError(t, err)
	assert.Nil(t, card.DueDate)

	board := ctrl.Board()
	assert.Equal(t, []string{card.ID}, columnIDs(board, models.ColumnTodo))
	assert.Equal(t, 1, board.CardCount())

	_, err = ctrl.MoveCard(ctx, operations.Gesture{
		SourceColumn: models.ColumnTodo, SourceIndex: 0,
		DestColumn: models.ColumnInProgress, DestIndex: 0,
	})
	require.NoError(t, err)
	board = ctrl.Board()
	assert.Empty(t, columnIDs(board, models.ColumnTodo))
	assert.Equal(t, card.ID, columnIDs(board, models.ColumnInProgress)[0])
	moved, _ := ctrl.Card(card.ID)
	assert.Equal(t, models.ColumnInProgress, moved.ColumnID)

	require.NoError(t, ctrl.ArchiveCard(ctx, card.ID))
	board = ctrl.Board()
	assert.Empty(t, columnIDs(board, models.ColumnInProgress))
	archived, _ := ctrl.Card(card.ID)
	assert.Equal(t, models.ColumnArchived, archived.ColumnID)
	entry, ok := ctrl.PendingUndo(undo.KindArchive)
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(7*time.Second), entry.ExpiresAt)
	assert.Equal(t, models.ColumnInProgress, entry.ColumnID)

	clock.Advance(2 * time.Second)
	ok, err = ctrl.RestoreArchive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	board = ctrl.Board()
	assert.Equal(t, []string{card.ID}, columnIDs(board, models.ColumnInProgress))
	_, ok = ctrl.PendingUndo(undo.KindArchive)
	assert.False(t, ok)
}

func TestPersistenceFailure_KeepsLocalStateAndMarksUnsynced(t *testing.T) {
	ctrl, repo, _ := setup(t)
	ctx := context.Background()
	sub := ctrl.Subscribe()
	card := addCard(t, ctrl, models.ColumnTodo, "Caption")

	boom := errors.New("network down")
	repo.setFail(boom)

	title := "Caption v2"
	got, err := ctrl.EditCard(ctx, card.ID, models.CardPatch{Title: &title})
	var perr *controller.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, controller.OpUpdate, perr.Op)
	assert.Equal(t, card.ID, perr.CardID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Caption v2", got.Title)

	local, _ := ctrl.Card(card.ID)
	assert.Equal(t, "Caption v2", local.Title)
	assert.Equal(t, "Caption", repo.stored(t, card.ID).Title)
	assert.Equal(t, []string{card.ID}, ctrl.Unsynced())

	_, err = ctrl.MoveCard(ctx, operations.Gesture{
		SourceColumn: models.ColumnTodo, SourceIndex: 0,
		DestColumn: models.ColumnDone, DestIndex: 0,
	})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, controller.OpMove, perr.Op)
	local, _ = ctrl.Card(card.ID)
	assert.Equal(t, models.ColumnDone, local.ColumnID)

	var failed bool
	for !failed {
		select {
		case e := <-sub:
			failed = e.Type == events.SyncFailed && errors.Is(e.Err, boom)
		default:
			t.Fatal("no sync failure event")
		}
	}

	repo.setFail(nil)
	_, err = ctrl.EditCard(ctx, card.ID, models.CardPatch{Title: &title})
	require.NoError(t, err)
	assert.False(t, ctrl.IsUnsynced(card.ID))
	assert.Equal(t, "Caption v2", repo.stored(t, card.ID).Title)
}

func TestPersistenceFailure_CreateLeavesBoardEmpty(t *testing.T) {
	ctrl, repo, _ := setup(t)
	repo.setFail(errors.New("quota"))

	_, err := ctrl.AddCard(context.Background(), models.ColumnTodo, models.Draft{Title: "x"})
	var perr *controller.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, controller.OpCreate, perr.Op)
	board := ctrl.Board()
	assert.Equal(t, 0, board.CardCount())
}

func TestLoad_ClearsUnsyncedAndRereadsRepository(t *testing.T) {
	ctrl, repo, _ := setup(t)
	ctx := context.Background()
	card := addCard(t, ctrl, models.ColumnTodo, "Caption")

	repo.setFail(errors.New("offline"))
	require.Error(t, ctrl.ArchiveCard(ctx, card.ID))
	require.NotEmpty(t, ctrl.Unsynced())

	repo.setFail(nil)
	require.NoError(t, ctrl.Load(ctx))
	assert.Empty(t, ctrl.Unsynced())
	got, _ := ctrl.Card(card.ID)
	assert.Equal(t, models.ColumnTodo, got.ColumnID)
}

// listOnlyRepo serves a fixed listing
type listOnlyRepo struct {
	repository.CardRepository
	cards []models.Card
	err   error
}

func (r listOnlyRepo) ListCards(context.Context, string) ([]models.Card, error) {
	return r.cards, r.err
}

func TestLoad_UnknownColumnFallsBackToTodo(t *testing.T) {
	ctrl := controller.New(owner, listOnlyRepo{cards: []models.Card{
		{ID: "a", OwnerID: owner, ColumnID: "backlog", Title: "Lost"},
		{ID: "b", OwnerID: owner, ColumnID: models.ColumnArchived, Title: "Old"},
	}})
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background()))
	board := ctrl.Board()
	assert.Equal(t, []string{"a"}, columnIDs(board, models.ColumnTodo))
	assert.Equal(t, []string{"b"}, columnIDs(board, models.ColumnArchived))

	visible := ctrl.VisibleColumns()
	require.Len(t, visible, 3)
	for _, col := range visible {
		assert.NotEqual(t, models.ColumnArchived, col.ID)
	}
}

func TestLoad_Failure(t *testing.T) {
	ctrl := controller.New(owner, listOnlyRepo{err: errors.New("disk")})
	defer ctrl.Close()

	err := ctrl.Load(context.Background())
	var perr *controller.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, controller.OpList, perr.Op)
}

func TestBoard_ReturnsCopy(t *testing.T) {
	ctrl, _, _ := setup(t)
	card := addCard(t, ctrl, models.ColumnTodo, "A")

	board := ctrl.Board()
	board.GetColumn(models.ColumnTodo).Items[0].Title = "mutated"

	got, _ := ctrl.Card(card.ID)
	assert.Equal(t, "A", got.Title)
}

func TestUnknownCard(t *testing.T) {
	ctrl, _, _ := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, ctrl.ArchiveCard(ctx, "nope"), repository.ErrCardNotFound)
	assert.ErrorIs(t, ctrl.DeleteCard(ctx, "nope"), repository.ErrCardNotFound)
	title := "x"
	_, err := ctrl.EditCard(ctx, "nope", models.CardPatch{Title: &title})
	assert.ErrorIs(t, err, repository.ErrCardNotFound)
}

func TestClose_ClosesSubscriptionsAndTimers(t *testing.T) {
	repo := newCountingRepo()
	clock := undotest.NewClock(start)
	ctrl := controller.New(owner, repo, controller.WithUndoOptions(undo.WithClock(clock)))
	require.NoError(t, ctrl.Load(context.Background()))
	card := addCard(t, ctrl, models.ColumnTodo, "A")
	require.NoError(t, ctrl.ArchiveCard(context.Background(), card.ID))
	sub := ctrl.Subscribe()
	require.Equal(t, 1, clock.Pending())

	ctrl.Close()
	assert.Equal(t, 0, clock.Pending())
	_, open := <-sub
	assert.False(t, open)
}

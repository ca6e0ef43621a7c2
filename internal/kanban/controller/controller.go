// Package controller owns the in-memory board and turns user intents into
// optimistic local changes followed by repository writes.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"planner/internal/kanban/attachments"
	"planner/internal/kanban/events"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
	"planner/internal/kanban/repository"
	"planner/internal/kanban/undo"

	"go.uber.org/zap"
)

// Uploader validates an image and stores it, returning its URL.
// *attachments.Validator implements it.
type Uploader interface {
	Upload(ctx context.Context, f attachments.File) (string, error)
}

// Controller is the only writer of the in-memory board
type Controller struct {
	mu       sync.Mutex
	owner    string
	repo     repository.CardRepository
	uploader Uploader
	undo     *undo.Buffer
	bus      *events.Bus
	log      *zap.Logger
	board    models.Board
	unsynced map[string]error
	editor   editorState

	undoOpts []undo.Option
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUploader enables the image operations
func WithUploader(u Uploader) Option {
	return func(c *Controller) { c.uploader = u }
}

// WithUndoOptions passes options to the undo buffer
func WithUndoOptions(opts ...undo.Option) Option {
	return func(c *Controller) { c.undoOpts = append(c.undoOpts, opts...) }
}

// New creates a controller for owner's board. Call Load to fill it.
func New(owner string, repo repository.CardRepository, opts ...Option) *Controller {
	c := &Controller{
		owner:    owner,
		repo:     repo,
		bus:      events.NewBus(),
		log:      zap.NewNop(),
		board:    models.NewBoard(owner),
		unsynced: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("owner", owner))
	c.undo = undo.NewBuffer(append(c.undoOpts, undo.WithOnExpire(c.undoExpired))...)
	return c
}

func (c *Controller) undoExpired(e undo.Entry) {
	c.log.Debug("undo expired", zap.Stringer("kind", e.Kind), zap.String("card", e.Card.ID))
	c.bus.Publish(events.Event{Type: events.UndoExpired, CardID: e.Card.ID, Column: e.ColumnID})
}

// Owner returns the owner the board is scoped to
func (c *Controller) Owner() string {
	return c.owner
}

// Load replaces the board with the repository contents
func (c *Controller) Load(ctx context.Context) error {
	cards, err := c.repo.ListCards(ctx, c.owner)
	if err != nil {
		c.log.Error("failed to load board", zap.Error(err))
		return &PersistenceError{Op: OpList, Err: err}
	}

	board := models.NewBoard(c.owner)
	for _, card := range cards {
		col := board.GetColumn(card.ColumnID)
		if col == nil {
			c.log.Warn("card has unknown column, placing in todo",
				zap.String("card", card.ID), zap.String("column", string(card.ColumnID)))
			card.ColumnID = models.ColumnTodo
			col = board.GetColumn(models.ColumnTodo)
		}
		col.Items = append(col.Items, card)
	}

	c.mu.Lock()
	c.board = board
	c.unsynced = make(map[string]error)
	c.mu.Unlock()

	c.log.Debug("board loaded", zap.Int("cards", len(cards)))
	c.bus.Publish(events.Event{Type: events.BoardReloaded})
	return nil
}

// Board returns a deep copy of the board, archived column included
func (c *Controller) Board() models.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// VisibleColumns returns copies of every column except archived
func (c *Controller) VisibleColumns() []models.Column {
	board := c.Board()
	return board.VisibleColumns()
}

// Card returns a copy of the card with the given id
func (c *Controller) Card(id string) (models.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cardLocked(id)
}

func (c *Controller) cardLocked(id string) (models.Card, bool) {
	colIdx, itemIdx, ok := c.board.Locate(id)
	if !ok {
		return models.Card{}, false
	}
	return c.board.Columns[colIdx].Items[itemIdx].Clone(), true
}

// AddCard creates a card from draft at the end of column
func (c *Controller) AddCard(ctx context.Context, column models.ColumnID, draft models.Draft) (models.Card, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return models.Card{}, invalid("title", err)
	}
	if !models.IsValidColumn(column) || !column.Visible() {
		return models.Card{}, invalid("column", fmt.Errorf("%w: %q", repository.ErrInvalidColumn, column))
	}
	card := draft.ToCard(c.owner, column)
	if err := card.Validate(); err != nil {
		return models.Card{}, invalid("images", err)
	}

	created, err := c.repo.CreateCard(ctx, card)
	if err != nil {
		c.log.Warn("create failed", zap.String("title", card.Title), zap.Error(err))
		return models.Card{}, &PersistenceError{Op: OpCreate, Err: err}
	}

	c.mu.Lock()
	col := c.board.GetColumn(column)
	created.ColumnID = column
	col.Items = operations.Append(col.Items, created)
	c.mu.Unlock()

	c.log.Debug("card created", zap.String("card", created.ID), zap.String("column", string(column)))
	c.bus.Publish(events.Event{Type: events.CardCreated, CardID: created.ID, Column: column})
	return created.Clone(), nil
}

// EditCard applies patch locally, then persists it. On a repository failure
// the returned card is the local one and the error is a *PersistenceError.
func (c *Controller) EditCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	patch, err := patch.Normalize()
	if err != nil {
		return models.Card{}, invalid(patchField(err), err)
	}

	c.mu.Lock()
	card, ok := c.cardLocked(id)
	if !ok {
		c.mu.Unlock()
		return models.Card{}, fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	if patch.IsEmpty() {
		c.mu.Unlock()
		return card, nil
	}
	patch.Apply(&card)
	operations.ReplaceCard(&c.board, card)
	c.mu.Unlock()

	stored, err := c.repo.UpdateCard(ctx, id, patch)
	if err != nil {
		c.markUnsynced(id, OpUpdate, err)
		return card, &PersistenceError{Op: OpUpdate, CardID: id, Err: err}
	}

	c.mu.Lock()
	if _, _, ok := c.board.Locate(id); ok {
		operations.ReplaceCard(&c.board, stored)
	}
	delete(c.unsynced, id)
	card, _ = c.cardLocked(id)
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardUpdated, CardID: id, Column: card.ColumnID})
	return card, nil
}

func patchField(err error) string {
	if errors.Is(err, models.ErrInvalidImage) {
		return "images"
	}
	return "title"
}

// ArchiveCard moves a card to the archived column, recording an undo entry
func (c *Controller) ArchiveCard(ctx context.Context, id string) error {
	c.mu.Lock()
	colIdx, itemIdx, ok := c.board.Locate(id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	from := c.board.Columns[colIdx].ID
	if from == models.ColumnArchived {
		c.mu.Unlock()
		return nil
	}
	card := c.board.Columns[colIdx].Items[itemIdx]
	c.undo.RecordArchive(card, from, itemIdx)
	operations.RemoveCard(&c.board, id)
	operations.InsertCard(&c.board, card, models.ColumnArchived, len(c.board.GetColumn(models.ColumnArchived).Items))
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardArchived, CardID: id, Column: models.ColumnArchived})

	if err := c.repo.MoveCard(ctx, id, models.ColumnArchived); err != nil {
		c.markUnsynced(id, OpArchive, err)
		return &PersistenceError{Op: OpArchive, CardID: id, Err: err}
	}
	c.markSynced(id)
	c.log.Debug("card archived", zap.String("card", id), zap.String("from", string(from)))
	return nil
}

// DeleteCard removes a card, recording an undo entry
func (c *Controller) DeleteCard(ctx context.Context, id string) error {
	c.mu.Lock()
	card, col, idx, ok := operations.RemoveCard(&c.board, id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	card.ColumnID = col
	c.undo.RecordDelete(card, idx)
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardDeleted, CardID: id, Column: col})

	if err := c.repo.DeleteCard(ctx, id); err != nil {
		c.markUnsynced(id, OpDelete, err)
		return &PersistenceError{Op: OpDelete, CardID: id, Err: err}
	}
	c.markSynced(id)
	c.log.Debug("card deleted", zap.String("card", id))
	return nil
}

// MoveCard applies a drag gesture. Reordering inside a column is kept in
// memory only; a column change is persisted.
func (c *Controller) MoveCard(ctx context.Context, g operations.Gesture) (operations.MoveResult, error) {
	c.mu.Lock()
	next, res, err := operations.ApplyMove(c.board, g)
	if err != nil {
		c.mu.Unlock()
		return operations.MoveResult{}, invalid("gesture", err)
	}
	if !res.Changed {
		c.mu.Unlock()
		return res, nil
	}
	c.board = next
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardMoved, CardID: res.Card.ID, Column: res.To})
	if !res.ColumnChanged {
		return res, nil
	}

	if err := c.repo.MoveCard(ctx, res.Card.ID, res.To); err != nil {
		c.markUnsynced(res.Card.ID, OpMove, err)
		return res, &PersistenceError{Op: OpMove, CardID: res.Card.ID, Err: err}
	}
	c.markSynced(res.Card.ID)
	return res, nil
}

// RestoreArchive reverses the last archive if it is still within the undo
// window. Nothing to restore is not an error.
func (c *Controller) RestoreArchive(ctx context.Context) (bool, error) {
	entry, ok := c.undo.Take(undo.KindArchive)
	if !ok {
		return false, nil
	}
	id := entry.Card.ID

	c.mu.Lock()
	card, _, _, found := operations.RemoveCard(&c.board, id)
	if !found {
		c.mu.Unlock()
		c.log.Debug("archived card no longer on board", zap.String("card", id))
		return false, nil
	}
	if _, err := operations.InsertCard(&c.board, card, entry.ColumnID, entry.Index); err != nil {
		operations.InsertCard(&c.board, card, models.ColumnArchived, len(c.board.GetColumn(models.ColumnArchived).Items))
		c.mu.Unlock()
		return false, err
	}
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardRestored, CardID: id, Column: entry.ColumnID})

	if err := c.repo.MoveCard(ctx, id, entry.ColumnID); err != nil {
		c.markUnsynced(id, OpRestore, err)
		return true, &PersistenceError{Op: OpRestore, CardID: id, Err: err}
	}
	c.markSynced(id)
	return true, nil
}

// RestoreDelete re-creates the last deleted card, with its original id, at
// its prior position
func (c *Controller) RestoreDelete(ctx context.Context) (bool, error) {
	entry, ok := c.undo.Take(undo.KindDelete)
	if !ok {
		return false, nil
	}
	card := entry.Card
	card.ColumnID = entry.ColumnID

	c.mu.Lock()
	if _, _, exists := c.board.Locate(card.ID); exists {
		c.mu.Unlock()
		return false, nil
	}
	if _, err := operations.InsertCard(&c.board, card, entry.ColumnID, entry.Index); err != nil {
		c.mu.Unlock()
		return false, err
	}
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.CardRestored, CardID: card.ID, Column: entry.ColumnID})

	created, err := c.repo.CreateCard(ctx, card)
	if err != nil {
		c.markUnsynced(card.ID, OpRestore, err)
		return true, &PersistenceError{Op: OpRestore, CardID: card.ID, Err: err}
	}

	c.mu.Lock()
	operations.ReplaceCard(&c.board, created)
	delete(c.unsynced, card.ID)
	c.mu.Unlock()
	return true, nil
}

// PendingUndo returns the live undo entry of kind, if any
func (c *Controller) PendingUndo(kind undo.Kind) (undo.Entry, bool) {
	return c.undo.Peek(kind)
}

// UndoRemaining returns how long the entry of kind stays restorable
func (c *Controller) UndoRemaining(kind undo.Kind) time.Duration {
	return c.undo.Remaining(kind)
}

// Unsynced returns the ids of cards whose last write failed, sorted
func (c *Controller) Unsynced() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.unsynced))
	for id := range c.unsynced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsUnsynced reports whether the last write for id failed
func (c *Controller) IsUnsynced(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.unsynced[id]
	return ok
}

func (c *Controller) markUnsynced(id string, op Op, err error) {
	c.log.Warn("repository write failed, keeping local state",
		zap.String("op", string(op)), zap.String("card", id), zap.Error(err))

	c.mu.Lock()
	c.unsynced[id] = err
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.SyncFailed, CardID: id, Err: err})
}

func (c *Controller) markSynced(id string) {
	c.mu.Lock()
	delete(c.unsynced, id)
	c.mu.Unlock()
}

// Subscribe returns a channel of board events
func (c *Controller) Subscribe() <-chan events.Event {
	return c.bus.Subscribe()
}

// Unsubscribe stops delivery to ch
func (c *Controller) Unsubscribe(ch <-chan events.Event) {
	c.bus.Unsubscribe(ch)
}

// Close cancels undo timers and closes every event subscription
func (c *Controller) Close() {
	c.undo.Close()
	c.bus.Close()
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"

	"github.com/google/uuid"
)

var _ repository.CardRepository = (*Repository)(nil)

// Repository is a map-backed CardRepository
type Repository struct {
	mu    sync.RWMutex
	cards map[string]stored
	seq   int
	now   func() time.Time
}

type stored struct {
	card  models.Card
	order int
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{
		cards: make(map[string]stored),
		now:   time.Now,
	}
}

// ListCards returns the owner's cards in insertion/move order
func (r *Repository) ListCards(ctx context.Context, ownerID string) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]stored, 0, len(r.cards))
	for _, s := range r.cards {
		if s.card.OwnerID == ownerID {
			entries = append(entries, s)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	cards := make([]models.Card, len(entries))
	for i, s := range entries {
		cards[i] = s.card.Clone()
	}
	return cards, nil
}

// CreateCard stores card, generating an id if needed
func (r *Repository) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	if err := ctx.Err(); err != nil {
		return models.Card{}, err
	}
	if !models.IsValidColumn(card.ColumnID) {
		return models.Card{}, fmt.Errorf("%w: %q", repository.ErrInvalidColumn, card.ColumnID)
	}
	if err := card.Validate(); err != nil {
		return models.Card{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	now := r.now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	r.seq++
	r.cards[card.ID] = stored{card: card.Clone(), order: r.seq}
	return card, nil
}

// UpdateCard applies patch to the stored card
func (r *Repository) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	if err := ctx.Err(); err != nil {
		return models.Card{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.cards[id]
	if !ok {
		return models.Card{}, repository.ErrCardNotFound
	}

	card := s.card.Clone()
	patch.Apply(&card)
	if err := card.Validate(); err != nil {
		return models.Card{}, err
	}
	card.UpdatedAt = r.now()

	s.card = card
	r.cards[id] = s
	return card.Clone(), nil
}

// DeleteCard removes a card
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[id]; !ok {
		return repository.ErrCardNotFound
	}
	delete(r.cards, id)
	return nil
}

// MoveCard sets the card's column and sends it to the end of the listing order
func (r *Repository) MoveCard(ctx context.Context, id string, column models.ColumnID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !models.IsValidColumn(column) {
		return fmt.Errorf("%w: %q", repository.ErrInvalidColumn, column)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.cards[id]
	if !ok {
		return repository.ErrCardNotFound
	}
	s.card.ColumnID = column
	s.card.UpdatedAt = r.now()
	r.seq++
	s.order = r.seq
	r.cards[id] = s
	return nil
}

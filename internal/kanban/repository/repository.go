package repository

import (
	"context"
	"errors"

	"planner/internal/kanban/models"
)

var (
	// ErrCardNotFound is returned when no card has the requested id
	ErrCardNotFound = errors.New("card not found")
	// ErrInvalidColumn is returned for a column id outside the fixed set
	ErrInvalidColumn = errors.New("invalid column")
)

// CardRepository is the durable store behind a board.
// Implementations own ids and timestamps.
type CardRepository interface {
	// ListCards returns every card of the owner, archived included
	ListCards(ctx context.Context, ownerID string) ([]models.Card, error)

	// CreateCard stores a new card. An empty ID is generated; a provided one is kept.
	CreateCard(ctx context.Context, card models.Card) (models.Card, error)

	// UpdateCard applies patch and returns the stored card
	UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error)

	// DeleteCard removes a card
	DeleteCard(ctx context.Context, id string) error

	// MoveCard changes the column of a card
	MoveCard(ctx context.Context, id string, column models.ColumnID) error
}

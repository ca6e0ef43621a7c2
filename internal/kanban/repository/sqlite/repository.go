package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ repository.CardRepository = (*Repository)(nil)

type cardRecord struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	ColumnID  string `gorm:"index"`
	Position  int
	Title     string
	Notes     string
	Checklist []models.ChecklistItem `gorm:"serializer:json"`
	Links     []string               `gorm:"serializer:json"`
	Images    []string               `gorm:"serializer:json"`
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cardRecord) TableName() string { return "cards" }

// Repository stores cards in a sqlite database through gorm
type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to the database at path and migrates the schema
func Open(path string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&cardRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("sqlite card store ready", zap.String("path", path))
	return &Repository{db: db, log: log}, nil
}

// Close releases the underlying connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListCards returns the owner's cards ordered by position within their column
func (r *Repository) ListCards(ctx context.Context, ownerID string) ([]models.Card, error) {
	var records []cardRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("position asc, created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	cards := make([]models.Card, len(records))
	for i, rec := range records {
		cards[i] = rec.toCard()
	}
	return cards, nil
}

// CreateCard inserts a card at the end of its column
func (r *Repository) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	if !models.IsValidColumn(card.ColumnID) {
		return models.Card{}, fmt.Errorf("%w: %q", repository.ErrInvalidColumn, card.ColumnID)
	}
	if err := card.Validate(); err != nil {
		return models.Card{}, err
	}
	if card.ID == "" {
		card.ID = uuid.New().String()
	}

	rec := fromCard(card)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, card.OwnerID, card.ColumnID)
		if err != nil {
			return err
		}
		rec.Position = pos
		return tx.Create(&rec).Error
	})
	if err != nil {
		return models.Card{}, fmt.Errorf("create card: %w", err)
	}

	r.log.Debug("card created", zap.String("id", rec.ID), zap.String("column", rec.ColumnID))
	return rec.toCard(), nil
}

// UpdateCard applies patch to the stored card
func (r *Repository) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	var out models.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findCard(tx, id)
		if err != nil {
			return err
		}
		card := rec.toCard()
		patch.Apply(&card)
		if err := card.Validate(); err != nil {
			return err
		}

		next := fromCard(card)
		next.Position = rec.Position
		next.CreatedAt = rec.CreatedAt
		next.UpdatedAt = time.Now()
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next.toCard()
		return nil
	})
	if err != nil {
		return models.Card{}, fmt.Errorf("update card %s: %w", id, err)
	}
	return out, nil
}

// DeleteCard removes a card
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&cardRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete card %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrCardNotFound
	}
	return nil
}

// MoveCard sets the card's column and puts it last in that column
func (r *Repository) MoveCard(ctx context.Context, id string, column models.ColumnID) error {
	if !models.IsValidColumn(column) {
		return fmt.Errorf("%w: %q", repository.ErrInvalidColumn, column)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findCard(tx, id)
		if err != nil {
			return err
		}
		pos, err := nextPosition(tx, rec.OwnerID, column)
		if err != nil {
			return err
		}
		return tx.Model(&rec).Updates(map[string]any{
			"column_id": string(column),
			"position":  pos,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("move card %s: %w", id, err)
	}
	return nil
}

func findCard(tx *gorm.DB, id string) (cardRecord, error) {
	var rec cardRecord
	if err := tx.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cardRecord{}, repository.ErrCardNotFound
		}
		return cardRecord{}, err
	}
	return rec, nil
}

func nextPosition(tx *gorm.DB, ownerID string, column models.ColumnID) (int, error) {
	var pos int
	err := tx.Model(&cardRecord{}).
		Where("owner_id = ? AND column_id = ?", ownerID, string(column)).
		Select("COALESCE(MAX(position), 0) + 1").
		Scan(&pos).Error
	if err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return pos, nil
}

func fromCard(c models.Card) cardRecord {
	return cardRecord{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		ColumnID:  string(c.ColumnID),
		Title:     c.Title,
		Notes:     c.Notes,
		Checklist: c.Checklist,
		Links:     c.Links,
		Images:    c.Images,
		DueDate:   c.DueDate,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (rec cardRecord) toCard() models.Card {
	return models.Card{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		ColumnID:  models.ColumnID(rec.ColumnID),
		Title:     rec.Title,
		Notes:     rec.Notes,
		Checklist: rec.Checklist,
		Links:     rec.Links,
		Images:    rec.Images,
		DueDate:   rec.DueDate,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

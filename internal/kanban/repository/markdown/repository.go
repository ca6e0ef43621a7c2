// Package markdown stores boards as plain files: one board.md per owner
// listing card links under a heading per column, and one markdown file per
// card with YAML frontmatter.
package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"planner/internal/kanban/models"
	"planner/internal/kanban/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ repository.CardRepository = (*Repository)(nil)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Repository is a CardRepository over a directory tree:
//
//	<root>/<owner>/board.md
//	<root>/<owner>/cards/<id>.md
type Repository struct {
	mu   sync.Mutex
	root string
	log  *zap.Logger
	now  func() time.Time
}

// NewRepository creates root if needed
func NewRepository(root string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &Repository{root: root, log: log, now: time.Now}, nil
}

// ListCards reads the owner's board.md and every card it links to
func (r *Repository) ListCards(ctx context.Context, ownerID string) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.ownerDir(ownerID)
	board, err := readBoard(dir, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}

	var cards []models.Card
	for _, column := range columnOrder() {
		for _, id := range board.Columns[column] {
			card, err := readCard(cardPath(dir, id))
			if err != nil {
				// board.md may reference a card file removed by hand
				r.log.Warn("skipping unreadable card", zap.String("id", id), zap.Error(err))
				continue
			}
			if card.OwnerID != "" && card.OwnerID != ownerID {
				r.log.Warn("skipping card of another owner", zap.String("id", id), zap.String("owner", card.OwnerID))
				continue
			}
			card.ID = id
			card.ColumnID = column
			card.OwnerID = ownerID
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// CreateCard writes the card file and appends a link to its column
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
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	if !validID.MatchString(card.ID) {
		return models.Card{}, fmt.Errorf("invalid card id %q", card.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.ownerDir(card.OwnerID)
	if err := os.MkdirAll(filepath.Join(dir, "cards"), 0755); err != nil {
		return models.Card{}, err
	}

	now := r.now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	if err := writeCard(card, cardPath(dir, card.ID)); err != nil {
		return models.Card{}, fmt.Errorf("write card: %w", err)
	}

	board, err := readBoard(dir, card.OwnerID)
	if err != nil {
		return models.Card{}, fmt.Errorf("read board: %w", err)
	}
	board.remove(card.ID)
	board.append(card.ColumnID, card.ID, card.Title)
	if err := writeBoard(dir, board); err != nil {
		return models.Card{}, fmt.Errorf("write board: %w", err)
	}

	r.log.Debug("card created", zap.String("id", card.ID), zap.String("column", string(card.ColumnID)))
	return card, nil
}

// UpdateCard rewrites the card file, and board.md when the title changed
func (r *Repository) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	if err := ctx.Err(); err != nil {
		return models.Card{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := r.findOwnerDir(id)
	if err != nil {
		return models.Card{}, err
	}
	board, err := readBoard(dir, "")
	if err != nil {
		return models.Card{}, fmt.Errorf("read board: %w", err)
	}
	card, err := readCard(cardPath(dir, id))
	if err != nil {
		return models.Card{}, fmt.Errorf("read card: %w", err)
	}
	card.ID = id
	if col, _, ok := board.columnOf(id); ok {
		card.ColumnID = col
	}

	oldTitle := card.Title
	patch.Apply(&card)
	if err := card.Validate(); err != nil {
		return models.Card{}, err
	}
	card.UpdatedAt = r.now()

	if err := writeCard(card, cardPath(dir, id)); err != nil {
		return models.Card{}, fmt.Errorf("write card: %w", err)
	}
	if card.Title != oldTitle {
		board.Titles[id] = card.Title
		if err := writeBoard(dir, board); err != nil {
			return models.Card{}, fmt.Errorf("write board: %w", err)
		}
	}
	return card, nil
}

// DeleteCard removes the card file and its link
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := r.findOwnerDir(id)
	if err != nil {
		return err
	}
	if err := os.Remove(cardPath(dir, id)); err != nil && !os.IsNotExist(err) {
		return err
	}

	board, err := readBoard(dir, "")
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	board.remove(id)
	return writeBoard(dir, board)
}

// MoveCard moves the card's link to the end of column
func (r *Repository) MoveCard(ctx context.Context, id string, column models.ColumnID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !models.IsValidColumn(column) {
		return fmt.Errorf("%w: %q", repository.ErrInvalidColumn, column)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := r.findOwnerDir(id)
	if err != nil {
		return err
	}
	board, err := readBoard(dir, "")
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	title := board.Titles[id]
	board.remove(id)
	board.append(column, id, title)
	return writeBoard(dir, board)
}

// findOwnerDir locates the owner directory holding cards/<id>.md
func (r *Repository) findOwnerDir(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", repository.ErrCardNotFound
	}
	matches, err := filepath.Glob(filepath.Join(r.root, "*", "cards", id+".md"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", repository.ErrCardNotFound
	}
	return filepath.Dir(filepath.Dir(matches[0])), nil
}

// ownerDir keeps a readable slug of the owner id and appends a hash of the
// exact id, so owners differing only in case or punctuation never share a
// directory, even on case-insensitive filesystems.
func (r *Repository) ownerDir(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return filepath.Join(r.root, sanitizeName(ownerID)+"-"+hex.EncodeToString(sum[:4]))
}

func cardPath(dir, id string) string {
	return filepath.Join(dir, "cards", id+".md")
}

func columnOrder() []models.ColumnID {
	cols := models.DefaultColumns()
	ids := make([]models.ColumnID, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}

func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	reg := regexp.MustCompile("[^a-z0-9_-]+")
	name = reg.ReplaceAllString(name, "")

	reg = regexp.MustCompile("-+")
	name = reg.ReplaceAllString(name, "-")

	name = strings.Trim(name, "-")
	if name == "" {
		return "default"
	}
	return name
}

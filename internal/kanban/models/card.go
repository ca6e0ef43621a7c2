package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrEmptyTitle is returned when a card title is blank after trimming
	ErrEmptyTitle = errors.New("title cannot be empty")
	// ErrInvalidImage is returned when an image entry is not an upload result
	ErrInvalidImage = errors.New("image is not an uploaded url")
)

// ChecklistItem is a single line of a card checklist
type ChecklistItem struct {
	Text    string `yaml:"text" json:"text"`
	Checked bool   `yaml:"checked,omitempty" json:"checked"`
}

// Card is the atomic unit of planned content
type Card struct {
	ID        string          // Assigned by the repository, immutable
	OwnerID   string          // Owner of the board the card lives on
	ColumnID  ColumnID        // Column currently holding the card
	Title     string          // Required, non-empty after trim
	Notes     string          // Free text
	Checklist []ChecklistItem // Ordered
	Links     []string        // Ordered, blanks pruned on save
	Images    []string        // URLs returned by the uploader
	DueDate   *time.Time      // nil = no due date
	CreatedAt time.Time       // Set by the repository
	UpdatedAt time.Time       // Set by the repository
}

// Validate checks that the card may be persisted
func (c Card) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	for i, img := range c.Images {
		if !IsUploadURL(img) {
			return fmt.Errorf("image %d: %w", i, ErrInvalidImage)
		}
	}
	return nil
}

// Clone returns a deep copy of the card
func (c Card) Clone() Card {
	out := c
	if c.Checklist != nil {
		out.Checklist = append([]ChecklistItem(nil), c.Checklist...)
	}
	if c.Links != nil {
		out.Links = append([]string(nil), c.Links...)
	}
	if c.Images != nil {
		out.Images = append([]string(nil), c.Images...)
	}
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	return out
}

// HasDueDate returns true if the card has a due date
func (c Card) HasDueDate() bool {
	return c.DueDate != nil
}

// ChecklistProgress returns (checked, total)
func (c Card) ChecklistProgress() (int, int) {
	done := 0
	for _, item := range c.Checklist {
		if item.Checked {
			done++
		}
	}
	return done, len(c.Checklist)
}

// ValidateTitle trims the title and rejects blank ones
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}

// PruneLinks drops blank entries, keeping order
func PruneLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// IsUploadURL reports whether s looks like a URL handed back by an uploader:
// an absolute http(s) URL with a host, or a file URL with an absolute path
// for uploads kept on local disk.
func IsUploadURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return (u.Host == "" || u.Host == "localhost") && strings.HasPrefix(u.Path, "/")
	}
	return false
}

// Draft holds the fields of a card that has not been created yet
type Draft struct {
	Title     string
	Notes     string
	Checklist []ChecklistItem
	Links     []string
	Images    []string
	DueDate   *time.Time
}

// Normalize trims the title and prunes blank links
func (d Draft) Normalize() (Draft, error) {
	title, err := ValidateTitle(d.Title)
	if err != nil {
		return Draft{}, err
	}
	d.Title = title
	d.Links = PruneLinks(d.Links)
	return d, nil
}

// ToCard builds an unsaved card in the given column
func (d Draft) ToCard(ownerID string, column ColumnID) Card {
	c := Card{
		OwnerID:   ownerID,
		ColumnID:  column,
		Title:     d.Title,
		Notes:     d.Notes,
		Checklist: d.Checklist,
		Links:     d.Links,
		Images:    d.Images,
		DueDate:   d.DueDate,
	}
	return c.Clone()
}

// CardPatch describes an edit. Nil fields are left untouched.
type CardPatch struct {
	Title        *string
	Notes        *string
	Checklist    *[]ChecklistItem
	Links        *[]string
	Images       *[]string
	DueDate      *time.Time
	ClearDueDate bool
}

// IsEmpty returns true if the patch changes nothing
func (p CardPatch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.Checklist == nil && p.Links == nil &&
		p.Images == nil && p.DueDate == nil && !p.ClearDueDate
}

// Normalize validates a provided title and prunes blank links
func (p CardPatch) Normalize() (CardPatch, error) {
	if p.Title != nil {
		title, err := ValidateTitle(*p.Title)
		if err != nil {
			return CardPatch{}, err
		}
		p.Title = &title
	}
	if p.Links != nil {
		links := PruneLinks(*p.Links)
		p.Links = &links
	}
	if p.Images != nil {
		for i, img := range *p.Images {
			if !IsUploadURL(img) {
				return CardPatch{}, fmt.Errorf("image %d: %w", i, ErrInvalidImage)
			}
		}
	}
	return p, nil
}

// Apply writes the provided fields onto card
func (p CardPatch) Apply(card *Card) {
	if p.Title != nil {
		card.Title = *p.Title
	}
	if p.Notes != nil {
		card.Notes = *p.Notes
	}
	if p.Checklist != nil {
		card.Checklist = append([]ChecklistItem{}, (*p.Checklist)...)
	}
	if p.Links != nil {
		card.Links = append([]string{}, (*p.Links)...)
	}
	if p.Images != nil {
		card.Images = append([]string{}, (*p.Images)...)
	}
	if p.ClearDueDate {
		card.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		card.DueDate = &d
	}
}

// PatchFromCard builds a patch that sets every editable field of card
func PatchFromCard(card Card) CardPatch {
	title := card.Title
	notes := card.Notes
	checklist := append([]ChecklistItem{}, card.Checklist...)
	links := append([]string{}, card.Links...)
	images := append([]string{}, card.Images...)
	p := CardPatch{
		Title:     &title,
		Notes:     &notes,
		Checklist: &checklist,
		Links:     &links,
		Images:    &images,
	}
	if card.DueDate != nil {
		d := *card.DueDate
		p.DueDate = &d
	} else {
		p.ClearDueDate = true
	}
	return p
}

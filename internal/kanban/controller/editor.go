package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"planner/internal/kanban/attachments"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
	"planner/internal/kanban/repository"
)

var (
	// ErrEditorClosed is returned by editor operations when no card is open
	ErrEditorClosed = errors.New("editor is closed")
	// ErrWrongSubMode is returned when an item operation does not apply to the active sub-mode
	ErrWrongSubMode = errors.New("operation not available in this sub-mode")
)

// EditorMode is the top-level state of the card editor
type EditorMode int

const (
	EditorClosed EditorMode = iota
	EditorCreating
	EditorEditing
)

func (m EditorMode) String() string {
	switch m {
	case EditorCreating:
		return "creating"
	case EditorEditing:
		return "editing"
	}
	return "closed"
}

// SubMode selects which list the item operations target
type SubMode int

const (
	SubModeChecklist SubMode = iota
	SubModeLink
	SubModeImage
	SubModeNotes
)

func (s SubMode) String() string {
	switch s {
	case SubModeChecklist:
		return "checklist"
	case SubModeLink:
		return "link"
	case SubModeImage:
		return "image"
	case SubModeNotes:
		return "notes"
	}
	return "unknown"
}

type editorState struct {
	mode    EditorMode
	sub     SubMode
	column  models.ColumnID
	cardID  string
	draft   models.Draft
	session uint64
}

// Editor is a snapshot of the card editor
type Editor struct {
	Mode    EditorMode
	SubMode SubMode
	Column  models.ColumnID // Target column while creating, current column while editing
	CardID  string          // Empty while creating
	Draft   models.Draft
}

func draftFromCard(card models.Card) models.Draft {
	card = card.Clone()
	return models.Draft{
		Title:     card.Title,
		Notes:     card.Notes,
		Checklist: card.Checklist,
		Links:     card.Links,
		Images:    card.Images,
		DueDate:   card.DueDate,
	}
}

func cloneDraft(d models.Draft) models.Draft {
	return draftFromCard(d.ToCard("", ""))
}

// Editor returns the current editor state
func (c *Controller) Editor() Editor {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.editor
	return Editor{
		Mode:    e.mode,
		SubMode: e.sub,
		Column:  e.column,
		CardID:  e.cardID,
		Draft:   cloneDraft(e.draft),
	}
}

// OpenCreate opens an empty editor for a new card in column, discarding any
// editor already open
func (c *Controller) OpenCreate(column models.ColumnID) error {
	if !models.IsValidColumn(column) || !column.Visible() {
		return invalid("column", fmt.Errorf("%w: %q", repository.ErrInvalidColumn, column))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor = editorState{
		mode:    EditorCreating,
		column:  column,
		session: c.editor.session + 1,
	}
	return nil
}

// OpenEdit opens the editor on an existing card
func (c *Controller) OpenEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.cardLocked(id)
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	c.editor = editorState{
		mode:    EditorEditing,
		column:  card.ColumnID,
		cardID:  id,
		draft:   draftFromCard(card),
		session: c.editor.session + 1,
	}
	return nil
}

// withEditor runs f on the open editor under the lock
func (c *Controller) withEditor(f func(e *editorState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editor.mode == EditorClosed {
		return ErrEditorClosed
	}
	return f(&c.editor)
}

// SetSubMode switches the list targeted by the item operations
func (c *Controller) SetSubMode(sub SubMode) error {
	return c.withEditor(func(e *editorState) error {
		e.sub = sub
		return nil
	})
}

// SetTitle sets the draft title. It is validated on Save.
func (c *Controller) SetTitle(title string) error {
	return c.withEditor(func(e *editorState) error {
		e.draft.Title = title
		return nil
	})
}

// SetNotes sets the draft notes
func (c *Controller) SetNotes(notes string) error {
	return c.withEditor(func(e *editorState) error {
		e.draft.Notes = notes
		return nil
	})
}

// SetDueDate sets or, with nil, clears the draft due date
func (c *Controller) SetDueDate(due *time.Time) error {
	return c.withEditor(func(e *editorState) error {
		if due == nil {
			e.draft.DueDate = nil
			return nil
		}
		d := *due
		e.draft.DueDate = &d
		return nil
	})
}

// AddItem appends text to the checklist or link list, per sub-mode
func (c *Controller) AddItem(text string) error {
	text = strings.TrimSpace(text)
	return c.withEditor(func(e *editorState) error {
		// blank links are kept in the draft and pruned on save
		if text == "" && e.sub == SubModeChecklist {
			return invalid(e.sub.String(), ErrEmptyItem)
		}
		switch e.sub {
		case SubModeChecklist:
			e.draft.Checklist = operations.Append(e.draft.Checklist, models.ChecklistItem{Text: text})
		case SubModeLink:
			e.draft.Links = operations.Append(e.draft.Links, text)
		default:
			return fmt.Errorf("%w: add in %s", ErrWrongSubMode, e.sub)
		}
		return nil
	})
}

// UpdateItem replaces the text of item index in the active list
func (c *Controller) UpdateItem(index int, text string) error {
	text = strings.TrimSpace(text)
	return c.withEditor(func(e *editorState) error {
		// blank links are kept in the draft and pruned on save
		if text == "" && e.sub == SubModeChecklist {
			return invalid(e.sub.String(), ErrEmptyItem)
		}
		switch e.sub {
		case SubModeChecklist:
			if index < 0 || index >= len(e.draft.Checklist) {
				return indexErr("checklist", operations.ErrIndexOutOfRange, index)
			}
			item := e.draft.Checklist[index]
			item.Text = text
			e.draft.Checklist, _ = operations.ReplaceAt(e.draft.Checklist, index, item)
		case SubModeLink:
			links, err := operations.ReplaceAt(e.draft.Links, index, text)
			if err != nil {
				return indexErr("link", err, index)
			}
			e.draft.Links = links
		default:
			return fmt.Errorf("%w: update in %s", ErrWrongSubMode, e.sub)
		}
		return nil
	})
}

// RemoveItem drops item index from the active list
func (c *Controller) RemoveItem(index int) error {
	return c.withEditor(func(e *editorState) error {
		var err error
		switch e.sub {
		case SubModeChecklist:
			var items []models.ChecklistItem
			if items, err = operations.Remove(e.draft.Checklist, index); err == nil {
				e.draft.Checklist = items
			}
		case SubModeLink:
			var links []string
			if links, err = operations.Remove(e.draft.Links, index); err == nil {
				e.draft.Links = links
			}
		case SubModeImage:
			var images []string
			if images, err = operations.Remove(e.draft.Images, index); err == nil {
				e.draft.Images = images
			}
		default:
			return fmt.Errorf("%w: remove in %s", ErrWrongSubMode, e.sub)
		}
		if err != nil {
			return indexErr(e.sub.String(), err, index)
		}
		return nil
	})
}

// ToggleItem flips checklist item index
func (c *Controller) ToggleItem(index int) error {
	return c.withEditor(func(e *editorState) error {
		if e.sub != SubModeChecklist {
			return fmt.Errorf("%w: toggle in %s", ErrWrongSubMode, e.sub)
		}
		if index < 0 || index >= len(e.draft.Checklist) {
			return indexErr("checklist", operations.ErrIndexOutOfRange, index)
		}
		item := e.draft.Checklist[index]
		item.Checked = !item.Checked
		e.draft.Checklist, _ = operations.ReplaceAt(e.draft.Checklist, index, item)
		return nil
	})
}

// AttachImage uploads f and appends its URL to the draft. The upload runs
// without holding the lock; if the editor was closed or reopened meanwhile
// the URL is dropped.
func (c *Controller) AttachImage(ctx context.Context, f attachments.File) (string, error) {
	var session uint64
	if err := c.withEditor(func(e *editorState) error {
		session = e.session
		return nil
	}); err != nil {
		return "", err
	}

	url, err := c.upload(ctx, f)
	if err != nil {
		return "", err
	}

	err = c.withEditor(func(e *editorState) error {
		if e.session != session {
			return ErrEditorClosed
		}
		e.draft.Images = operations.Append(e.draft.Images, url)
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// Save commits the draft. Creating calls AddCard, editing calls EditCard with
// every field of the draft. The editor closes once the change is on the
// board, including when only the repository write failed while editing.
func (c *Controller) Save(ctx context.Context) (models.Card, error) {
	c.mu.Lock()
	e := c.editor
	e.draft = cloneDraft(e.draft)
	c.mu.Unlock()

	var (
		card   models.Card
		err    error
		closed bool
	)
	switch e.mode {
	case EditorCreating:
		card, err = c.AddCard(ctx, e.column, e.draft)
		closed = err == nil
	case EditorEditing:
		patch := models.PatchFromCard(e.draft.ToCard(c.owner, e.column))
		card, err = c.EditCard(ctx, e.cardID, patch)
		var perr *PersistenceError
		closed = err == nil || errors.As(err, &perr)
	default:
		return models.Card{}, ErrEditorClosed
	}

	if closed {
		c.mu.Lock()
		if c.editor.session == e.session {
			c.editor = editorState{session: e.session}
		}
		c.mu.Unlock()
	}
	return card, err
}

// Cancel closes the editor without saving
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor = editorState{session: c.editor.session}
}

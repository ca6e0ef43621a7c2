package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"planner/internal/kanban/attachments"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
	"planner/internal/kanban/repository"
)

// editContent reads the card, lets build derive a patch from it and persists
// the patch through EditCard
func (c *Controller) editContent(ctx context.Context, id string, build func(models.Card) (models.CardPatch, error)) (models.Card, error) {
	card, ok := c.Card(id)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	patch, err := build(card)
	if err != nil {
		return models.Card{}, err
	}
	return c.EditCard(ctx, id, patch)
}

func checklistPatch(items []models.ChecklistItem) models.CardPatch {
	return models.CardPatch{Checklist: &items}
}

func linksPatch(links []string) models.CardPatch {
	return models.CardPatch{Links: &links}
}

func imagesPatch(images []string) models.CardPatch {
	return models.CardPatch{Images: &images}
}

func indexErr(field string, err error, index int) error {
	return invalid(field, fmt.Errorf("%w: %d", err, index))
}

// AddChecklistItem appends an unchecked item
func (c *Controller) AddChecklistItem(ctx context.Context, id, text string) (models.Card, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Card{}, invalid("checklist", ErrEmptyItem)
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		return checklistPatch(operations.Append(card.Checklist, models.ChecklistItem{Text: text})), nil
	})
}

// UpdateChecklistItem replaces the text of item index, keeping its state
func (c *Controller) UpdateChecklistItem(ctx context.Context, id string, index int, text string) (models.Card, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Card{}, invalid("checklist", ErrEmptyItem)
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		if index < 0 || index >= len(card.Checklist) {
			return models.CardPatch{}, indexErr("checklist", operations.ErrIndexOutOfRange, index)
		}
		item := card.Checklist[index]
		item.Text = text
		items, _ := operations.ReplaceAt(card.Checklist, index, item)
		return checklistPatch(items), nil
	})
}

// RemoveChecklistItem drops item index
func (c *Controller) RemoveChecklistItem(ctx context.Context, id string, index int) (models.Card, error) {
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		items, err := operations.Remove(card.Checklist, index)
		if err != nil {
			return models.CardPatch{}, indexErr("checklist", err, index)
		}
		return checklistPatch(items), nil
	})
}

// ToggleChecklistItem flips the checked state of item index
func (c *Controller) ToggleChecklistItem(ctx context.Context, id string, index int) (models.Card, error) {
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		if index < 0 || index >= len(card.Checklist) {
			return models.CardPatch{}, indexErr("checklist", operations.ErrIndexOutOfRange, index)
		}
		item := card.Checklist[index]
		item.Checked = !item.Checked
		items, _ := operations.ReplaceAt(card.Checklist, index, item)
		return checklistPatch(items), nil
	})
}

// AddLink appends a link
func (c *Controller) AddLink(ctx context.Context, id, link string) (models.Card, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return models.Card{}, invalid("links", ErrEmptyItem)
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		return linksPatch(operations.Append(card.Links, link)), nil
	})
}

// UpdateLink replaces link index
func (c *Controller) UpdateLink(ctx context.Context, id string, index int, link string) (models.Card, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return models.Card{}, invalid("links", ErrEmptyItem)
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		links, err := operations.ReplaceAt(card.Links, index, link)
		if err != nil {
			return models.CardPatch{}, indexErr("links", err, index)
		}
		return linksPatch(links), nil
	})
}

// RemoveLink drops link index
func (c *Controller) RemoveLink(ctx context.Context, id string, index int) (models.Card, error) {
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		links, err := operations.Remove(card.Links, index)
		if err != nil {
			return models.CardPatch{}, indexErr("links", err, index)
		}
		return linksPatch(links), nil
	})
}

// upload runs f through the uploader. Rejections by the validator come back
// as a *ValidationError; storage failures are returned as is.
func (c *Controller) upload(ctx context.Context, f attachments.File) (string, error) {
	if c.uploader == nil {
		return "", ErrNoUploader
	}
	url, err := c.uploader.Upload(ctx, f)
	if err != nil {
		var rej *attachments.RejectionError
		if errors.As(err, &rej) {
			return "", invalid("images", err)
		}
		return "", err
	}
	return url, nil
}

// AddImage uploads f and appends its URL to the card
func (c *Controller) AddImage(ctx context.Context, id string, f attachments.File) (models.Card, error) {
	if _, ok := c.Card(id); !ok {
		return models.Card{}, fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	url, err := c.upload(ctx, f)
	if err != nil {
		return models.Card{}, err
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		return imagesPatch(operations.Append(card.Images, url)), nil
	})
}

// UpdateImage uploads f and replaces image index with it
func (c *Controller) UpdateImage(ctx context.Context, id string, index int, f attachments.File) (models.Card, error) {
	card, ok := c.Card(id)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %s", repository.ErrCardNotFound, id)
	}
	if index < 0 || index >= len(card.Images) {
		return models.Card{}, indexErr("images", operations.ErrIndexOutOfRange, index)
	}
	url, err := c.upload(ctx, f)
	if err != nil {
		return models.Card{}, err
	}
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		images, err := operations.ReplaceAt(card.Images, index, url)
		if err != nil {
			return models.CardPatch{}, indexErr("images", err, index)
		}
		return imagesPatch(images), nil
	})
}

// RemoveImage drops image index. The stored file is left alone.
func (c *Controller) RemoveImage(ctx context.Context, id string, index int) (models.Card, error) {
	return c.editContent(ctx, id, func(card models.Card) (models.CardPatch, error) {
		images, err := operations.Remove(card.Images, index)
		if err != nil {
			return models.CardPatch{}, indexErr("images", err, index)
		}
		return imagesPatch(images), nil
	})
}

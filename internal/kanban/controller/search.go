package controller

import (
	"strings"

	"planner/internal/kanban/models"

	"github.com/sahilm/fuzzy"
)

// SearchResult is a card matching a search query
type SearchResult struct {
	Card   models.Card
	Column models.ColumnID
	Index  int // Position in its column
	Score  int
}

// cardSearchString builds the text a card is matched against
func cardSearchString(card models.Card) string {
	parts := []string{card.Title}
	if card.Notes != "" {
		parts = append(parts, card.Notes)
	}
	for _, item := range card.Checklist {
		parts = append(parts, item.Text)
	}
	parts = append(parts, card.Links...)
	return strings.Join(parts, " ")
}

// Search fuzzy-matches query against the visible cards, best match first.
// An empty query returns nothing.
func (c *Controller) Search(query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	board := c.Board()
	var (
		texts []string
		refs  []SearchResult
	)
	for _, col := range board.VisibleColumns() {
		for i, card := range col.Items {
			texts = append(texts, cardSearchString(card))
			refs = append(refs, SearchResult{Card: card, Column: col.ID, Index: i})
		}
	}

	matches := fuzzy.Find(query, texts)
	results := make([]SearchResult, len(matches))
	for i, match := range matches {
		r := refs[match.Index]
		r.Score = match.Score
		results[i] = r
	}
	return results
}

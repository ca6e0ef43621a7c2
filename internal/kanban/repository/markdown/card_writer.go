package markdown

import (
	"bytes"
	"strings"
	"time"

	"planner/internal/kanban/models"

	"gopkg.in/yaml.v3"
)

// writeCard writes a card to a markdown file with frontmatter
func writeCard(card models.Card, path string) error {
	var buf bytes.Buffer

	fm := cardFrontmatter{
		ID:        card.ID,
		Owner:     card.OwnerID,
		Title:     card.Title,
		Checklist: card.Checklist,
		Links:     card.Links,
		Images:    card.Images,
		Created:   card.CreatedAt.Format(time.RFC3339Nano),
		Updated:   card.UpdatedAt.Format(time.RFC3339Nano),
	}
	if card.DueDate != nil {
		fm.Due = card.DueDate.Format(dateLayout)
	}

	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}

	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n\n")

	// a multi-line title would otherwise bleed into the notes
	buf.WriteString("# ")
	buf.WriteString(strings.Join(strings.Fields(card.Title), " "))
	buf.WriteString("\n")
	if card.Notes != "" {
		buf.WriteString("\n")
		buf.WriteString(card.Notes)
		buf.WriteString("\n")
	}

	return writeFileAtomic(path, buf.Bytes())
}

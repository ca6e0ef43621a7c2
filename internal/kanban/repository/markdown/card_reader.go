package markdown

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"planner/internal/kanban/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

type cardFrontmatter struct {
	ID        string                 `yaml:"id"`
	Owner     string                 `yaml:"owner"`
	Title     string                 `yaml:"title,omitempty"`
	Checklist []models.ChecklistItem `yaml:"checklist,omitempty"`
	Links     []string               `yaml:"links,omitempty"`
	Images    []string               `yaml:"images,omitempty"`
	Due       string                 `yaml:"due,omitempty"`
	Created   string                 `yaml:"created,omitempty"`
	Updated   string                 `yaml:"updated,omitempty"`
}

// readCard reads a card file. The column is not stored in the card; the
// caller sets it from board.md.
func readCard(cardPath string) (models.Card, error) {
	content, err := os.ReadFile(cardPath)
	if err != nil {
		return models.Card{}, err
	}

	fm, body, err := parseFrontmatter(content)
	if err != nil {
		return models.Card{}, fmt.Errorf("%s: %w", cardPath, err)
	}

	// The H1 is for people reading the file; markdown rendering loses
	// emphasis and code markers, so the frontmatter title wins.
	title := fm.Title
	if title == "" {
		title = extractTitle(body)
	}

	card := models.Card{
		ID:        fm.ID,
		OwnerID:   fm.Owner,
		Title:     title,
		Notes:     extractNotes(body),
		Checklist: fm.Checklist,
		Links:     fm.Links,
		Images:    fm.Images,
	}

	if fm.Due != "" {
		if parsed, err := time.Parse(dateLayout, fm.Due); err == nil {
			card.DueDate = &parsed
		}
	}
	if fm.Created != "" {
		card.CreatedAt, _ = time.Parse(time.RFC3339Nano, fm.Created)
	}
	if fm.Updated != "" {
		card.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fm.Updated)
	}

	return card, nil
}

// parseFrontmatter splits YAML frontmatter from the markdown body
func parseFrontmatter(content []byte) (cardFrontmatter, string, error) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return cardFrontmatter{}, string(content), nil
	}

	var frontmatterEnd int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == 0 {
		return cardFrontmatter{}, string(content), nil
	}

	var fm cardFrontmatter
	if err := yaml.Unmarshal(bytes.Join(lines[1:frontmatterEnd], []byte("\n")), &fm); err != nil {
		return cardFrontmatter{}, "", err
	}

	body := bytes.TrimLeft(bytes.Join(lines[frontmatterEnd+1:], []byte("\n")), "\n")
	return fm, string(body), nil
}

func extractTitle(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if heading.Level == 1 {
				title = string(n.Text([]byte(markdown)))
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})

	if title == "" {
		title = "Untitled"
	}

	return title
}

// extractNotes returns everything after the first H1 line
func extractNotes(markdown string) string {
	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			return strings.Trim(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return strings.Trim(markdown, "\n")
}

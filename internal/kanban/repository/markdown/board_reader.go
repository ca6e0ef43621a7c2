package markdown

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"planner/internal/kanban/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// boardFile is the parsed form of board.md: card ids in column order
type boardFile struct {
	Owner   string
	Columns map[models.ColumnID][]string
	Titles  map[string]string // link text per card id
}

func newBoardFile(owner string) boardFile {
	return boardFile{
		Owner:   owner,
		Columns: make(map[models.ColumnID][]string),
		Titles:  make(map[string]string),
	}
}

// readBoard parses <dir>/board.md. A missing file yields an empty board.
func readBoard(dir, owner string) (boardFile, error) {
	content, err := os.ReadFile(filepath.Join(dir, "board.md"))
	if errors.Is(err, os.ErrNotExist) {
		return newBoardFile(owner), nil
	}
	if err != nil {
		return boardFile{}, err
	}

	board := newBoardFile(owner)

	reader := text.NewReader(content)
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var current models.ColumnID

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := strings.TrimSpace(string(node.Text(content)))
			if node.Level == 1 {
				board.Owner = headingText
			} else if node.Level == 2 {
				current = models.ColumnID(headingText)
				if !models.IsValidColumn(current) {
					current = ""
				}
			}

		case *ast.Link:
			dest := string(node.Destination)
			if current != "" && (strings.HasPrefix(dest, "./cards/") || strings.HasPrefix(dest, "cards/")) {
				id := strings.TrimSuffix(filepath.Base(dest), ".md")
				board.Columns[current] = append(board.Columns[current], id)
				board.Titles[id] = unescapeLinkText(string(node.Text(content)))
			}
		}

		return ast.WalkContinue, nil
	})

	return board, nil
}

// columnOf returns the column holding id and its index
func (b boardFile) columnOf(id string) (models.ColumnID, int, bool) {
	for col, ids := range b.Columns {
		for i, cardID := range ids {
			if cardID == id {
				return col, i, true
			}
		}
	}
	return "", -1, false
}

func (b *boardFile) remove(id string) {
	col, i, ok := b.columnOf(id)
	if !ok {
		return
	}
	ids := b.Columns[col]
	b.Columns[col] = append(ids[:i:i], ids[i+1:]...)
	delete(b.Titles, id)
}

func (b *boardFile) append(col models.ColumnID, id, title string) {
	b.Columns[col] = append(b.Columns[col], id)
	b.Titles[id] = title
}

var linkTextUnescaper = strings.NewReplacer(`\[`, "[", `\]`, "]", `\\`, `\`)

func unescapeLinkText(s string) string {
	return linkTextUnescaper.Replace(s)
}

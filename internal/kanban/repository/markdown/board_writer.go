package markdown

import (
	"bytes"
	"os"
	"path/filepath"
)

// writeBoard writes board.md with one H2 per fixed column and one link per card
func writeBoard(dir string, board boardFile) error {
	var buf bytes.Buffer

	buf.WriteString("# ")
	buf.WriteString(board.Owner)
	buf.WriteString("\n\n")

	for _, column := range columnOrder() {
		buf.WriteString("## ")
		buf.WriteString(string(column))
		buf.WriteString("\n\n")

		for _, id := range board.Columns[column] {
			title := board.Titles[id]
			if title == "" {
				title = id
			}
			buf.WriteString("[")
			buf.WriteString(escapeLinkText(title))
			buf.WriteString("](./cards/")
			buf.WriteString(id)
			buf.WriteString(".md)\n\n")
		}
	}

	return writeFileAtomic(filepath.Join(dir, "board.md"), buf.Bytes())
}

func escapeLinkText(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '[' || r == ']' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// writeFileAtomic writes to a temp file next to path and renames it over path
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	title, err := ValidateTitle("  Draft reel  ")
	require.NoError(t, err)
	assert.Equal(t, "Draft reel", title)

	_, err = ValidateTitle("   \t")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestCard_Validate(t *testing.T) {
	card := Card{Title: "Launch post", Images: []string{"https://cdn.example.com/a.png"}}
	require.NoError(t, card.Validate())

	card.Images = append(card.Images, "C:\\Users\\me\\raw.png")
	assert.ErrorIs(t, card.Validate(), ErrInvalidImage)

	card = Card{Title: " "}
	assert.ErrorIs(t, card.Validate(), ErrEmptyTitle)
}

func TestPruneLinks(t *testing.T) {
	links := PruneLinks([]string{"https://a.example", "", "  ", " https://b.example "})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, links)
}

func TestDraft_Normalize(t *testing.T) {
	d, err := Draft{Title: " Hook ideas ", Links: []string{"", "https://x.example"}}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Hook ideas", d.Title)
	assert.Equal(t, []string{"https://x.example"}, d.Links)

	_, err = Draft{Title: ""}.Normalize()
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestCardPatch_NormalizeAndApply(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	card := Card{Title: "Old", Links: []string{"https://old.example"}, DueDate: &due}

	empty := "  "
	_, err := CardPatch{Title: &empty}.Normalize()
	assert.ErrorIs(t, err, ErrEmptyTitle)

	title := " New "
	links := []string{"", "https://new.example"}
	p, err := CardPatch{Title: &title, Links: &links, ClearDueDate: true}.Normalize()
	require.NoError(t, err)
	p.Apply(&card)

	assert.Equal(t, "New", card.Title)
	assert.Equal(t, []string{"https://new.example"}, card.Links)
	assert.Nil(t, card.DueDate)
}

func TestCardPatch_IsEmpty(t *testing.T) {
	assert.True(t, CardPatch{}.IsEmpty())
	notes := ""
	assert.False(t, CardPatch{Notes: &notes}.IsEmpty())
}

func TestCard_CloneIsDeep(t *testing.T) {
	due := time.Now()
	card := Card{Title: "A", Checklist: []ChecklistItem{{Text: "x"}}, DueDate: &due}
	cp := card.Clone()
	cp.Checklist[0].Checked = true
	*cp.DueDate = due.Add(time.Hour)

	assert.False(t, card.Checklist[0].Checked)
	assert.True(t, card.DueDate.Equal(due))
}

func TestBoard_LocateAndVisible(t *testing.T) {
	b := NewBoard("owner-1")
	b.GetColumn(ColumnArchived).Items = append(b.GetColumn(ColumnArchived).Items, Card{ID: "c1", Title: "Old"})

	col, idx, ok := b.Locate("c1")
	require.True(t, ok)
	assert.Equal(t, ColumnArchived, b.Columns[col].ID)
	assert.Equal(t, 0, idx)

	for _, c := range b.VisibleColumns() {
		assert.NotEqual(t, ColumnArchived, c.ID)
	}
	assert.Len(t, b.VisibleColumns(), 3)
	assert.False(t, IsValidColumn("published"))
}

func TestIsUploadURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://cdn.example.com/u/1.png", true},
		{"http://localhost:8080/1.png", true},
		{"file:///var/planner/uploads/1.png", true},
		{"file://localhost/var/planner/uploads/1.png", true},
		{"https:///1.png", false},
		{"http:1.png", false},
		{"file://host/1.png", false},
		{"file:uploads/1.png", false},
		{"/var/planner/uploads/1.png", false},
		{"ftp://example.com/1.png", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUploadURL(tt.in), tt.in)
	}
}

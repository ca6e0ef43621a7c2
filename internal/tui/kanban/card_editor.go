package kanban

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planner/internal/kanban/attachments"
	"planner/internal/kanban/controller"
	"planner/internal/kanban/models"
	"planner/internal/tui/theme"
)

type editorInput int

const (
	inputNone editorInput = iota
	inputTitle
	inputNotes
	inputAddItem
	inputEditItem
	inputImagePath
)

var subModes = []controller.SubMode{
	controller.SubModeChecklist,
	controller.SubModeLink,
	controller.SubModeImage,
	controller.SubModeNotes,
}

type editorSavedMsg struct {
	card models.Card
	err  error
}

type imageAttachedMsg struct {
	url string
	err error
}

// CardEditorModel is the modal that drives the controller's card editor.
// The draft itself lives in the controller; this model only holds the
// widgets and the cursor.
type CardEditorModel struct {
	ctx        context.Context
	ctrl       *controller.Controller
	input      textinput.Model
	inputKind  editorInput
	datePicker *DatePickerModel
	cursor     int
	busy       bool
	closed     bool
	saved      *models.Card
	err        error
	readFile   func(string) ([]byte, error)
	width      int
	height     int
}

// NewCardEditorModel wraps an editor the caller already opened with
// OpenCreate or OpenEdit. New cards start with the title prompt.
func NewCardEditorModel(ctx context.Context, ctrl *controller.Controller) CardEditorModel {
	m := CardEditorModel{
		ctx:      ctx,
		ctrl:     ctrl,
		readFile: os.ReadFile,
	}
	if ctrl.Editor().Mode == controller.EditorCreating {
		m.startInput(inputTitle, "")
	}
	return m
}

func (m CardEditorModel) Init() tea.Cmd {
	if m.inputKind != inputNone {
		return textinput.Blink
	}
	return nil
}

// Closed reports whether the editor was saved or cancelled
func (m CardEditorModel) Closed() bool {
	return m.closed
}

// Saved returns the card written by the last successful Save
func (m CardEditorModel) Saved() (models.Card, bool) {
	if m.saved == nil {
		return models.Card{}, false
	}
	return *m.saved, true
}

// Err returns the last error the editor showed
func (m CardEditorModel) Err() error {
	return m.err
}

func (m *CardEditorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.datePicker != nil {
		m.datePicker.SetSize(width, height)
	}
}

func (m *CardEditorModel) startInput(kind editorInput, value string) {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 56
	switch kind {
	case inputTitle:
		ti.Placeholder = "card title"
	case inputNotes:
		ti.Placeholder = "notes"
		ti.CharLimit = 2000
	case inputAddItem, inputEditItem:
		if m.ctrl.Editor().SubMode == controller.SubModeLink {
			ti.Placeholder = "https://example.com"
		} else {
			ti.Placeholder = "checklist item"
		}
	case inputImagePath:
		ti.Placeholder = "path/to/image.png"
	}
	ti.SetValue(value)
	ti.Focus()
	m.input = ti
	m.inputKind = kind
}

func (m CardEditorModel) Update(msg tea.Msg) (CardEditorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorSavedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			card := msg.card
			m.saved = &card
		}
		// A failed write while editing still closes the editor
		if m.ctrl.Editor().Mode == controller.EditorClosed {
			m.closed = true
		}
		return m, nil

	case imageAttachedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.cursor = len(m.ctrl.Editor().Draft.Images) - 1
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if m.datePicker != nil {
			return m.updateDatePicker(msg)
		}
		if m.inputKind != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m CardEditorModel) updateDatePicker(msg tea.KeyMsg) (CardEditorModel, tea.Cmd) {
	var cmd tea.Cmd
	*m.datePicker, cmd = m.datePicker.Update(msg)
	switch {
	case m.datePicker.Confirmed():
		m.err = m.ctrl.SetDueDate(m.datePicker.GetDate())
		m.datePicker = nil
	case m.datePicker.Cancelled():
		m.datePicker = nil
	}
	return m, cmd
}

func (m CardEditorModel) updateInput(msg tea.KeyMsg) (CardEditorModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputKind = inputNone
		return m, nil

	case "enter":
		value := m.input.Value()
		kind := m.inputKind
		m.inputKind = inputNone
		m.err = nil

		switch kind {
		case inputTitle:
			m.err = m.ctrl.SetTitle(value)
		case inputNotes:
			m.err = m.ctrl.SetNotes(value)
		case inputAddItem:
			if m.err = m.ctrl.AddItem(value); m.err == nil {
				m.cursor = m.itemCount() - 1
			}
		case inputEditItem:
			m.err = m.ctrl.UpdateItem(m.cursor, value)
		case inputImagePath:
			path := strings.TrimSpace(value)
			if path == "" {
				return m, nil
			}
			m.busy = true
			return m, m.attachImage(path)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m CardEditorModel) updateKeys(msg tea.KeyMsg) (CardEditorModel, tea.Cmd) {
	ed := m.ctrl.Editor()
	m.err = nil

	switch msg.String() {
	case "esc":
		m.ctrl.Cancel()
		m.closed = true
		return m, nil

	case "s", "ctrl+s":
		m.busy = true
		return m, m.save()

	case "tab":
		m.shiftSubMode(ed.SubMode, 1)

	case "shift+tab":
		m.shiftSubMode(ed.SubMode, -1)

	case "t":
		m.startInput(inputTitle, ed.Draft.Title)
		return m, textinput.Blink

	case "d":
		picker := NewDatePickerModel(ed.Draft.DueDate, "Due Date")
		picker.SetSize(m.width, m.height)
		m.datePicker = &picker
		return m, picker.Init()

	case "j", "down":
		if m.cursor < m.itemCount()-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "a":
		switch ed.SubMode {
		case controller.SubModeImage:
			m.startInput(inputImagePath, "")
		case controller.SubModeNotes:
			m.startInput(inputNotes, ed.Draft.Notes)
		default:
			m.startInput(inputAddItem, "")
		}
		return m, textinput.Blink

	case "e", "enter":
		switch ed.SubMode {
		case controller.SubModeChecklist:
			if m.cursor < len(ed.Draft.Checklist) {
				m.startInput(inputEditItem, ed.Draft.Checklist[m.cursor].Text)
				return m, textinput.Blink
			}
		case controller.SubModeLink:
			if m.cursor < len(ed.Draft.Links) {
				m.startInput(inputEditItem, ed.Draft.Links[m.cursor])
				return m, textinput.Blink
			}
		case controller.SubModeNotes:
			m.startInput(inputNotes, ed.Draft.Notes)
			return m, textinput.Blink
		}

	case " ", "x":
		if m.itemCount() > 0 {
			m.err = m.ctrl.ToggleItem(m.cursor)
		}

	case "D", "backspace":
		if m.itemCount() > 0 {
			if m.err = m.ctrl.RemoveItem(m.cursor); m.err == nil && m.cursor >= m.itemCount() {
				m.cursor = max(0, m.itemCount()-1)
			}
		}
	}

	return m, nil
}

func (m *CardEditorModel) shiftSubMode(current controller.SubMode, delta int) {
	idx := 0
	for i, s := range subModes {
		if s == current {
			idx = i
		}
	}
	next := subModes[(idx+delta+len(subModes))%len(subModes)]
	m.err = m.ctrl.SetSubMode(next)
	m.cursor = 0
}

// itemCount is the length of the list the active sub-mode targets
func (m CardEditorModel) itemCount() int {
	ed := m.ctrl.Editor()
	switch ed.SubMode {
	case controller.SubModeChecklist:
		return len(ed.Draft.Checklist)
	case controller.SubModeLink:
		return len(ed.Draft.Links)
	case controller.SubModeImage:
		return len(ed.Draft.Images)
	}
	return 0
}

func (m CardEditorModel) save() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		card, err := ctrl.Save(ctx)
		return editorSavedMsg{card: card, err: err}
	}
}

func (m CardEditorModel) attachImage(path string) tea.Cmd {
	ctx, ctrl, readFile := m.ctx, m.ctrl, m.readFile
	return func() tea.Msg {
		data, err := readFile(path)
		if err != nil {
			return imageAttachedMsg{err: err}
		}
		url, err := ctrl.AttachImage(ctx, attachments.File{Name: filepath.Base(path), Data: data})
		return imageAttachedMsg{url: url, err: err}
	}
}

func (m CardEditorModel) View() string {
	if m.datePicker != nil {
		return m.datePicker.View()
	}

	ed := m.ctrl.Editor()
	var s strings.Builder

	heading := "New Card"
	if ed.Mode == controller.EditorEditing {
		heading = "Edit Card"
	}
	s.WriteString(editorTitleStyle.Render(heading))
	s.WriteString("\n\n")

	title := ed.Draft.Title
	if title == "" {
		title = cardPreviewStyle.Render("(untitled)")
	}
	s.WriteString(editorLabelStyle.Render("Title") + title + "\n")
	s.WriteString(editorLabelStyle.Render("Column") + string(ed.Column) + "\n")

	due := cardPreviewStyle.Render("none")
	if ed.Draft.DueDate != nil {
		due = ed.Draft.DueDate.Format("2006-01-02")
	}
	s.WriteString(editorLabelStyle.Render("Due") + due + "\n\n")

	s.WriteString(m.renderTabs(ed.SubMode))
	s.WriteString("\n")
	s.WriteString(m.renderSubMode(ed))
	s.WriteString("\n")

	if m.inputKind != inputNone {
		s.WriteString("\n" + m.input.View() + "\n")
	}

	switch {
	case m.busy:
		s.WriteString("\n" + warningStyle.Render("Saving..."))
	case m.err != nil:
		s.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	s.WriteString("\n")
	if m.inputKind != inputNone {
		s.WriteString(helpStyle.Render("enter: confirm • esc: cancel"))
	} else {
		s.WriteString(helpStyle.Render(editorHelp(ed.SubMode)))
	}

	box := editorBoxStyle.Render(s.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func editorHelp(sub controller.SubMode) string {
	base := "tab: section • t: title • d: due date • s: save • esc: cancel"
	switch sub {
	case controller.SubModeChecklist:
		return "a: add • e: edit • space: toggle • D: remove • " + base
	case controller.SubModeLink:
		return "a: add • e: edit • D: remove • " + base
	case controller.SubModeImage:
		return "a: attach file • D: remove • " + base
	}
	return "e: edit notes • " + base
}

func (m CardEditorModel) renderTabs(active controller.SubMode) string {
	tabs := make([]string, len(subModes))
	for i, sub := range subModes {
		label := strings.ToUpper(sub.String()[:1]) + sub.String()[1:]
		style := theme.TabInactive
		if sub == active {
			style = theme.TabActive
		}
		tabs[i] = style.Padding(0, 1).Render(label)
	}
	return theme.TabBar.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m CardEditorModel) renderSubMode(ed controller.Editor) string {
	var lines []string
	switch ed.SubMode {
	case controller.SubModeChecklist:
		for _, item := range ed.Draft.Checklist {
			if item.Checked {
				lines = append(lines, "[x] "+theme.Done.Render(item.Text))
			} else {
				lines = append(lines, "[ ] "+item.Text)
			}
		}
	case controller.SubModeLink:
		for _, link := range ed.Draft.Links {
			if link == "" {
				// dropped on save
				lines = append(lines, cardPreviewStyle.Render("(blank)"))
				continue
			}
			lines = append(lines, theme.Link.Render(link))
		}
	case controller.SubModeImage:
		for _, url := range ed.Draft.Images {
			lines = append(lines, theme.Image.Render(url))
		}
	case controller.SubModeNotes:
		if ed.Draft.Notes == "" {
			return cardPreviewStyle.Render("  (no notes)")
		}
		return editorItemStyle.Render("  " + ed.Draft.Notes)
	}

	if len(lines) == 0 {
		return cardPreviewStyle.Render("  (empty)")
	}

	var s strings.Builder
	for i, line := range lines {
		if i == m.cursor {
			s.WriteString(editorItemHighlightStyle.Render("> ") + line)
		} else {
			s.WriteString(editorItemStyle.Render("  ") + line)
		}
		s.WriteString("\n")
	}
	return strings.TrimRight(s.String(), "\n")
}

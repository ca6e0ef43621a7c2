package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planner/internal/kanban/controller"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
	"planner/internal/kanban/undo"
	"planner/internal/tui/messages"
	"planner/internal/tui/theme"
)

type boardMode int

const (
	boardModeNormal boardMode = iota
	boardModeMove
	boardModeConfirmDelete
	boardModeFilter
	boardModeEditor
)

// BoardModel renders the visible columns and turns keys into controller
// calls. It never mutates its board directly; it re-reads the controller
// after every event.
type BoardModel struct {
	ctx          context.Context
	ctrl         *controller.Controller
	board        models.Board // visible columns only
	unsynced     map[string]bool
	cols         []columnView
	firstCol     int // leftmost column on screen
	selectedCol  int
	selectedCard int // position among the column's visible cards
	mode         boardMode
	pending      bool   // a controller call is in flight
	follow       string // card id the cursor should land on after the next refresh
	filter       cardFilter
	editor       *CardEditorModel
	confirm      *ConfirmationModal
	err          error
	message      string
	width        int
	height       int
	now          func() time.Time
}

func NewBoardModel(ctx context.Context, ctrl *controller.Controller) BoardModel {
	m := BoardModel{
		ctx:  ctx,
		ctrl: ctrl,
		now:  time.Now,
	}
	m.Refresh()
	return m
}

func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.editor != nil {
		m.editor.SetSize(width, height)
	}
	m.scrollCards()
	m.scrollColumns()
}

// Refresh re-reads the board from the controller and revalidates cursors
func (m *BoardModel) Refresh() {
	full := m.ctrl.Board()
	m.board = models.Board{OwnerID: full.OwnerID, Columns: full.VisibleColumns()}

	m.unsynced = make(map[string]bool)
	for _, id := range m.ctrl.Unsynced() {
		m.unsynced[id] = true
	}

	if len(m.cols) != len(m.board.Columns) {
		m.cols = make([]columnView, len(m.board.Columns))
	}
	if m.filter.active() {
		m.filter.apply(m.filter.query, m.ctrl, m.board)
	}
	if m.follow != "" && m.focusCard(m.follow) {
		m.follow = ""
	}
	m.selectedCol = min(m.selectedCol, max(0, len(m.board.Columns)-1))
	m.clampCursor()
	m.scrollCards()
}

// focusCard moves the cursor onto card id if it is visible
func (m *BoardModel) focusCard(id string) bool {
	for col := range m.board.Columns {
		for i, card := range m.visibleCards(col) {
			if card.ID == id {
				m.selectedCol = col
				m.setCard(i)
				m.scrollColumns()
				return true
			}
		}
	}
	return false
}

// setCard moves the cursor within the selected column
func (m *BoardModel) setCard(i int) {
	m.selectedCard = i
	if m.selectedCol < len(m.cols) {
		m.cols[m.selectedCol].cursor = i
	}
	m.scrollCards()
}

func (m *BoardModel) clampCursor() {
	if m.selectedCol >= len(m.board.Columns) {
		return
	}
	n := len(m.visibleCards(m.selectedCol))
	m.selectedCard = min(m.selectedCard, max(0, n-1))
	m.cols[m.selectedCol].cursor = m.selectedCard
}

// IsModal returns true if the board is capturing keys (editor, filter, etc.)
func (m BoardModel) IsModal() bool {
	return m.mode != boardModeNormal
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.BoardEventMsg:
		m.Refresh()
		return m, nil

	case messages.StatusMsg:
		m.pending = false
		m.err = msg.Err
		m.message = ""
		if msg.Err == nil {
			m.message = msg.Text
		}
		m.Refresh()
		return m, nil

	case editorSavedMsg, imageAttachedMsg:
		if m.editor == nil {
			return m, nil
		}
		return m.updateEditor(msg)

	case tea.KeyMsg:
		switch m.mode {
		case boardModeEditor:
			return m.updateEditor(msg)
		case boardModeFilter:
			return m.updateFilter(msg)
		}
		if m.pending {
			return m, nil
		}
		switch m.mode {
		case boardModeMove:
			return m.updateMove(msg)
		case boardModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	return m, nil
}

func (m BoardModel) updateNormal(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	m.message = ""
	m.err = nil

	switch msg.String() {
	case "A":
		return m, messages.SwitchView(messages.ViewArchive)

	case "esc":
		if m.filter.active() {
			m.filter.clear()
			m.setCard(0)
		}

	case "/":
		m.filter.edit()
		m.mode = boardModeFilter
		m.setCard(0)
		return m, textinput.Blink

	case "h", "left":
		if m.selectedCol > 0 {
			m.selectColumn(m.selectedCol - 1)
		}

	case "l", "right":
		if m.selectedCol < len(m.board.Columns)-1 {
			m.selectColumn(m.selectedCol + 1)
		}

	case "j", "down":
		if m.selectedCard < len(m.visibleCards(m.selectedCol))-1 {
			m.setCard(m.selectedCard + 1)
		}

	case "k", "up":
		if m.selectedCard > 0 {
			m.setCard(m.selectedCard - 1)
		}

	case "m", " ":
		if _, ok := m.currentCard(); ok {
			m.mode = boardModeMove
		}

	case "enter", "e":
		return m.handleEdit()

	case "n":
		return m.handleNew()

	case "a":
		if card, ok := m.currentCard(); ok {
			return m.run("Archived: "+card.Title+" (u to undo)", func(ctx context.Context) error {
				return m.ctrl.ArchiveCard(ctx, card.ID)
			})
		}

	case "D":
		if card, ok := m.currentCard(); ok {
			m.confirm = NewConfirmationModal("Delete this card?", card.Title, 50)
			m.mode = boardModeConfirmDelete
		}

	case "u":
		return m.run("", func(ctx context.Context) error {
			ok, err := m.ctrl.RestoreArchive(ctx)
			return restoreResult(ok, err, "archive")
		})

	case "U":
		return m.run("", func(ctx context.Context) error {
			ok, err := m.ctrl.RestoreDelete(ctx)
			return restoreResult(ok, err, "delete")
		})
	}

	return m, nil
}

// errNothingToRestore is shown when the undo window already closed
var errNothingToRestore = errors.New("nothing to restore")

func restoreResult(ok bool, err error, kind string) error {
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s undo expired", errNothingToRestore, kind)
	}
	return nil
}

// selectColumn switches columns, restoring the cursor the column had
func (m *BoardModel) selectColumn(col int) {
	m.selectedCol = col
	m.selectedCard = m.cols[col].cursor
	m.clampCursor()
	m.scrollCards()
	m.scrollColumns()
}

func (m BoardModel) updateMove(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		m.mode = boardModeNormal
		return m, nil
	}
	idx := m.filter.itemIndex(m.selectedCol, m.selectedCard)
	src := m.board.Columns[m.selectedCol]
	g := operations.Gesture{
		SourceColumn: src.ID,
		SourceIndex:  idx,
		DestColumn:   src.ID,
		DestIndex:    idx,
	}

	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = boardModeNormal
		return m, nil

	case "h", "left", "l", "right":
		step := 1
		if k := msg.String(); k == "h" || k == "left" {
			step = -1
		}
		to := m.selectedCol + step
		if to < 0 || to >= len(m.board.Columns) {
			return m, nil
		}
		dest := m.board.Columns[to]
		g.DestColumn, g.DestIndex = dest.ID, len(dest.Items)
		m.mode = boardModeNormal

	case "j", "down":
		if idx >= len(src.Items)-1 {
			return m, nil
		}
		g.DestIndex = idx + 1

	case "k", "up":
		if idx == 0 {
			return m, nil
		}
		g.DestIndex = idx - 1

	default:
		return m, nil
	}

	m.follow = card.ID
	text := ""
	if g.DestColumn != g.SourceColumn {
		text = "Card moved"
	}
	return m.run(text, func(ctx context.Context) error {
		_, err := m.ctrl.MoveCard(ctx, g)
		return err
	})
}

func (m BoardModel) updateConfirmDelete(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch m.confirm.Decide(msg) {
	case confirmYes:
		m.mode = boardModeNormal
		m.confirm = nil
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		return m.run("Deleted: "+card.Title+" (U to undo)", func(ctx context.Context) error {
			return m.ctrl.DeleteCard(ctx, card.ID)
		})

	case confirmNo:
		m.mode = boardModeNormal
		m.confirm = nil
	}

	return m, nil
}

// updateFilter narrows the board on every keystroke. enter keeps the
// filter applied, esc drops it.
func (m BoardModel) updateFilter(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = boardModeNormal
		m.setCard(0)
		return m, nil

	case "esc":
		m.filter.clear()
		m.mode = boardModeNormal
		m.setCard(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter.input, cmd = m.filter.input.Update(msg)
	m.filter.apply(strings.TrimSpace(m.filter.input.Value()), m.ctrl, m.board)
	m.clampCursor()
	m.scrollCards()
	return m, cmd
}

func (m BoardModel) updateEditor(msg tea.Msg) (BoardModel, tea.Cmd) {
	var cmd tea.Cmd
	*m.editor, cmd = m.editor.Update(msg)
	if !m.editor.Closed() {
		return m, cmd
	}

	if card, ok := m.editor.Saved(); ok {
		m.message = "Saved: " + card.Title
		m.follow = card.ID
	} else if err := m.editor.Err(); err != nil {
		m.err = err
	}
	m.editor = nil
	m.mode = boardModeNormal
	m.Refresh()
	return m, cmd
}

func (m BoardModel) handleEdit() (BoardModel, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if err := m.ctrl.OpenEdit(card.ID); err != nil {
		m.err = err
		return m, nil
	}
	return m.openEditor()
}

func (m BoardModel) handleNew() (BoardModel, tea.Cmd) {
	if m.selectedCol >= len(m.board.Columns) {
		return m, nil
	}
	if err := m.ctrl.OpenCreate(m.board.Columns[m.selectedCol].ID); err != nil {
		m.err = err
		return m, nil
	}
	return m.openEditor()
}

func (m BoardModel) openEditor() (BoardModel, tea.Cmd) {
	editor := NewCardEditorModel(m.ctx, m.ctrl)
	editor.SetSize(m.width, m.height)
	m.editor = &editor
	m.mode = boardModeEditor
	return m, editor.Init()
}

// run executes a controller call off the update loop. Empty text means no
// success message.
func (m BoardModel) run(text string, call func(ctx context.Context) error) (BoardModel, tea.Cmd) {
	m.pending = true
	ctx := m.ctx
	return m, func() tea.Msg {
		return messages.StatusMsg{Text: text, Err: call(ctx)}
	}
}

// visibleCards returns the cards drawn in a column, after filtering
func (m BoardModel) visibleCards(col int) []models.Card {
	if col >= len(m.board.Columns) {
		return nil
	}
	return m.filter.cards(col, m.board.Columns[col].Items)
}

// currentCard returns the card under the cursor
func (m BoardModel) currentCard() (models.Card, bool) {
	cards := m.visibleCards(m.selectedCol)
	if m.selectedCard >= len(cards) {
		return models.Card{}, false
	}
	return cards[m.selectedCard], true
}

func (m BoardModel) View() string {
	if m.mode == boardModeEditor && m.editor != nil {
		return m.editor.View()
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Board: " + m.board.OwnerID))
	if m.mode == boardModeMove {
		s.WriteString(badge(colorWarning).Render(" MOVE"))
	}
	s.WriteString("\n")

	switch {
	case m.mode == boardModeFilter:
		s.WriteString("  / " + m.filter.input.View())
	case m.filter.active():
		s.WriteString("  " + filterIndicatorStyle.Render("Filter: "+m.filter.query))
	}
	s.WriteString("\n")

	height := m.boardHeight()
	start, end := m.columnRange()
	views := []string{arrow("◀", start > 0, height)}
	for i := start; i < end; i++ {
		views = append(views, m.renderColumn(i, height))
	}
	views = append(views, arrow("▶", end < len(m.board.Columns), height))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	s.WriteString(lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, columns))
	s.WriteString("\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	case m.message != "":
		s.WriteString(successStyle.Render(m.message) + "\n")
	}
	if bar := m.renderUndoBar(); bar != "" {
		s.WriteString(bar + "\n")
	}

	switch m.mode {
	case boardModeMove:
		s.WriteString(helpStyle.Render("h/l: move to column • j/k: reorder • esc: done"))
	case boardModeConfirmDelete:
		s.WriteString(m.confirm.View())
	case boardModeFilter:
		s.WriteString(helpStyle.Render("type to filter • enter: keep filter • esc: cancel"))
	default:
		help := "hjkl: navigate • m/space: move • enter: edit • n: new • a: archive • D: delete • u/U: undo archive/delete • /: filter • A: archive view • ?: help"
		if m.filter.active() {
			help = "hjkl: navigate • m/space: move • enter: edit • /: edit filter • esc: clear filter"
		}
		s.WriteString(helpStyle.Render(help))
	}

	return s.String()
}

// renderUndoBar shows the live undo entries with their countdown
func (m BoardModel) renderUndoBar() string {
	var parts []string
	for _, k := range []struct {
		kind undo.Kind
		key  string
	}{{undo.KindArchive, "u"}, {undo.KindDelete, "U"}} {
		entry, ok := m.ctrl.PendingUndo(k.kind)
		if !ok {
			continue
		}
		secs := int(m.ctrl.UndoRemaining(k.kind).Round(time.Second) / time.Second)
		parts = append(parts, theme.Undo.Render(fmt.Sprintf("%s: undo %s %q (%ds)", k.key, k.kind, entry.Card.Title, secs)))
	}
	return strings.Join(parts, " ")
}

// HasPendingUndo reports whether a countdown is showing
func (m BoardModel) HasPendingUndo() bool {
	_, a := m.ctrl.PendingUndo(undo.KindArchive)
	_, d := m.ctrl.PendingUndo(undo.KindDelete)
	return a || d
}

func (m BoardModel) renderColumn(index, height int) string {
	col := m.board.Columns[index]
	cards := m.visibleCards(index)
	selected := index == m.selectedCol

	box, heading := columnStyle, columnTitleStyle
	if selected {
		box, heading = selectedColumnStyle, selectedColumnTitleStyle
	}
	heading = heading.Foreground(theme.ColumnColor(col.ColorHint))

	lines := []string{heading.Render(fmt.Sprintf("%s (%d)", col.Name, len(col.Items))), ""}
	if len(cards) == 0 {
		lines = append(lines, cardPreviewStyle.Render("(empty)"))
		return box.Height(height).Render(strings.Join(lines, "\n"))
	}

	offset := 0
	if index < len(m.cols) {
		offset = min(m.cols[index].offset, len(cards)-1)
	}
	above := ""
	if offset > 0 {
		above = scrollIndicatorStyle.Render(fmt.Sprintf("▲ +%d cards above", offset))
	}
	lines = append(lines, above, "")

	room := height - columnChrome
	used, drawn := 0, 0
	for i := offset; i < len(cards); i++ {
		card := m.renderCard(index, i, cards[i])
		h := lipgloss.Height(card)
		if drawn > 0 && used+h > room {
			break
		}
		lines = append(lines, card)
		used += h
		drawn++
	}

	if below := len(cards) - offset - drawn; below > 0 {
		lines = append(lines, scrollIndicatorStyle.Render(fmt.Sprintf("▼ +%d cards below", below)))
	}
	return box.Height(height).Render(strings.Join(lines, "\n"))
}

// truncate cuts s to width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width < 4 {
		return s
	}
	return string(r[:width-1]) + "…"
}

func (m BoardModel) renderCard(colIndex, cardIndex int, card models.Card) string {
	width := columnWidth - 2*columnPaddingHorizontal - cardBorderWidth - 2*cardPaddingHorizontal

	var title string
	if m.unsynced[card.ID] {
		title = theme.Unsynced.Render("! ") + cardTitleStyle.Render(truncate(card.Title, width-2))
	} else {
		title = cardTitleStyle.Render(truncate(card.Title, width))
	}
	lines := []string{title}

	if card.Notes != "" {
		preview := strings.Join(strings.Fields(card.Notes), " ")
		lines = append(lines, cardPreviewStyle.Render(truncate(preview, width)))
	}

	if card.DueDate != nil {
		due, color := formatDateWithDaysUntil(card.DueDate, "due", m.now())
		lines = append(lines, badge(color).Render(due))
	}

	var meta []string
	if done, total := card.ChecklistProgress(); total > 0 {
		meta = append(meta, fmt.Sprintf("☑ %d/%d", done, total))
	}
	if len(card.Links) > 0 {
		meta = append(meta, fmt.Sprintf("↗ %d", len(card.Links)))
	}
	if len(card.Images) > 0 {
		meta = append(meta, fmt.Sprintf("▣ %d", len(card.Images)))
	}
	if len(meta) > 0 {
		lines = append(lines, cardMetaStyle.Render(strings.Join(meta, "  ")))
	}

	style := cardStyle
	if colIndex == m.selectedCol && cardIndex == m.selectedCard {
		style = selectedCardStyle
		if m.mode == boardModeMove {
			style = moveSelectedCardStyle
		}
	}
	return style.Render(strings.Join(lines, "\n"))
}

// formatDateWithDaysUntil renders "due:10-18 sun -2": month-day, weekday and
// days left counted negative. Overdue and today are red, the coming week
// yellow, later green.
func formatDateWithDaysUntil(date *time.Time, prefix string, now time.Time) (string, lipgloss.Color) {
	if date == nil {
		return "", lipgloss.Color("")
	}

	days := int(dateOnly(*date).Sub(dateOnly(now)).Hours() / 24)
	weekday := strings.ToLower(date.Weekday().String()[:3])
	label := fmt.Sprintf("%s:%02d-%02d %s %+d", prefix, date.Month(), date.Day(), weekday, -days)

	switch {
	case days > 7:
		return label, colorSuccess
	case days > 0:
		return label, colorWarning
	}
	return label, colorDanger
}

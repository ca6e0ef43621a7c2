package kanban

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const dateLayout = "2006-01-02"

type datePickerMode int

const (
	calendarMode datePickerMode = iota
	textInputMode
)

type datePickerResult int

const (
	datePending datePickerResult = iota
	dateConfirmed
	dateCancelled
)

var errUnknownDate = errors.New("unknown date, try 2026-03-15, 03-15, +5, fri or tomorrow")

// cursorSteps moves the calendar cursor by whole days
var cursorSteps = map[string]int{
	"h": -1, "left": -1,
	"l": 1, "right": 1,
	"k": -7, "up": -7,
	"j": 7, "down": 7,
}

// monthSteps pages the visible month without moving the cursor
var monthSteps = map[string]int{
	"-": -1, "H": -1,
	"+": 1, "=": 1, "L": 1,
}

// DatePickerModel picks a due date from a calendar or typed text. Picked
// dates are calendar days at UTC midnight, the same values the CLI parses.
type DatePickerModel struct {
	title  string
	mode   datePickerMode
	result datePickerResult
	picked *time.Time // nil means no due date
	cursor time.Time
	month  time.Time // first day of the month on screen
	input  textinput.Model
	err    string
	now    func() time.Time
	width  int
	height int
}

func NewDatePickerModel(current *time.Time, title string) DatePickerModel {
	return newDatePicker(current, title, time.Now)
}

func newDatePicker(current *time.Time, title string, now func() time.Time) DatePickerModel {
	ti := textinput.New()
	ti.Placeholder = "+5, fri, 2026-03-15"
	ti.CharLimit = 20
	ti.Width = 30
	ti.Focus()

	cursor := dateOnly(now())
	if current != nil {
		cursor = dateOnly(*current)
		ti.SetValue(cursor.Format(dateLayout))
	}

	return DatePickerModel{
		title:  title,
		picked: current,
		cursor: cursor,
		month:  firstOfMonth(cursor),
		input:  ti,
		now:    now,
	}
}

func (m DatePickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m DatePickerModel) Update(msg tea.KeyMsg) (DatePickerModel, tea.Cmd) {
	if m.mode == textInputMode {
		return m.updateTextInput(msg)
	}

	k := msg.String()
	if days, ok := cursorSteps[k]; ok {
		m.cursor = m.cursor.AddDate(0, 0, days)
		m.month = firstOfMonth(m.cursor)
		return m, nil
	}
	if months, ok := monthSteps[k]; ok {
		m.month = m.month.AddDate(0, months, 0)
		return m, nil
	}

	switch k {
	case "esc", "q":
		m.result = dateCancelled
	case "enter":
		m.confirm(&m.cursor)
	case "c":
		m.confirm(nil)
	case "t":
		m.cursor = dateOnly(m.now())
		m.month = firstOfMonth(m.cursor)
	case "i":
		m.mode = textInputMode
		return m, textinput.Blink
	}
	return m, nil
}

func (m DatePickerModel) updateTextInput(msg tea.KeyMsg) (DatePickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = calendarMode
		m.err = ""
		return m, nil
	case "enter":
		day, err := m.parseTextInput(m.input.Value())
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.confirm(&day)
		return m, nil
	}

	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *DatePickerModel) confirm(day *time.Time) {
	m.result = dateConfirmed
	if day == nil {
		m.picked = nil
		return
	}
	d := *day
	m.picked = &d
}

// parseTextInput understands today, tomorrow, +N/-N day offsets, weekday
// names (the next such day after today), 2006-01-02 and 01-02 in the
// current year.
func (m DatePickerModel) parseTextInput(raw string) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	today := dateOnly(m.now())

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if s != "" && (s[0] == '+' || s[0] == '-') {
		days, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day offset %q", raw)
		}
		return today.AddDate(0, 0, days), nil
	}

	if wd, ok := parseWeekday(s); ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), nil
	}

	if day, err := time.Parse(dateLayout, s); err == nil {
		return day, nil
	}
	if day, err := time.Parse("01-02", s); err == nil {
		return time.Date(today.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errUnknownDate
}

func parseWeekday(s string) (time.Weekday, bool) {
	if len(s) < 3 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if strings.HasPrefix(name, s) {
			return wd, true
		}
	}
	return 0, false
}

func (m DatePickerModel) View() string {
	var body string
	if m.mode == textInputMode {
		body = m.viewTextInput()
	} else {
		body = m.viewCalendar()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, datePickerBoxStyle.Render(body))
}

// calendarCells lays the month out in Monday-first weeks; zero values pad
// the first and last week.
func (m DatePickerModel) calendarCells() [][]time.Time {
	lead := (int(m.month.Weekday()) + 6) % 7
	last := m.month.AddDate(0, 1, -1).Day()

	var weeks [][]time.Time
	week := make([]time.Time, lead, 7)
	for d := 1; d <= last; d++ {
		week = append(week, m.month.AddDate(0, 0, d-1))
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]time.Time, 0, 7)
		}
	}
	if len(week) > 0 {
		weeks = append(weeks, append(week, make([]time.Time, 7-len(week))...))
	}
	return weeks
}

func (m DatePickerModel) viewCalendar() string {
	today := dateOnly(m.now())

	lines := []string{
		datePickerTitleStyle.Render(m.title),
		"",
		datePickerMonthStyle.Render(m.month.Format("January 2006")),
		"",
		datePickerDayHeaderStyle.Render("Mo Tu We Th Fr Sa Su"),
	}
	for _, week := range m.calendarCells() {
		cells := make([]string, len(week))
		for i, day := range week {
			switch {
			case day.IsZero():
				cells[i] = "  "
			case day.Equal(m.cursor):
				cells[i] = datePickerCursorStyle.Render(fmt.Sprintf("%2d", day.Day()))
			case day.Equal(today):
				cells[i] = datePickerTodayStyle.Render(fmt.Sprintf("%2d", day.Day()))
			default:
				cells[i] = datePickerDayStyle.Render(fmt.Sprintf("%2d", day.Day()))
			}
		}
		lines = append(lines, strings.Join(cells, " "))
	}

	current := "none"
	if m.picked != nil {
		current = m.picked.Format(dateLayout)
	}
	lines = append(lines, "",
		datePickerExamplesStyle.Render("current: "+current),
		helpStyle.Render("hjkl: move • t: today • +/-: month • c: clear • i: type • enter: pick • esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m DatePickerModel) viewTextInput() string {
	lines := []string{
		datePickerTitleStyle.Render(m.title),
		"",
		m.input.View(),
	}
	if m.err != "" {
		lines = append(lines, errorStyle.Render(m.err))
	}
	lines = append(lines, "",
		datePickerExamplesStyle.Render("2026-03-15 • 03-15 • +5 • -1 • fri • tomorrow"),
		helpStyle.Render("enter: pick • esc: calendar"))
	return strings.Join(lines, "\n")
}

// GetDate returns the picked date, nil when cleared
func (m DatePickerModel) GetDate() *time.Time {
	return m.picked
}

// Confirmed reports whether the user picked or cleared the date
func (m DatePickerModel) Confirmed() bool {
	return m.result == dateConfirmed
}

// Cancelled reports whether the user backed out without changes
func (m DatePickerModel) Cancelled() bool {
	return m.result == dateCancelled
}

func (m *DatePickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

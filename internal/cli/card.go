package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"planner/internal/kanban/attachments"
	"planner/internal/kanban/controller"
	"planner/internal/kanban/models"
	"planner/internal/kanban/operations"
)

const dateLayout = "2006-01-02"

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (r *runner) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.err)
	return fs
}

func (r *runner) fail(format string, a ...any) int {
	fmt.Fprintf(r.err, "Error: "+format+"\n", a...)
	return 1
}

func (r *runner) reportError(action string, err error) int {
	var perr *controller.PersistenceError
	if errors.As(err, &perr) {
		return r.fail("%s was not saved: %v", action, perr.Err)
	}
	return r.fail("%s: %v", action, err)
}

func parseColumn(s string) (models.ColumnID, error) {
	id := models.ColumnID(strings.ToLower(strings.TrimSpace(s)))
	if !models.IsValidColumn(id) || !id.Visible() {
		return "", fmt.Errorf("unknown column %q (want todo, inprogress or done)", s)
	}
	return id, nil
}

func parseDue(s string) (*time.Time, error) {
	due, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return &due, nil
}

// parseItemNumber turns a 1-based item number into an index
func parseItemNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid item number %q", s)
	}
	return n - 1, nil
}

func (r *runner) runList(args []string) int {
	fs := r.newFlagSet("list")
	column := fs.String("c", "", "Only list this column")
	archived := fs.Bool("archived", false, "List archived cards")
	query := fs.String("q", "", "Fuzzy search")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *query != "" {
		results := r.ctrl.Search(*query)
		if len(results) == 0 {
			fmt.Fprintln(r.out, "No cards found.")
			return 0
		}
		for _, res := range results {
			r.printCard(res.Card)
		}
		fmt.Fprintf(r.out, "\n%d card(s)\n", len(results))
		return 0
	}

	board := r.ctrl.Board()
	var columns []models.Column
	switch {
	case *archived:
		columns = []models.Column{*board.GetColumn(models.ColumnArchived)}
	case *column != "":
		id, err := parseColumn(*column)
		if err != nil {
			return r.fail("%v", err)
		}
		columns = []models.Column{*board.GetColumn(id)}
	default:
		columns = board.VisibleColumns()
	}

	total := 0
	for _, col := range columns {
		fmt.Fprintf(r.out, "%s (%d)\n", col.Name, len(col.Items))
		for _, card := range col.Items {
			r.printCard(card)
		}
		total += len(col.Items)
	}
	if total == 0 {
		fmt.Fprintln(r.out, "No cards found.")
		return 0
	}
	fmt.Fprintf(r.out, "\n%d card(s)\n", total)
	return 0
}

func (r *runner) runShow(args []string) int {
	if len(args) == 0 {
		return r.fail("card ID required")
	}
	card, err := r.findCard(args[0])
	if err != nil {
		return r.fail("%v", err)
	}

	fmt.Fprintf(r.out, "%s\n", card.Title)
	fmt.Fprintf(r.out, "ID:      %s\n", card.ID)
	fmt.Fprintf(r.out, "Column:  %s\n", card.ColumnID)
	if card.DueDate != nil {
		fmt.Fprintf(r.out, "Due:     %s\n", card.DueDate.Format(dateLayout))
	}
	if card.Notes != "" {
		fmt.Fprintf(r.out, "\n%s\n", card.Notes)
	}
	if len(card.Checklist) > 0 {
		fmt.Fprintln(r.out, "\nChecklist:")
		for i, item := range card.Checklist {
			mark := " "
			if item.Checked {
				mark = "x"
			}
			fmt.Fprintf(r.out, "  %d. [%s] %s\n", i+1, mark, item.Text)
		}
	}
	if len(card.Links) > 0 {
		fmt.Fprintln(r.out, "\nLinks:")
		for i, link := range card.Links {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, link)
		}
	}
	if len(card.Images) > 0 {
		fmt.Fprintln(r.out, "\nImages:")
		for i, img := range card.Images {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, img)
		}
	}
	return 0
}

func (r *runner) runAdd(args []string) int {
	fs := r.newFlagSet("add")
	column := fs.String("c", string(models.ColumnTodo), "Column")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes")
	var links stringList
	fs.Var(&links, "link", "Link (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(r.err, "Error: card title required")
		fmt.Fprintln(r.err, `Usage: planner card add [-c column] "Title"`)
		return 1
	}

	col, err := parseColumn(*column)
	if err != nil {
		return r.fail("%v", err)
	}
	draft := models.Draft{
		Title: strings.Join(fs.Args(), " "),
		Notes: *notes,
		Links: links,
	}
	if *due != "" {
		if draft.DueDate, err = parseDue(*due); err != nil {
			return r.fail("%v", err)
		}
	}

	card, err := r.ctrl.AddCard(r.ctx, col, draft)
	if err != nil {
		return r.reportError("adding card", err)
	}
	fmt.Fprintf(r.out, "Added: %s\n", card.Title)
	fmt.Fprintf(r.out, "ID: %s\n", card.ID)
	return 0
}

func (r *runner) runEdit(args []string) int {
	if len(args) == 0 {
		return r.fail("card ID required")
	}
	card, err := r.findCard(args[0])
	if err != nil {
		return r.fail("%v", err)
	}

	fs := r.newFlagSet("edit")
	title := fs.String("title", "", "New title")
	notes := fs.String("notes", "", "New notes")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	clearDue := fs.Bool("clear-due", false, "Remove the due date")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	var patch models.CardPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "notes":
			patch.Notes = notes
		}
	})
	if *due != "" {
		if patch.DueDate, err = parseDue(*due); err != nil {
			return r.fail("%v", err)
		}
	}
	patch.ClearDueDate = *clearDue
	if patch.IsEmpty() {
		return r.fail("nothing to change")
	}

	updated, err := r.ctrl.EditCard(r.ctx, card.ID, patch)
	if err != nil {
		return r.reportError("editing card", err)
	}
	fmt.Fprintf(r.out, "Updated: %s\n", updated.Title)
	return 0
}

func (r *runner) runMove(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(r.err, "Error: card ID and column required")
		fmt.Fprintln(r.err, "Usage: planner card move <card-id> <column> [index]")
		return 1
	}
	card, err := r.findCard(args[0])
	if err != nil {
		return r.fail("%v", err)
	}
	dest, err := parseColumn(args[1])
	if err != nil {
		return r.fail("%v", err)
	}

	board := r.ctrl.Board()
	colIdx, itemIdx, _ := board.Locate(card.ID)
	destIdx := len(board.GetColumn(dest).Items)
	if len(args) > 2 {
		if destIdx, err = parseItemNumber(args[2]); err != nil {
			return r.fail("%v", err)
		}
	}

	res, err := r.ctrl.MoveCard(r.ctx, operations.Gesture{
		SourceColumn: board.Columns[colIdx].ID,
		SourceIndex:  itemIdx,
		DestColumn:   dest,
		DestIndex:    destIdx,
	})
	if err != nil {
		return r.reportError("moving card", err)
	}
	if !res.Changed {
		fmt.Fprintf(r.out, "Already there: %s\n", card.Title)
		return 0
	}
	fmt.Fprintf(r.out, "Moved: %s -> %s\n", card.Title, res.To)
	return 0
}

func (r *runner) runArchive(args []string) int {
	if len(args) == 0 {
		return r.fail("card ID required")
	}
	card, err := r.findCard(args[0])
	if err != nil {
		return r.fail("%v", err)
	}
	if card.ColumnID == models.ColumnArchived {
		fmt.Fprintf(r.out, "Card already archived: %s\n", card.Title)
		return 0
	}
	if err := r.ctrl.ArchiveCard(r.ctx, card.ID); err != nil {
		return r.reportError("archiving card", err)
	}
	fmt.Fprintf(r.out, "Archived: %s\n", card.Title)
	return 0
}

func (r *runner) runDelete(args []string) int {
	if len(args) == 0 {
		return r.fail("card ID required")
	}
	card, err := r.findCard(args[0])
	if err != nil {
		return r.fail("%v", err)
	}
	if err := r.ctrl.DeleteCard(r.ctx, card.ID); err != nil {
		return r.reportError("deleting card", err)
	}
	fmt.Fprintf(r.out, "Deleted: %s\n", card.Title)
	return 0
}

func (r *runner) runCheck(args []string) int {
	if len(args) < 2 {
		return r.fail("usage: planner card check add|edit|toggle|rm <card-id> ...")
	}
	card, err := r.findCard(args[1])
	if err != nil {
		return r.fail("%v", err)
	}
	rest := args[2:]

	switch args[0] {
	case "add":
		if len(rest) == 0 {
			return r.fail("item text required")
		}
		_, err = r.ctrl.AddChecklistItem(r.ctx, card.ID, strings.Join(rest, " "))
	case "edit":
		if len(rest) < 2 {
			return r.fail("item number and text required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			_, err = r.ctrl.UpdateChecklistItem(r.ctx, card.ID, idx, strings.Join(rest[1:], " "))
		}
	case "toggle", "t":
		if len(rest) == 0 {
			return r.fail("item number required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			_, err = r.ctrl.ToggleChecklistItem(r.ctx, card.ID, idx)
		}
	case "rm", "remove":
		if len(rest) == 0 {
			return r.fail("item number required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			_, err = r.ctrl.RemoveChecklistItem(r.ctx, card.ID, idx)
		}
	default:
		return r.fail("unknown check command: %s", args[0])
	}
	if err != nil {
		return r.reportError("updating checklist", err)
	}
	return r.printChecklist(card.ID)
}

func (r *runner) printChecklist(id string) int {
	card, _ := r.ctrl.Card(id)
	done, total := card.ChecklistProgress()
	fmt.Fprintf(r.out, "%s: %d/%d done\n", card.Title, done, total)
	return 0
}

func (r *runner) runLink(args []string) int {
	if len(args) < 2 {
		return r.fail("usage: planner card link add|edit|rm <card-id> ...")
	}
	card, err := r.findCard(args[1])
	if err != nil {
		return r.fail("%v", err)
	}
	rest := args[2:]

	var updated models.Card
	switch args[0] {
	case "add":
		if len(rest) == 0 {
			return r.fail("url required")
		}
		updated, err = r.ctrl.AddLink(r.ctx, card.ID, rest[0])
	case "edit":
		if len(rest) < 2 {
			return r.fail("link number and url required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			updated, err = r.ctrl.UpdateLink(r.ctx, card.ID, idx, rest[1])
		}
	case "rm", "remove":
		if len(rest) == 0 {
			return r.fail("link number required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			updated, err = r.ctrl.RemoveLink(r.ctx, card.ID, idx)
		}
	default:
		return r.fail("unknown link command: %s", args[0])
	}
	if err != nil {
		return r.reportError("updating links", err)
	}
	fmt.Fprintf(r.out, "%s: %d link(s)\n", updated.Title, len(updated.Links))
	return 0
}

func readAttachment(path string) (attachments.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attachments.File{}, err
	}
	return attachments.File{Name: filepath.Base(path), Data: data}, nil
}

func (r *runner) runImage(args []string) int {
	if len(args) < 2 {
		return r.fail("usage: planner card image add|replace|rm <card-id> ...")
	}
	card, err := r.findCard(args[1])
	if err != nil {
		return r.fail("%v", err)
	}
	rest := args[2:]

	var updated models.Card
	switch args[0] {
	case "add":
		if len(rest) == 0 {
			return r.fail("file required")
		}
		f, ferr := readAttachment(rest[0])
		if ferr != nil {
			return r.fail("%v", ferr)
		}
		updated, err = r.ctrl.AddImage(r.ctx, card.ID, f)
	case "replace":
		if len(rest) < 2 {
			return r.fail("image number and file required")
		}
		idx, perr := parseItemNumber(rest[0])
		if perr != nil {
			return r.fail("%v", perr)
		}
		f, ferr := readAttachment(rest[1])
		if ferr != nil {
			return r.fail("%v", ferr)
		}
		updated, err = r.ctrl.UpdateImage(r.ctx, card.ID, idx, f)
	case "rm", "remove":
		if len(rest) == 0 {
			return r.fail("image number required")
		}
		var idx int
		if idx, err = parseItemNumber(rest[0]); err == nil {
			updated, err = r.ctrl.RemoveImage(r.ctx, card.ID, idx)
		}
	default:
		return r.fail("unknown image command: %s", args[0])
	}
	if err != nil {
		return r.reportError("updating images", err)
	}
	fmt.Fprintf(r.out, "%s: %d image(s)\n", updated.Title, len(updated.Images))
	return 0
}

func (r *runner) printCard(card models.Card) {
	id := card.ID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(r.out, "  [%s] %s", id, card.Title)

	var meta []string
	if card.DueDate != nil {
		meta = append(meta, "due "+card.DueDate.Format(dateLayout))
	}
	if done, total := card.ChecklistProgress(); total > 0 {
		meta = append(meta, fmt.Sprintf("%d/%d", done, total))
	}
	if len(card.Links) > 0 {
		meta = append(meta, fmt.Sprintf("%d link(s)", len(card.Links)))
	}
	if len(card.Images) > 0 {
		meta = append(meta, fmt.Sprintf("%d image(s)", len(card.Images)))
	}
	if len(meta) > 0 {
		fmt.Fprintf(r.out, "  (%s)", strings.Join(meta, ", "))
	}
	fmt.Fprintln(r.out)
}

// findCard resolves a full id or a unique prefix of at least 4 characters
func (r *runner) findCard(partialID string) (models.Card, error) {
	board := r.ctrl.Board()

	var matches []models.Card
	for _, col := range board.Columns {
		for _, c := range col.Items {
			if c.ID == partialID || (len(partialID) >= 4 && strings.HasPrefix(c.ID, partialID)) {
				matches = append(matches, c)
			}
		}
	}

	if len(matches) == 0 {
		return models.Card{}, fmt.Errorf("no card found with ID: %s", partialID)
	}
	if len(matches) > 1 {
		return models.Card{}, fmt.Errorf("ambiguous ID %s matches %d cards", partialID, len(matches))
	}
	return matches[0], nil
}

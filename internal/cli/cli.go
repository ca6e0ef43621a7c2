package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"planner/internal/kanban/controller"
)

// runner carries the controller and output streams for one invocation
type runner struct {
	ctx  context.Context
	ctrl *controller.Controller
	out  io.Writer
	err  io.Writer
}

// Run executes the CLI with the given arguments.
// The first argument should be the namespace ("card").
func Run(ctx context.Context, args []string, ctrl *controller.Controller) int {
	return run(ctx, args, ctrl, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, ctrl *controller.Controller, out, errOut io.Writer) int {
	r := &runner{ctx: ctx, ctrl: ctrl, out: out, err: errOut}
	if len(args) == 0 {
		r.printUsage()
		return 1
	}

	namespace := args[0]
	subArgs := args[1:]

	switch namespace {
	case "card", "c":
		return r.runCardCommand(subArgs)
	case "help", "-h", "--help":
		r.printUsage()
		return 0
	default:
		fmt.Fprintf(r.err, "Unknown command: %s\n", namespace)
		r.printUsage()
		return 1
	}
}

func (r *runner) runCardCommand(args []string) int {
	if len(args) == 0 {
		r.printCardUsage()
		return 1
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "list", "ls", "l":
		return r.runList(cmdArgs)
	case "show", "s":
		return r.runShow(cmdArgs)
	case "add", "a":
		return r.runAdd(cmdArgs)
	case "edit", "e":
		return r.runEdit(cmdArgs)
	case "move", "mv":
		return r.runMove(cmdArgs)
	case "archive", "ar":
		return r.runArchive(cmdArgs)
	case "delete", "rm", "del":
		return r.runDelete(cmdArgs)
	case "check":
		return r.runCheck(cmdArgs)
	case "link":
		return r.runLink(cmdArgs)
	case "image", "img":
		return r.runImage(cmdArgs)
	case "help", "-h", "--help":
		r.printCardUsage()
		return 0
	default:
		fmt.Fprintf(r.err, "Unknown card command: %s\n", command)
		r.printCardUsage()
		return 1
	}
}

func (r *runner) printUsage() {
	fmt.Fprintln(r.out, `planner - Content planning board

Usage: planner [flags] [command] [arguments]

Commands:
  card        Card management commands

Flags:
  -d, --data-dir <dir>   Data directory
      --store <kind>     Storage backend: markdown, sqlite, memory
      --owner <name>     Board owner
      --log-level <lvl>  debug, info, warn, error
      --view <name>      Initial view: board, archive

Running planner without arguments launches the interactive TUI.
Use "planner card help" for card subcommands.`)
}

func (r *runner) printCardUsage() {
	fmt.Fprintln(r.out, `planner card - Card management commands

Usage: planner card <command> [arguments]

Columns: todo, inprogress, done

Commands:
  list, ls    List cards
              planner card list                 # Visible columns
              planner card list -c inprogress   # One column
              planner card list --archived      # Archived cards
              planner card list -q reel         # Fuzzy search

  show, s     Show every field of a card
              planner card show <card-id>

  add, a      Add a new card
              planner card add [-c column] [--due 2026-11-02] [--notes text] [--link url]... "Title"

  edit, e     Edit a card
              planner card edit <card-id> [--title t] [--notes n] [--due date | --clear-due]

  move, mv    Move a card to a column, optionally at an index
              planner card move <card-id> <column> [index]

  archive     Archive a card
              planner card archive <card-id>

  delete, rm  Delete a card
              planner card delete <card-id>

  check       Checklist items
              planner card check add <card-id> "text"
              planner card check edit <card-id> <n> "text"
              planner card check toggle <card-id> <n>
              planner card check rm <card-id> <n>

  link        Links
              planner card link add <card-id> <url>
              planner card link edit <card-id> <n> <url>
              planner card link rm <card-id> <n>

  image, img  Images (validated and uploaded)
              planner card image add <card-id> <file>
              planner card image replace <card-id> <n> <file>
              planner card image rm <card-id> <n>

  help        Show this help message

Item numbers <n> start at 1.`)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"planner/internal/cli"
	"planner/internal/config"
	"planner/internal/kanban/attachments"
	"planner/internal/kanban/controller"
	"planner/internal/kanban/repository"
	"planner/internal/kanban/repository/markdown"
	"planner/internal/kanban/repository/memory"
	"planner/internal/kanban/repository/sqlite"
	"planner/internal/kanban/undo"
	"planner/internal/logs"
	"planner/internal/tui"
)

func main() {
	// Parse CLI flags
	dataDirFlag := flag.String("data-dir", "", "Data directory")
	flag.StringVar(dataDirFlag, "d", "", "Data directory (shorthand)")
	storeFlag := flag.String("store", "", "Storage backend: markdown, sqlite, memory")
	ownerFlag := flag.String("owner", "", "Board owner")
	logLevelFlag := flag.String("log-level", "", "Log level: debug, info, warn, error")
	viewFlag := flag.String("view", "", "Initial view: board, archive")
	flag.Parse()

	cfg, err := config.Load(config.CLIFlags{
		DataDir:  *dataDirFlag,
		Store:    *storeFlag,
		Owner:    *ownerFlag,
		LogLevel: *logLevelFlag,
		View:     *viewFlag,
	})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure config file exists
	if err := config.EnsureConfigFile(); err != nil {
		log.Printf("Warning: could not create config file: %v", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if err := logs.Initialize(cfg.DataDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize logger: %v\n", err)
	}
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, flag.Args()))
}

func run(ctx context.Context, cfg *config.Config, args []string) int {
	repo, closeRepo, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeRepo.Close()

	opts := []controller.Option{
		controller.WithLogger(logs.Logger),
		controller.WithUndoOptions(undo.WithWindow(cfg.UndoWindow)),
	}
	storage, err := attachments.NewDiskStorage(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		logs.Logger.Warn("image uploads disabled", zap.Error(err))
	} else {
		opts = append(opts, controller.WithUploader(attachments.NewValidator(storage, cfg.MaxImageBytes, nil)))
	}

	ctrl := controller.New(cfg.Owner, repo, opts...)
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Check for CLI subcommands
	if len(args) > 0 {
		return cli.Run(ctx, args, ctrl)
	}

	logs.Logger.Info("starting TUI",
		zap.String("owner", cfg.Owner),
		zap.String("store", cfg.Store))
	p := tea.NewProgram(tui.NewAppModel(ctx, cfg, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
		return 1
	}
	return 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the configured card repository
func openStore(cfg *config.Config) (repository.CardRepository, io.Closer, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		repo, err := sqlite.Open(cfg.DBPath, logs.Logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.StoreMemory:
		return memory.NewRepository(), nopCloser{}, nil
	default:
		repo, err := markdown.NewRepository(cfg.DataDir, logs.Logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, nopCloser{}, nil
	}
}

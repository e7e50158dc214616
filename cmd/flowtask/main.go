package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/flowtask/internal/app"
	"github.com/nhle/flowtask/internal/logging"
	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/repo"
	"github.com/nhle/flowtask/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logging.OpenLogFile(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := logging.New(logging.Options{Writer: logFile, Level: cfg.Log.Level})
	logger.Info("starting", "db", cfg.Database.Path)

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error("creating data directory", "err", err)
			fmt.Fprintf(os.Stderr, "creating data directory: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("opening store", "err", err)
		fmt.Fprintf(os.Stderr, "opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	r := repo.NewTaskRepository(s)

	p := tea.NewProgram(app.New(r, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
}

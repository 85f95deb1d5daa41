package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/config"
	"github.com/nvandessel/lvlup/internal/logging"
	"github.com/nvandessel/lvlup/internal/pathutil"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/nvandessel/lvlup/internal/store"
	"github.com/spf13/cobra"
)

// app holds everything a command needs to read or change stats.
type app struct {
	cfg     *config.Config
	dataDir string
	logger  *slog.Logger
	store   store.StatStore
	log     *changelog.FileLog
	events  *logging.EventLogger
	engine  *progression.Engine
}

// loadConfig loads the config named by --config and applies --data.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp loads config and opens the store, change log and engine.
// Diagnostics go to stderr so stdout stays clean for --json and MCP.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	s, err := store.Open(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	events := logging.NewEventLogger(dataDir, cfg.Logging.Level)
	log := changelog.NewFileLog(dataDir, changelog.WithLogger(logger))
	engine := progression.NewEngine(s, log,
		progression.WithLogger(logger),
		progression.WithEventLogger(events),
	)

	return &app{
		cfg:     cfg,
		dataDir: dataDir,
		logger:  logger,
		store:   s,
		log:     log,
		events:  events,
		engine:  engine,
	}, nil
}

// Close releases the store and the event log.
func (a *app) Close() error {
	a.events.Close()
	return a.store.Close()
}

// confineBackupPath rejects backup files outside the data directory, the
// backup directory and the working directory.
func (a *app) confineBackupPath(path string) (string, error) {
	roots := []string{a.dataDir}
	if dir, err := a.cfg.BackupDir(); err == nil {
		roots = append(roots, dir)
	}
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	return pathutil.Confine(path, roots...)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rekorded/rekorded/src/features/auth"
	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/hosting"
	"github.com/rekorded/rekorded/src/features/libraries"
	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/infra/database"
	"github.com/rekorded/rekorded/src/infra/queue"
	"github.com/rekorded/rekorded/src/infra/watcher"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the web UI and the drop-folder watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfgManager)
		},
	}
}

func serve(ctx context.Context, cfgManager *config.Manager) error {
	cfg := cfgManager.Get()

	lock := flock.New(cfg.Database.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rekorded instance is already serving this database")
	}
	defer func() { _ = lock.Unlock() }()

	store, err := database.NewSqliteStore(ctx, cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	recorder := metrics.NewRecorder()
	verifier := auth.NewVerifier(cfg.Auth.IssuerURL, time.Duration(cfg.Auth.JWKSTimeoutSecs)*time.Second)
	if !verifier.Configured() {
		slog.Warn("No issuer configured, authenticated routes will fail", "env", "CLERK_ISSUER_URL")
	}
	libraryService := libraries.NewService(store, cfgManager, recorder)

	if cfg.Watch.Enabled {
		events := make(chan watcher.FileEvent, 16)
		w, err := watcher.NewWatcher(events, 0)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Start(ctx, cfg.Watch.Path); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Stop()
		go importEvents(ctx, libraryService, queue.NewInMemoryQueue(), events)
	}

	server := hosting.NewServer(cfgManager, libraryService, verifier, recorder)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	return server.Shutdown()
}

// importEvents stores every settled export once per file version.
func importEvents(ctx context.Context, service *libraries.Service, imports *queue.InMemoryQueue, events <-chan watcher.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			importEvent(ctx, service, imports, ev)
		}
	}
}

func importEvent(ctx context.Context, service *libraries.Service, imports *queue.InMemoryQueue, ev watcher.FileEvent) {
	id, err := queue.ItemID(ev.Path)
	if err != nil {
		slog.Warn("Export disappeared before import", "path", ev.Path, "error", err)
		return
	}
	if err := imports.Add(queue.Item{ID: id, Path: ev.Path}); err != nil {
		slog.Debug("Export already imported", "path", ev.Path)
		return
	}

	library, err := service.ImportFile(ctx, ev.Path)
	if err != nil {
		_ = imports.Complete(id, "", err)
		slog.Error("Failed to import library export", "path", ev.Path, "error", err)
		return
	}
	_ = imports.Complete(id, library.ID, nil)
	slog.Info("Imported library export", "path", ev.Path, "library", library.ID, "tracks", library.TotalTracks)
}

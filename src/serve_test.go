package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/libraries"
	"github.com/rekorded/rekorded/src/infra/database"
	"github.com/rekorded/rekorded/src/infra/queue"
	"github.com/rekorded/rekorded/src/infra/watcher"
)

func TestImportEventStoresEachVersionOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := database.NewSqliteStore(ctx, database.DriverPureGo, filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.NewManager(&config.Config{
		Server: config.Server{MaxUploadMB: 1},
		Watch:  config.Watch{Enabled: true, Path: dir, OwnerID: "user_watch"},
	})
	service := libraries.NewService(store, cfg, nil)
	imports := queue.NewInMemoryQueue()

	good := filepath.Join(dir, "collection.xml")
	if err := os.WriteFile(good, []byte(sampleExport), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := watcher.FileEvent{Path: good, EventType: watcher.FileCreated, Timestamp: time.Now()}
	importEvent(ctx, service, imports, ev)
	importEvent(ctx, service, imports, ev)

	libs, err := store.GetLibraries(ctx, "user_watch")
	if err != nil {
		t.Fatal(err)
	}
	if len(libs) != 1 || libs[0].TotalTracks != 2 {
		t.Fatalf("expected one stored library with 2 tracks, got %+v", libs)
	}

	bad := filepath.Join(dir, "broken.xml")
	if err := os.WriteFile(bad, []byte("<DJ_PLAYLISTS><COLLECTION>"), 0o644); err != nil {
		t.Fatal(err)
	}
	importEvent(ctx, service, imports, watcher.FileEvent{Path: bad, EventType: watcher.FileCreated})

	statuses := map[string]queue.Status{}
	for _, item := range imports.GetAll() {
		statuses[filepath.Base(item.Path)] = item.Status
	}
	if statuses["collection.xml"] != queue.StatusImported || statuses["broken.xml"] != queue.StatusFailed {
		t.Errorf("unexpected import statuses %v", statuses)
	}

	importEvent(ctx, service, imports, watcher.FileEvent{Path: filepath.Join(dir, "gone.xml")})
	if len(imports.GetAll()) != 2 {
		t.Error("missing files must not be queued")
	}
}

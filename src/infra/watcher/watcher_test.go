package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsExport(t *testing.T) {
	cases := map[string]bool{
		"/inbox/collection.xml":      true,
		"/inbox/REKORDBOX.XML":       true,
		"/inbox/.collection.xml":     false,
		"/inbox/collection.xml.part": false,
		"/inbox/track.mp3":           false,
		"/inbox/xml":                 false,
	}
	for path, want := range cases {
		if got := IsExport(path); got != want {
			t.Errorf("IsExport(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherEmitsOncePerSettledFile(t *testing.T) {
	dir := t.TempDir()
	events := make(chan FileEvent, 4)

	w, err := NewWatcher(events, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx, dir); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "collection.xml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := f.WriteString("<DJ_PLAYLISTS/>\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	f.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Path != path {
			t.Errorf("expected %s, got %s", path, ev.Path)
		}
		if ev.EventType != FileCreated {
			t.Errorf("expected created event, got %s", ev.EventType)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected second event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStartTwice(t *testing.T) {
	w, err := NewWatcher(make(chan FileEvent, 1), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.debounce != DefaultDebounce {
		t.Errorf("expected default debounce, got %s", w.debounce)
	}
	if err := w.Start(context.Background(), t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error on second start")
	}
}

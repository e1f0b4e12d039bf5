package queue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestItemIDChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.xml")
	if err := os.WriteFile(path, []byte("<a/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := ItemID(path)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := ItemID(path)
	if first != again {
		t.Errorf("same file produced different ids: %s vs %s", first, again)
	}

	if err := os.WriteFile(path, []byte("<a></a>"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	second, _ := ItemID(path)
	if second == first {
		t.Error("rewritten file should get a new id")
	}

	if _, err := ItemID(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestQueueLifecycle(t *testing.T) {
	q := NewInMemoryQueue()

	if err := q.Add(Item{ID: "a", Path: "/inbox/a.xml"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Add(Item{ID: "a"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := q.Add(Item{ID: "b", Path: "/inbox/b.xml"}); err != nil {
		t.Fatal(err)
	}

	item, err := q.GetByID("a")
	if err != nil || item.Status != StatusPending || item.QueuedAt.IsZero() {
		t.Fatalf("unexpected item %+v, %v", item, err)
	}

	if err := q.Complete("a", "lib-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := q.Complete("b", "", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if err := q.Complete("c", "", nil); err == nil {
		t.Error("expected error completing unknown item")
	}

	all := q.GetAll()
	if all["a"].Status != StatusImported || all["a"].LibraryID != "lib-1" {
		t.Errorf("unexpected a: %+v", all["a"])
	}
	if all["b"].Status != StatusFailed || all["b"].Error != "boom" {
		t.Errorf("unexpected b: %+v", all["b"])
	}

	if err := q.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := q.Remove("a"); err == nil {
		t.Error("expected error removing twice")
	}
	if err := q.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(q.GetAll()) != 0 {
		t.Error("expected empty queue after Clear")
	}
}

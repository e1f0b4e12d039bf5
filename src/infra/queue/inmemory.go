package queue

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrAlreadyExists is returned when an export version was already queued.
var ErrAlreadyExists = errors.New("import already queued")

// Status of a queued drop-folder import.
type Status string

const (
	StatusPending  Status = "pending"
	StatusImported Status = "imported"
	StatusFailed   Status = "failed"
)

// Item tracks one version of an export found in the drop folder.
type Item struct {
	ID        string
	Path      string
	Status    Status
	LibraryID string
	Error     string
	QueuedAt  time.Time
}

// ItemID identifies a file version by path, size and modification time, so a
// rewritten export is imported again while repeated events for the same bytes
// are not.
func ItemID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()), nil
}

// InMemoryQueue keeps drop-folder imports for the lifetime of the process.
type InMemoryQueue struct {
	items sync.Map // map[string]Item
}

// NewInMemoryQueue creates a new in-memory queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{}
}

// Add adds a new pending item to the queue
func (q *InMemoryQueue) Add(item Item) error {
	if item.Status == "" {
		item.Status = StatusPending
	}
	if item.QueuedAt.IsZero() {
		item.QueuedAt = time.Now()
	}
	if _, loaded := q.items.LoadOrStore(item.ID, item); loaded {
		return ErrAlreadyExists
	}
	return nil
}

// Complete records the outcome of an import.
func (q *InMemoryQueue) Complete(id, libraryID string, importErr error) error {
	value, ok := q.items.Load(id)
	if !ok {
		return errors.New("item not found")
	}
	item := value.(Item)
	if importErr != nil {
		item.Status = StatusFailed
		item.Error = importErr.Error()
	} else {
		item.Status = StatusImported
		item.LibraryID = libraryID
	}
	q.items.Store(id, item)
	return nil
}

// GetAll returns all items in the queue
func (q *InMemoryQueue) GetAll() map[string]Item {
	items := make(map[string]Item)
	q.items.Range(func(key, value any) bool {
		if item, ok := value.(Item); ok {
			if keyStr, ok := key.(string); ok {
				items[keyStr] = item
			}
		}
		return true
	})
	return items
}

// GetByID returns a specific item by ID
func (q *InMemoryQueue) GetByID(id string) (Item, error) {
	if value, ok := q.items.Load(id); ok {
		if item, ok := value.(Item); ok {
			return item, nil
		}
	}
	return Item{}, errors.New("item not found")
}

// Remove removes an item from the queue by ID
func (q *InMemoryQueue) Remove(id string) error {
	if _, ok := q.items.Load(id); !ok {
		return errors.New("item not found")
	}
	q.items.Delete(id)
	return nil
}

// Clear removes all items from the queue
func (q *InMemoryQueue) Clear() error {
	q.items.Range(func(key, value any) bool {
		q.items.Delete(key)
		return true
	})
	return nil
}

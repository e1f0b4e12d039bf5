package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is emitted.
// Rekordbox writes large exports in several chunks.
const DefaultDebounce = 2 * time.Second

// Watcher monitors a drop folder for library exports and emits one event per
// settled file.
type Watcher struct {
	watcher   *fsnotify.Watcher
	watchPath string
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingFile
	running bool

	stopChan  chan struct{}
	eventChan chan<- FileEvent
}

type pendingFile struct {
	timer     *time.Timer
	eventType FileEventType
}

// NewWatcher creates a new file system watcher. A debounce of zero uses
// DefaultDebounce.
func NewWatcher(eventChan chan<- FileEvent, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:   watcher,
		debounce:  debounce,
		pending:   make(map[string]*pendingFile),
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins watching watchPath for exports.
func (w *Watcher) Start(ctx context.Context, watchPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}

	w.watchPath = watchPath
	slog.Info("Starting file watcher", "path", watchPath)

	if err := w.watcher.Add(watchPath); err != nil {
		return err
	}
	w.running = true

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and drops any file still settling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	close(w.stopChan)
	w.mu.Unlock()

	slog.Info("Stopping file watcher")
	w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			w.Stop()
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType FileEventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = FileCreated
	case event.Has(fsnotify.Write):
		eventType = FileModified
	default:
		return
	}
	if !IsExport(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	if p, ok := w.pending[event.Name]; ok {
		// A write following a create is still the same new file.
		p.timer.Reset(w.debounce)
		return
	}

	slog.Debug("Detected library export", "file", event.Name, "event", eventType)
	path := event.Name
	w.pending[path] = &pendingFile{
		eventType: eventType,
		timer:     time.AfterFunc(w.debounce, func() { w.emit(path) }),
	}
}

// IsExport reports whether path looks like a rekordbox XML export.
func IsExport(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".xml")
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	delete(w.pending, path)
	running := w.running
	w.mu.Unlock()
	if !ok || !running {
		return
	}

	event := FileEvent{
		Path:      path,
		EventType: p.eventType,
		Timestamp: time.Now(),
	}

	select {
	case w.eventChan <- event:
		slog.Info("Library export ready", "path", event.Path)
	case <-w.stopChan:
	default:
		slog.Warn("Event channel full, dropping file event", "path", event.Path)
	}
}

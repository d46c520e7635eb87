package producer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// DefaultSettleDelay is how long a file must stay quiet before it is read
const DefaultSettleDelay = 250 * time.Millisecond

// WatchProducer emits documents dropped into an inbox directory. Files
// already present are emitted first. A file is emitted once until it is
// settled; Settle removes it from the inbox after placement.
type WatchProducer struct {
	dir         string
	log         logrus.FieldLogger
	SettleDelay time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

// Ensure WatchProducer implements DocumentProducer
var _ ports.DocumentProducer = (*WatchProducer)(nil)

// NewWatchProducer creates a producer for the inbox dir
func NewWatchProducer(dir string, log logrus.FieldLogger) *WatchProducer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WatchProducer{
		dir:         dir,
		log:         log,
		SettleDelay: DefaultSettleDelay,
		inflight:    make(map[string]bool),
	}
}

// Name identifies the source in logs
func (w *WatchProducer) Name() string {
	return "inbox:" + w.dir
}

// Produce watches the inbox until ctx is done
func (w *WatchProducer) Produce(ctx context.Context, emit func(domain.Incoming) error) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read inbox: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDocumentFile(e.Name()) {
			continue
		}
		if err := w.offer(filepath.Join(w.dir, e.Name()), emit); err != nil {
			return err
		}
	}

	tick := w.SettleDelay / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if handled(ev) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("inbox watcher error")

		case now := <-ticker.C:
			var ready []string
			for path, seen := range pending {
				if now.Sub(seen) >= w.SettleDelay {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				if err := w.offer(path, emit); err != nil {
					return err
				}
			}
		}
	}
}

// Settle releases a file emitted earlier. With remove set the file is
// deleted from the inbox; otherwise it stays and is retried on its next change.
func (w *WatchProducer) Settle(origin string, remove bool) {
	w.mu.Lock()
	delete(w.inflight, origin)
	w.mu.Unlock()

	if !remove {
		return
	}
	if err := os.Remove(origin); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.log.WithField("path", origin).WithError(err).Warn("cannot remove placed file from inbox")
	}
}

// offer emits path unless it is already in flight or gone
func (w *WatchProducer) offer(path string, emit func(domain.Incoming) error) error {
	w.mu.Lock()
	if w.inflight[path] {
		w.mu.Unlock()
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		w.mu.Unlock()
		return nil
	}
	in := readIncoming(path)
	if in.Err == nil {
		w.inflight[path] = true
	}
	w.mu.Unlock()

	return emit(in)
}

// handled reports whether an event may have produced a complete document file
func handled(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !isDocumentFile(name) {
		return false
	}
	info, err := os.Stat(ev.Name)
	return err == nil && !info.IsDir()
}

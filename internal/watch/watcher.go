// Package watch feeds files dropped into a directory to the ingestion queue.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/ragengine/internal/extract"
	"github.com/fsnotify/fsnotify"
)

// Enqueuer accepts file paths for ingestion.
type Enqueuer interface {
	Enqueue(path string)
}

// Watcher reports created or rewritten files with a supported extension.
type Watcher struct {
	watcher *fsnotify.Watcher
	queue   Enqueuer
}

// NewWatcher creates a new file watcher.
func NewWatcher(queue Enqueuer) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{watcher: w, queue: queue}, nil
}

// Scan enqueues the supported files already present in dir.
func (w *Watcher) Scan(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || !extract.IsSupported(e.Name()) {
			continue
		}
		w.queue.Enqueue(filepath.Join(dir, e.Name()))
		n++
	}
	return n, nil
}

// Run watches dir until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !extract.IsSupported(event.Name) {
				continue
			}
			w.queue.Enqueue(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logWatcher = logger.New("watch:watcher")

// DefaultDebounce is how long the tree must stay quiet before a reload.
const DefaultDebounce = 250 * time.Millisecond

// Reload is called once per burst of changes.
type Reload interface {
	Reload(reason string) error
}

// Watcher reloads when files under a directory change.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	debounce time.Duration
	target   Reload
}

// New creates a watcher for dir. Subdirectories, including ones created
// later, are watched too.
func New(dir string, debounce time.Duration, target Reload) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{fs: fsw, dir: dir, debounce: debounce, target: target}
	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return w, nil
}

// Close stops watching. Run returns once the event channels are closed.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	logWatcher.Printf("Watching %s (debounce %s)", w.dir, w.debounce)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
		last    string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						logger.LogWarn("watch", "Failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			pending++
			last = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			reason := fmt.Sprintf("%d change(s), last %s", pending, w.rel(last))
			pending = 0
			if err := w.target.Reload(reason); err != nil {
				logWatcher.Printf("Reload failed: %v", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.LogWarn("watch", "Watcher error: %v", err)
		}
	}
}

// relevant drops attribute-only changes and hidden paths.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel := w.rel(event.Name)
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}
	return true
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return rel
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		logWatcher.Printf("Watching directory %s", path)
		return nil
	})
}

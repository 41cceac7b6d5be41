package flat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":      true,
	"artifacts": true,
	"cache":     true,
}

// flatFlattener is the part of flatten.Flattener the watcher drives.
type flatFlattener interface {
	Flatten(files []string, outputPath string) (string, error)
}

type flatWatcher struct {
	flattener  flatFlattener
	files      []string
	outputPath string
	dirs       []string
	status     io.Writer
}

// run flattens once, then again after every burst of source changes until ctx is
// done. Failed rebuilds are reported and watching continues.
func (w *flatWatcher) run(ctx context.Context) error {
	if err := w.rebuild(); err != nil {
		return fmt.Errorf("initial flatten failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := addWatchDirs(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch directories: %w", err)
		}
		fmt.Fprintf(w.status, "Watching %s\n", dir)
	}
	fmt.Fprintf(w.status, "Press Ctrl+C to stop\n")

	return w.loop(ctx, watcher.Events, watcher.Errors, func(event fsnotify.Event) {
		if event.Has(fsnotify.Create) {
			addIfDirectory(watcher, event.Name)
		}
	})
}

func (w *flatWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onEvent func(fsnotify.Event)) error {
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if onEvent != nil {
				onEvent(event)
			}
			if !w.isRelevantChange(event) {
				continue
			}
			debounce = time.After(debounceInterval)

		case <-debounce:
			debounce = nil
			if err := w.rebuild(); err != nil {
				fmt.Fprintf(w.status, "flatten error: %v\n", err)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.status, "watcher error: %v\n", err)
		}
	}
}

func (w *flatWatcher) rebuild() error {
	if _, err := w.flattener.Flatten(w.files, w.outputPath); err != nil {
		return err
	}
	fmt.Fprintf(w.status, "Flattened to %s\n", w.outputPath)
	return nil
}

func (w *flatWatcher) isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Clean(event.Name) == w.outputPath {
		return false
	}
	return filepath.Ext(event.Name) == ".sol" || filepath.Base(event.Name) == "package.json"
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return addWatchDirsWithAdder(root, watcher.Add)
}

// addWatchDirsWithAdder registers root and its subdirectories. A missing root and
// entries that vanish while walking are skipped.
func addWatchDirsWithAdder(root string, add func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}

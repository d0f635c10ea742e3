package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LegacyCodeHQ/unstar/internal/walker"
)

// watchAndRescan calls rescan once the tree under root has been quiet for
// debounce after a change to a .py file. It returns when ctx is done.
func watchAndRescan(ctx context.Context, root string, filter *walker.Filter, debounce time.Duration, rescan func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root, filter); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name, filter)
			}
			if !isRelevantChange(event, filter) {
				continue
			}

			slog.Debug("python file changed", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, rescan)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event, filter *walker.Filter) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Ext(event.Name) == ".py" && !filter.SkipFile(filepath.Base(event.Name))
}

func addWatchDirs(watcher *fsnotify.Watcher, root string, filter *walker.Filter) error {
	return addWatchDirsWithAdder(root, filter, watcher.Add)
}

func addWatchDirsWithAdder(root string, filter *walker.Filter, add func(string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between listing and watching.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && filter.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string, filter *walker.Filter) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() && !filter.SkipDir(info.Name()) {
		_ = addWatchDirs(watcher, path, filter)
	}
}

package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the bursts of events produced when several files
// are copied into the directory at once.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls onChange after files are added to, removed from or renamed in
// the audio directory. Events are debounced so a burst yields a single
// call. Watch blocks until ctx is done and then returns nil.
func (l *Library) Watch(ctx context.Context, onChange func()) error {
	return l.watch(ctx, DefaultDebounce, onChange)
}

func (l *Library) watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watching %s: %w", l.dir, err)
	}
	log.Info("Watching audio directory", "dir", l.dir)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Audio directory unwatched", "dir", l.dir)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("Audio directory event", "file", event.Name, "event", event.Op)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Audio directory watch error", "dir", l.dir, "error", err)

		case <-timer.C:
			onChange()
		}
	}
}

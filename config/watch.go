package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/core/schema"
)

// DefaultDebounce groups the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to the model documents in a directory.
// The server never reloads; watching backs `validate --watch`.
type Watcher struct {
	dir      string
	logger   zerolog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, logger zerolog.Logger) *Watcher {
	return &Watcher{dir: dir, logger: logger, debounce: DefaultDebounce}
}

// SetDebounce sets the quiet period before a change is reported.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Watch calls onChange with the last changed document path after each burst
// of changes and blocks until ctx is done.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory (more reliable for editors that do atomic saves)
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	w.logger.Info().Str("dir", w.dir).Msg("watching model documents for changes")

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !schema.IsDocument(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", filepath.Base(event.Name)).
				Msg("model document changed")

			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		}
	}
}

// Watch is shorthand for NewWatcher(dir, logger).Watch(ctx, onChange).
func Watch(ctx context.Context, dir string, logger zerolog.Logger, onChange func(path string)) error {
	return NewWatcher(dir, logger).Watch(ctx, onChange)
}

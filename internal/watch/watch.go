// Package watch reports changes other processes make to files in a
// directory, such as a cart home's storage database and its WAL.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce batches the burst of writes a single SQLite commit makes.
const DefaultDebounce = 150 * time.Millisecond

// Options selects which files in the directory are of interest.
type Options struct {
	// Files are base names; events for any other file are ignored.
	// An empty list matches every file.
	Files    []string
	Debounce time.Duration
}

// Run watches dir and calls onChange once per quiet period after a matching
// file is created, written, removed or renamed. It blocks until ctx is done
// and returns nil on cancellation. onChange runs on the watcher goroutine.
func Run(ctx context.Context, dir string, opts Options, onChange func()) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch.Run: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch.Run: add %s: %w", dir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	// Closing the watcher unblocks the event loop.
	g.Go(func() error {
		<-gctx.Done()
		return w.Close()
	})
	g.Go(func() error {
		loop(gctx, w, opts, onChange)
		return nil
	})
	return g.Wait()
}

func loop(ctx context.Context, w *fsnotify.Watcher, opts Options, onChange func()) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !matches(ev, opts.Files) {
				continue
			}
			slog.Debug("watch: event", "name", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("watch: watcher error", "err", err)

		case <-fire:
			fire = nil
			onChange()
		}
	}
}

func matches(ev fsnotify.Event, files []string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return len(files) == 0 || slices.Contains(files, filepath.Base(ev.Name))
}

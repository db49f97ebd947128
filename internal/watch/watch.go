// Package watch reloads a mesh file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/tentview/internal/mesh"
)

// ReloadFunc receives each successfully parsed new version of the file.
type ReloadFunc func(ctx context.Context, m *mesh.Mesh) error

// Watcher watches one mesh file. The containing directory is watched so
// that editors and solvers replacing the file by rename are noticed too.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	log      *slog.Logger
	fsw      *fsnotify.Watcher

	reloads  atomic.Int64
	failures atomic.Int64
}

func New(path string, debounce time.Duration, reload ReloadFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		reload:   reload,
		log:      logger,
		fsw:      fsw,
	}, nil
}

// Run handles file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		case <-fire:
			fire = nil
			w.load(ctx)
		}
	}
}

func (w *Watcher) load(ctx context.Context) {
	m, err := mesh.Load(w.path)
	if err != nil {
		w.failures.Add(1)
		w.log.Warn("reload failed, keeping previous mesh", "path", w.path, "err", err)
		return
	}
	if err := w.reload(ctx, m); err != nil {
		w.failures.Add(1)
		w.log.Warn("reload rejected", "path", w.path, "err", err)
		return
	}
	w.reloads.Add(1)
}

// Reloads counts successful reloads.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

// Failures counts reloads that could not be parsed or applied.
func (w *Watcher) Failures() int64 { return w.failures.Load() }

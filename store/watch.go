package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher keeps an in-memory snapshot of a Store and refreshes it when the
// file's modification time advances.
type Watcher struct {
	store    *Store
	interval time.Duration
	step     time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	records  []Record
	modTime  time.Time
	size     int64
	failed   time.Time
	onReload func([]Record)
}

// NewWatcher polls store roughly every interval once started. The snapshot
// is empty until the first Refresh.
func NewWatcher(store *Store, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	step := 100 * time.Millisecond
	if interval < step {
		step = interval
	}
	return &Watcher{
		store:    store,
		interval: interval,
		step:     step,
		log:      logger,
		records:  []Record{},
	}
}

// OnReload registers fn to run after every successful reload.
func (w *Watcher) OnReload(fn func([]Record)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Snapshot returns the current records. The slice is never mutated after
// publication; callers must not modify it.
func (w *Watcher) Snapshot() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Refresh reloads the store unconditionally. On failure the previous
// snapshot is kept.
func (w *Watcher) Refresh() error {
	info, err := os.Stat(w.store.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrStoreMissing
		}
		return err
	}
	records, err := w.store.Load()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.records = records
	w.modTime = info.ModTime()
	w.size = info.Size()
	fn := w.onReload
	w.mu.Unlock()

	w.log.Debug("snippet store loaded", "path", w.store.Path(), "count", len(records))
	if fn != nil {
		fn(records)
	}
	return nil
}

// Start polls until ctx is done. It sleeps in short steps so cancellation
// is observed promptly.
func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.step)
	defer ticker.Stop()

	var elapsed time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		elapsed += w.step
		if elapsed < w.interval {
			continue
		}
		elapsed = 0
		w.check()
	}
}

// check reloads if the file changed since the last successful load.
func (w *Watcher) check() {
	info, err := os.Stat(w.store.Path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("stat snippet store failed", "path", w.store.Path(), "error", err)
		}
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.modTime) || info.Size() != w.size
	retry := !info.ModTime().Equal(w.failed)
	w.mu.Unlock()
	if !changed || !retry {
		return
	}

	if err := w.Refresh(); err != nil {
		w.mu.Lock()
		w.failed = info.ModTime()
		w.mu.Unlock()
		w.log.Warn("snippet store reload failed, keeping previous snapshot",
			"path", w.store.Path(),
			"error", err,
		)
		return
	}
	w.log.Info("snippet store reloaded", "path", w.store.Path(), "count", len(w.Snapshot()))
}

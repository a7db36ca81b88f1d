// Package watcher reports changes of the live dataset file, whichever process
// performed the swap.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mosaic/internal/checksum"
	"github.com/starford/mosaic/internal/dataset"
)

// Change kinds.
const (
	ChangePublished = "published"
	ChangeRemoved   = "removed"
	ChangeCorrupt   = "corrupt"
)

// DefaultDebounce collapses the events of one rename chain into one check.
const DefaultDebounce = 200 * time.Millisecond

// Change describes the live file after a burst of file-system events.
type Change struct {
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Checksum string `json:"checksum,omitempty"`
	Entries  int    `json:"entries"`
}

// Callback is called once per detected change of the live file.
type Callback func(Change)

// Watcher observes the dataset directory.
type Watcher struct {
	store    *dataset.Store
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	cb       Callback

	last string // checksum of the live file at the last check
}

// New creates a watcher for store, whose files live in dir.
func New(store *dataset.Store, dir string, logger *slog.Logger, cb Callback) *Watcher {
	return &Watcher{store: store, dir: dir, debounce: DefaultDebounce, logger: logger, cb: cb}
}

// SetDebounce changes the settle delay.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Watch processes file-system events until ctx is cancelled. Any event on
// the live file name schedules a check after the debounce delay; the check
// compares checksums so a rewrite of identical content is not reported.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.last = w.currentChecksum()

	live := w.store.Paths().Live
	w.logger.Info("watcher: started", slog.String("dir", w.dir), slog.String("live", live))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			w.check()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != live {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("watcher: live file event", slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) currentChecksum() string {
	data, err := w.store.Provider().Read(w.store.Paths().Live)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

// check compares the live file against the last seen state.
func (w *Watcher) check() {
	live := w.store.Paths().Live
	data, err := w.store.Provider().Read(live)
	if err != nil {
		if w.last == "" {
			return
		}
		w.last = ""
		w.logger.Warn("watcher: live dataset missing", slog.String("file", live))
		w.emit(Change{Kind: ChangeRemoved, File: live})
		return
	}

	sum := checksum.Sum(data)
	if sum == w.last {
		return
	}
	w.last = sum

	entries, err := dataset.Decode(data, w.store.Collection())
	if err != nil {
		w.logger.Warn("watcher: live dataset unreadable", slog.String("file", live), slog.String("error", err.Error()))
		w.emit(Change{Kind: ChangeCorrupt, File: live, Checksum: sum})
		return
	}
	w.logger.Info("watcher: live dataset changed",
		slog.String("checksum", checksum.Short(sum)), slog.Int("entries", len(entries)))
	w.emit(Change{Kind: ChangePublished, File: live, Checksum: sum, Entries: len(entries)})
}

func (w *Watcher) emit(c Change) {
	if w.cb != nil {
		w.cb(c)
	}
}

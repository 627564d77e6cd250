package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	goutils "go.viam.com/utils"

	"github.com/hangar84/robolift/logging"
)

// A Watcher reports writes to a parameter file so the control loop can hot
// reload subsystem parameters between ticks.
type Watcher struct {
	events    chan struct{}
	fsWatcher *fsnotify.Watcher
	logger    logging.Logger

	closeOnce sync.Once
	workers   sync.WaitGroup
}

// NewWatcher watches the given parameter file for changes.
//
// The watch is placed on the file's directory, filtered by name: editors
// commonly save by writing a temporary file and renaming it over the
// target, which replaces the inode a direct file watch is pinned to and
// would silently end the watch. A rename-over save surfaces as a Create
// for the target name on the directory watch instead.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(target)); err != nil {
		goutils.UncheckedError(fsWatcher.Close())
		return nil, err
	}
	w := &Watcher{
		events:    make(chan struct{}, 1),
		fsWatcher: fsWatcher,
		logger:    logger,
	}
	w.workers.Add(1)
	goutils.ManagedGo(func() {
		for {
			select {
			case ev, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				select {
				case w.events <- struct{}{}:
				default: // an event is already pending
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				if w.logger != nil {
					w.logger.Errorw("parameter file watch error", "error", err)
				}
			}
		}
	}, w.workers.Done)
	return w, nil
}

// Events returns a channel that receives after the watched file is
// written. Successive writes before the event is consumed coalesce.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsWatcher.Close()
		w.workers.Wait()
	})
	return err
}

// Package playlistwatch reports changes to a playlist config file.
package playlistwatch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is how long the file must stay quiet before a change is
// reported.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches the directory of one file so editors that replace the
// file on save are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	target   string
	clock    clockwork.Clock
	debounce time.Duration

	// Events receives the file path after each change. Closed by Close.
	Events chan string
	// Errors receives watcher errors. Closed by Close.
	Errors chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New starts watching path.
func New(path string) (*Watcher, error) {
	return newWatcher(path, clockwork.NewRealClock(), DefaultDebounce)
}

func newWatcher(path string, clock clockwork.Clock, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := newLoop(abs, clock, debounce)
	w.watcher = fw
	go w.run(fw.Events, fw.Errors)
	return w, nil
}

func newLoop(target string, clock clockwork.Clock, debounce time.Duration) *Watcher {
	return &Watcher{
		target:   target,
		clock:    clock,
		debounce: debounce,
		Events:   make(chan string, 4),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
		<-w.done
	})
	return err
}

// run owns the outgoing channels and closes them on exit. A burst of changes
// is reported once, after the file has been quiet for the debounce interval.
func (w *Watcher) run(events <-chan fsnotify.Event, errs <-chan error) {
	defer close(w.done)
	defer close(w.Errors)
	defer close(w.Events)

	var timer clockwork.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if w.debounce <= 0 {
				if !w.emit() {
					return
				}
				continue
			}
			switch {
			case timer == nil:
				timer = w.clock.NewTimer(w.debounce)
			case fire != nil:
				if !timer.Stop() {
					select {
					case <-timer.Chan():
					default:
					}
				}
				timer.Reset(w.debounce)
			default:
				timer.Reset(w.debounce)
			}
			fire = timer.Chan()
		case <-fire:
			fire = nil
			if !w.emit() {
				return
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// emit reports the target, returning false once the watcher is closing.
func (w *Watcher) emit() bool {
	select {
	case w.Events <- w.target:
		return true
	case <-w.closeCh:
		return false
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.target
}

package out

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	hclog "github.com/hashicorp/go-hclog"
)

const rosterDebounce = 300 * time.Millisecond

// RosterWatcher signals when a roster file is written or replaced. It watches
// the parent directory so editors that save through a rename are noticed.
// Bursts of events collapse into one signal.
type RosterWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   hclog.Logger
	changes  chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewRosterWatcher(path string, logger hclog.Logger) (*RosterWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve roster path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RosterWatcher{
		watcher:  watcher,
		path:     abs,
		debounce: rosterDebounce,
		logger:   logger.Named("roster-watch"),
		changes:  make(chan struct{}, 1),
	}, nil
}

// Changes delivers one value per settled burst of writes.
func (w *RosterWatcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *RosterWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

func (w *RosterWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()
}

func (w *RosterWatcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *RosterWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.signal)
}

func (w *RosterWatcher) signal() {
	w.logger.Debug("roster changed", "path", w.path)
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

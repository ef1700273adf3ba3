package scheduler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

const watchDebounce = 250 * time.Millisecond

// ConfigStore is the part of hub.ConfigStore the refresher drives.
type ConfigStore interface {
	Initialize(ctx context.Context) error
	Refresh(ctx context.Context) (*domain.Snapshot, error)
}

// ConfigRefresher keeps the published configuration fresh: on start, on a
// ticker, on manual triggers and when the static document changes on disk.
type ConfigRefresher struct {
	store         ConfigStore
	logger        logger.Logger
	interval      time.Duration
	watchPath     string
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewConfigRefresher creates a refresher. interval <= 0 disables periodic
// refreshes; an empty watchPath disables file watching.
func NewConfigRefresher(
	store ConfigStore,
	log logger.Logger,
	interval time.Duration,
	watchPath string,
	manualTrigger chan struct{},
) *ConfigRefresher {
	return &ConfigRefresher{
		store:         store,
		logger:        log,
		interval:      interval,
		watchPath:     watchPath,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start initializes the store and begins the refresh loop. A failed
// initial load is logged, not returned: the server stays up, reports not
// ready, and later refreshes may recover.
func (cr *ConfigRefresher) Start(ctx context.Context) error {
	if err := cr.store.Initialize(ctx); err != nil {
		cr.logger.Error("initial configuration load failed",
			logger.Error(err))
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if cr.interval > 0 {
		ticker = time.NewTicker(cr.interval)
		tick = ticker.C
	}

	watcher, events := cr.watch()

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		if watcher != nil {
			defer watcher.Close()
		}

		var debounce *time.Timer
		var debounced <-chan time.Time

		for {
			select {
			case <-tick:
				cr.refresh(ctx, "interval")
			case <-cr.manualTrigger:
				cr.logger.Info("manual refresh triggered")
				cr.refresh(ctx, "manual")
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Clean(ev.Name) != filepath.Clean(cr.watchPath) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(watchDebounce)
				} else {
					debounce.Reset(watchDebounce)
				}
				debounced = debounce.C
			case <-debounced:
				debounced = nil
				cr.logger.Info("static document changed",
					logger.String("path", cr.watchPath))
				cr.refresh(ctx, "file change")
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher
func (cr *ConfigRefresher) Stop() {
	close(cr.stopCh)
}

func (cr *ConfigRefresher) refresh(ctx context.Context, cause string) {
	if _, err := cr.store.Refresh(ctx); err != nil {
		cr.logger.Error("failed to refresh configuration",
			logger.String("cause", cause),
			logger.Error(err))
	}
}

// watch watches the directory of watchPath, so that editors replacing the
// file atomically are still noticed.
func (cr *ConfigRefresher) watch() (*fsnotify.Watcher, <-chan fsnotify.Event) {
	if cr.watchPath == "" {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cr.logger.Warn("file watching disabled", logger.Error(err))
		return nil, nil
	}
	if err := watcher.Add(filepath.Dir(cr.watchPath)); err != nil {
		cr.logger.Warn("file watching disabled",
			logger.String("path", cr.watchPath),
			logger.Error(err))
		_ = watcher.Close()
		return nil, nil
	}

	go func() {
		for err := range watcher.Errors {
			cr.logger.Warn("file watcher error", logger.Error(err))
		}
	}()

	return watcher, watcher.Events
}

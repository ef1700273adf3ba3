package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

const (
	// DefaultClickGCThreshold is how long a link must be missing from the
	// published snapshot before its counter is deleted
	DefaultClickGCThreshold = 7 * 24 * time.Hour
)

// ClickStore is the click counter surface of the Redis store.
type ClickStore interface {
	ClickedLinkIDs(ctx context.Context) ([]string, error)
	DeleteClicks(ctx context.Context, linkIDs ...string) error
}

// SnapshotSource returns the published snapshot.
type SnapshotSource interface {
	Current() *domain.Snapshot
}

// ClickCollector deletes click counters of links that left the directory.
//
// A link can be absent from one snapshot and present in the next (a
// static fallback hides remote links), so a counter is only deleted once
// its link has been missing for longer than the threshold.
type ClickCollector struct {
	store     ClickStore
	snapshots SnapshotSource
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	missing   map[string]time.Time // link ID -> first seen missing
	now       func() time.Time
	stopCh    chan struct{}
}

// NewClickCollector creates a new click collector
func NewClickCollector(
	store ClickStore,
	snapshots SnapshotSource,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *ClickCollector {
	if threshold == 0 {
		threshold = DefaultClickGCThreshold
	}

	return &ClickCollector{
		store:     store,
		snapshots: snapshots,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		missing:   make(map[string]time.Time),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (cc *ClickCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := cc.Collect(ctx); err != nil {
		cc.logger.Warn("initial click collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(cc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := cc.Collect(ctx); err != nil {
					cc.logger.Error("click collection failed",
						logger.Error(err))
				}
			case <-cc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (cc *ClickCollector) Stop() {
	close(cc.stopCh)
}

// Collect deletes expired counters and returns how many were deleted.
// Collect is not safe for concurrent use; Start runs it from one goroutine.
func (cc *ClickCollector) Collect(ctx context.Context) (int, error) {
	snap := cc.snapshots.Current()
	if snap == nil {
		cc.logger.Debug("no snapshot published yet, skipping click collection")
		return 0, nil
	}

	ids, err := cc.store.ClickedLinkIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := cc.now()
	present := snap.LinkIDs()
	var expired []string

	counted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		counted[id] = struct{}{}

		if _, ok := present[id]; ok {
			delete(cc.missing, id)
			continue
		}

		since, seen := cc.missing[id]
		if !seen {
			cc.missing[id] = now
			continue
		}
		if now.Sub(since) >= cc.threshold {
			expired = append(expired, id)
		}
	}

	// Forget links whose counter disappeared by other means
	for id := range cc.missing {
		if _, ok := counted[id]; !ok {
			delete(cc.missing, id)
		}
	}

	if len(expired) == 0 {
		cc.logger.Debug("no click counters to collect")
		return 0, nil
	}

	if err := cc.store.DeleteClicks(ctx, expired...); err != nil {
		return 0, err
	}
	for _, id := range expired {
		delete(cc.missing, id)
	}

	cc.logger.Info("garbage collected click counters",
		logger.Int("deleted", len(expired)),
		logger.Strings("link_ids", expired))

	return len(expired), nil
}

package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// SnapshotResolver produces a fresh snapshot.
type SnapshotResolver interface {
	Resolve(ctx context.Context) (*domain.Snapshot, error)
}

// Listener is called once per published snapshot. Listeners run
// synchronously, in registration order, and must not call Refresh.
type Listener func(*domain.Snapshot)

// State describes the store lifecycle.
type State struct {
	Ready       bool
	Loading     bool
	Origin      domain.Origin
	LastPublish time.Time
	LastError   error
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// ConfigStore holds the latest published snapshot.
//
// Every refresh takes a ticket when it starts. A completed resolution is
// published only if no later-started refresh has already published, so an
// old resolution never overwrites a newer one. A failed refresh leaves the
// published snapshot untouched.
type ConfigStore struct {
	resolver SnapshotResolver
	observer Observer
	logger   logger.Logger

	initOnce sync.Once
	initErr  error

	tickets  atomic.Uint64
	inflight atomic.Int32

	// publishMu serializes publish and notification so listeners observe
	// snapshots in publish order.
	publishMu sync.Mutex

	mu          sync.RWMutex
	current     *domain.Snapshot
	published   uint64
	lastPublish time.Time
	lastErr     error

	listenersMu  sync.Mutex
	listeners    []listenerEntry
	nextListener uint64
}

// NewConfigStore creates an empty store.
func NewConfigStore(resolver SnapshotResolver, obs Observer, log logger.Logger) *ConfigStore {
	return &ConfigStore{
		resolver: resolver,
		observer: observerOrNop(obs),
		logger:   log,
	}
}

// Initialize resolves and publishes the first snapshot. Only the first call
// resolves; later calls return its result.
func (s *ConfigStore) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		_, s.initErr = s.Refresh(ctx)
	})
	return s.initErr
}

// Current returns the last published snapshot, or nil before the first
// successful resolution.
func (s *ConfigStore) Current() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// State returns the lifecycle state.
func (s *ConfigStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Ready:       s.current != nil,
		Loading:     s.inflight.Load() > 0,
		LastPublish: s.lastPublish,
		LastError:   s.lastErr,
	}
	if s.current != nil {
		st.Origin = s.current.Origin
	}
	return st
}

// Refresh resolves again and publishes the result.
//
// On success it returns the snapshot now current, which is a newer one
// when a later refresh finished first. On failure the current snapshot
// is kept and the resolution error is returned.
func (s *ConfigStore) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	ticket := s.tickets.Add(1)

	s.inflight.Add(1)
	snap, err := s.resolver.Resolve(ctx)
	s.inflight.Add(-1)

	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error("configuration refresh failed, keeping current snapshot",
			logger.Error(err))
		return nil, err
	}

	if !s.publish(ticket, snap) {
		s.observer.ObserveDiscardedRefresh()
		s.logger.Debug("discarding stale refresh result",
			logger.Uint64("ticket", ticket))
		return s.Current(), nil
	}

	return snap, nil
}

func (s *ConfigStore) publish(ticket uint64, snap *domain.Snapshot) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if ticket < s.published {
		s.mu.Unlock()
		return false
	}
	s.current = snap
	s.published = ticket
	s.lastPublish = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("configuration published",
		logger.String("origin", string(snap.Origin)),
		logger.Int("categories", len(snap.Categories)),
		logger.Int("links", len(snap.Links)))

	for _, l := range s.snapshotListeners() {
		l.fn(snap)
	}
	return true
}

// Subscribe registers fn for future publishes and returns a function that
// unregisters it.
func (s *ConfigStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *ConfigStore) snapshotListeners() []listenerEntry {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	out := make([]listenerEntry, len(s.listeners))
	copy(out, s.listeners)
	return out
}

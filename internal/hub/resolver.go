// Package hub resolves, caches and saves the hub configuration.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// StaticSource produces the static-origin snapshot.
type StaticSource interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

// SessionProvider answers "is there a current session".
type SessionProvider interface {
	CurrentSession(ctx context.Context) (*auth.Session, error)
}

// RemoteReader is the read surface of the remote store.
type RemoteReader interface {
	Settings(ctx context.Context) (*domain.CompanyConfig, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Links(ctx context.Context) ([]domain.LinkEntry, error)
}

// Resolver picks the authoritative origin and builds one snapshot per call.
type Resolver struct {
	static   StaticSource
	sessions SessionProvider
	remote   RemoteReader
	observer Observer
	logger   logger.Logger
	now      func() time.Time
}

// NewResolver creates a resolver. sessions and remote may be nil, in which
// case every resolution is static.
func NewResolver(static StaticSource, sessions SessionProvider, remote RemoteReader, obs Observer, log logger.Logger) *Resolver {
	return &Resolver{
		static:   static,
		sessions: sessions,
		remote:   remote,
		observer: observerOrNop(obs),
		logger:   log,
		now:      time.Now,
	}
}

// Resolve returns the authoritative snapshot.
//
// Only an unreadable static document fails. Any session or remote store
// problem is logged and answered with the static snapshot.
func (r *Resolver) Resolve(ctx context.Context) (*domain.Snapshot, error) {
	start := r.now()

	static, err := r.static.Snapshot(ctx)
	if err != nil {
		r.observer.ObserveResolveFailure()
		return nil, &ConfigLoadError{Reason: "static document unreadable", Err: err}
	}

	snap := r.resolveRemote(ctx, static)
	r.observer.ObserveResolution(snap.Origin, r.now().Sub(start))
	return snap, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, static *domain.Snapshot) *domain.Snapshot {
	if !static.Config.AdminEnabled || r.sessions == nil || r.remote == nil {
		return static
	}

	sess, err := r.sessions.CurrentSession(ctx)
	if err != nil {
		r.fallback(FallbackTransport, fmt.Errorf("%w: session lookup: %v", ErrRemoteTransport, err))
		return static
	}
	if sess == nil {
		r.observer.ObserveFallback(FallbackNoSession)
		return static
	}

	remote, err := r.readRemote(ctx, static)
	if err != nil {
		reason := FallbackTransport
		if errors.Is(err, ErrRemoteMergeIncomplete) {
			reason = FallbackIncomplete
		}
		r.fallback(reason, err)
		return static
	}

	r.logger.Debug("resolved configuration from remote store",
		logger.String("user", sess.UserID),
		logger.Int("categories", len(remote.Categories)),
		logger.Int("links", len(remote.Links)))
	return remote
}

func (r *Resolver) fallback(reason string, err error) {
	r.observer.ObserveFallback(reason)

	// An incomplete remote store is an expected state (not yet seeded)
	log := r.logger.Warn
	if reason == FallbackIncomplete {
		log = r.logger.Info
	}
	log("falling back to static configuration",
		logger.String("reason", reason),
		logger.Error(err))
}

// readRemote runs the three reads concurrently and merges them only when
// all three came back non-empty.
func (r *Resolver) readRemote(ctx context.Context, static *domain.Snapshot) (*domain.Snapshot, error) {
	var (
		settings   *domain.CompanyConfig
		categories []domain.Category
		links      []domain.LinkEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = r.remote.Settings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = r.remote.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = r.remote.Links(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteTransport, err)
	}

	switch {
	case settings == nil:
		return nil, fmt.Errorf("%w: no settings record", ErrRemoteMergeIncomplete)
	case len(categories) == 0:
		return nil, fmt.Errorf("%w: no categories", ErrRemoteMergeIncomplete)
	case len(links) == 0:
		return nil, fmt.Errorf("%w: no links", ErrRemoteMergeIncomplete)
	}

	cfg := *settings
	cfg.AdminEnabled = static.Config.AdminEnabled
	cfg.Theme = mergeTheme(cfg.Theme, static.Config.Theme)

	return &domain.Snapshot{
		Config:     cfg,
		Categories: categories,
		Links:      links,
		Origin:     domain.OriginRemote,
		ResolvedAt: r.now(),
	}, nil
}

// mergeTheme fills tokens missing from the remote theme with the static ones.
func mergeTheme(remote, static domain.ThemeSpec) domain.ThemeSpec {
	pick := func(r, s string) string {
		if r != "" {
			return r
		}
		return s
	}
	return domain.ThemeSpec{
		Primary:             pick(remote.Primary, static.Primary),
		PrimaryForeground:   pick(remote.PrimaryForeground, static.PrimaryForeground),
		Accent:              pick(remote.Accent, static.Accent),
		AccentForeground:    pick(remote.AccentForeground, static.AccentForeground),
		Background:          pick(remote.Background, static.Background),
		Foreground:          pick(remote.Foreground, static.Foreground),
		Card:                pick(remote.Card, static.Card),
		CardForeground:      pick(remote.CardForeground, static.CardForeground),
		Secondary:           pick(remote.Secondary, static.Secondary),
		SecondaryForeground: pick(remote.SecondaryForeground, static.SecondaryForeground),
		Muted:               pick(remote.Muted, static.Muted),
		MutedForeground:     pick(remote.MutedForeground, static.MutedForeground),
		Border:              pick(remote.Border, static.Border),
	}
}

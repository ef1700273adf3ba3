package hub

import (
	"time"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

// Observer receives resolution and save events (metrics).
type Observer interface {
	ObserveResolution(origin domain.Origin, took time.Duration)
	ObserveFallback(reason string)
	ObserveResolveFailure()
	ObserveDiscardedRefresh()
	ObserveSaveFailure()
}

// Fallback reasons reported to Observer.
const (
	FallbackNoSession  = "no_session"
	FallbackIncomplete = "incomplete"
	FallbackTransport  = "transport"
)

type nopObserver struct{}

func (nopObserver) ObserveResolution(domain.Origin, time.Duration) {}
func (nopObserver) ObserveFallback(string)                         {}
func (nopObserver) ObserveResolveFailure()                         {}
func (nopObserver) ObserveDiscardedRefresh()                       {}
func (nopObserver) ObserveSaveFailure()                            {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}

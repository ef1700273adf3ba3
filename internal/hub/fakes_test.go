package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

func testLogger() logger.Logger {
	return logger.New("error", false)
}

func staticSnapshot(adminEnabled bool) *domain.Snapshot {
	return &domain.Snapshot{
		Config: domain.CompanyConfig{
			AdminEnabled:   adminEnabled,
			CompanyName:    "Acme (static)",
			CompanyTagline: "Static tagline",
			Theme:          domain.ThemeSpec{Primary: "1 1% 1%", Border: "2 2% 2%"},
		},
		Categories: []domain.Category{{ID: "hr", Name: "HR", Icon: "Users"}},
		Links: []domain.LinkEntry{
			{ID: "s1", Title: "Static", URL: "https://static.acme.test", Categories: []string{"hr"}},
		},
		Origin: domain.OriginStatic,
	}
}

type fakeStatic struct {
	snap *domain.Snapshot
	err  error
}

func (f *fakeStatic) Snapshot(context.Context) (*domain.Snapshot, error) {
	return f.snap, f.err
}

type fakeSessions struct {
	sess *auth.Session
	err  error
}

func (f *fakeSessions) CurrentSession(context.Context) (*auth.Session, error) {
	return f.sess, f.err
}

type fakeRemote struct {
	settings   *domain.CompanyConfig
	categories []domain.Category
	links      []domain.LinkEntry
	linksErr   error
	calls      atomic.Int32
}

func (f *fakeRemote) Settings(context.Context) (*domain.CompanyConfig, error) {
	f.calls.Add(1)
	return f.settings, nil
}

func (f *fakeRemote) Categories(context.Context) ([]domain.Category, error) {
	f.calls.Add(1)
	return f.categories, nil
}

func (f *fakeRemote) Links(context.Context) ([]domain.LinkEntry, error) {
	f.calls.Add(1)
	return f.links, f.linksErr
}

func fullRemote() *fakeRemote {
	return &fakeRemote{
		settings: &domain.CompanyConfig{
			CompanyName: "Acme (remote)",
			Theme:       domain.ThemeSpec{Primary: "9 9% 9%"},
		},
		categories: []domain.Category{{ID: "it", Name: "IT", Icon: "Laptop"}},
		links: []domain.LinkEntry{
			{ID: "r1", Title: "Remote", URL: "https://remote.acme.test", Categories: []string{"it"}},
		},
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	origins    []domain.Origin
	fallbacks  []string
	failures   int
	discarded  int
	saveFailed int
}

func (o *recordingObserver) ObserveResolution(origin domain.Origin, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.origins = append(o.origins, origin)
}

func (o *recordingObserver) ObserveFallback(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, reason)
}

func (o *recordingObserver) ObserveResolveFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func (o *recordingObserver) ObserveDiscardedRefresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded++
}

func (o *recordingObserver) ObserveSaveFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.saveFailed++
}

// scriptedResolver returns queued results in call order. A result with a
// non-nil gate blocks until the gate is closed.
type scriptedResolver struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	snap    *domain.Snapshot
	err     error
	started chan struct{}
	gate    chan struct{}
}

func (r *scriptedResolver) push(res scriptedResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *scriptedResolver) Resolve(context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	res := r.results[r.calls]
	r.calls++
	r.mu.Unlock()

	if res.started != nil {
		close(res.started)
	}
	if res.gate != nil {
		<-res.gate
	}
	return res.snap, res.err
}

func (r *scriptedResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

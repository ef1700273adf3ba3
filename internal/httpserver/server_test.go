package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/hub"
	"github.com/MrSnakeDoc/hublink/internal/logger"
	"github.com/MrSnakeDoc/hublink/internal/metrics"
	"github.com/MrSnakeDoc/hublink/internal/sources/static"
	"github.com/MrSnakeDoc/hublink/internal/weather"
)

// ─────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────

type fakeStore struct {
	mu         sync.Mutex
	snap       *domain.Snapshot
	refreshErr error
	refreshCtx context.Context
}

func (s *fakeStore) Current() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fakeStore) State() hub.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return hub.State{LastError: errors.New("static document unreadable")}
	}
	return hub.State{Ready: true, Origin: s.snap.Origin, LastPublish: s.snap.ResolvedAt}
}

func (s *fakeStore) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCtx = ctx
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.snap, nil
}

type fakeSaver struct {
	got  hub.EditBuffer
	snap *domain.Snapshot
	err  error
}

func (s *fakeSaver) Save(_ context.Context, buf hub.EditBuffer) (*domain.Snapshot, error) {
	s.got = buf
	return s.snap, s.err
}

type fakeValidator map[string]*auth.Session

func (v fakeValidator) Validate(_ context.Context, token string) (*auth.Session, error) {
	if sess, ok := v[token]; ok {
		cp := *sess
		return &cp, nil
	}
	if token == "expired" {
		return nil, auth.ErrExpiredToken
	}
	return nil, auth.ErrInvalidToken
}

type fakeRoles map[string]bool

func (r fakeRoles) HasRole(_ context.Context, userID, role string) (bool, error) {
	return role == "admin" && r[userID], nil
}

type fakeAuthenticator struct{}

func (fakeAuthenticator) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	switch {
	case email == "admin@acme.test" && password == "secret":
		return &auth.Session{UserID: "u-admin", Email: email, Token: "admin-token"}, nil
	case email == "staff@acme.test" && password == "secret":
		return &auth.Session{UserID: "u-staff", Email: email, Token: "staff-token"}, nil
	default:
		return nil, auth.ErrBadLogin
	}
}

type fakeClicks struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *fakeClicks) IncrementClicks(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[id]++
	return c.counts[id], nil
}

func (c *fakeClicks) ClickStats(context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, nil
}

type fakeWeather struct {
	w   *domain.Weather
	err error
}

func (f fakeWeather) Current() (*domain.Weather, error) { return f.w, f.err }

// ─────────────────────────────────────────────────────────────────
// Harness
// ─────────────────────────────────────────────────────────────────

func testSnapshot(adminEnabled bool) *domain.Snapshot {
	return &domain.Snapshot{
		Config: domain.CompanyConfig{
			AdminEnabled: adminEnabled,
			CompanyName:  "Acme",
		},
		Categories: []domain.Category{
			{ID: "hr", Name: "HR", Icon: "Users"},
			{ID: "it", Name: "IT", Icon: "NotAnIcon"},
		},
		Links: []domain.LinkEntry{
			{ID: "1", Title: "Test Link 1", Description: "Payroll", URL: "https://test1.com", Categories: []string{"hr"}},
			{ID: "2", Title: "Test Link 2", Description: "Tickets", URL: "https://test2.com", Categories: []string{"it"}},
			{ID: "3", Title: "Another Link", Description: "Wiki", URL: "https://test3.com", Categories: []string{"hr", "it"}},
		},
		Origin:     domain.OriginStatic,
		ResolvedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

type harness struct {
	handler http.Handler
	store   *fakeStore
	saver   *fakeSaver
	clicks  *fakeClicks
	trigger chan struct{}
}

func newHarness(t *testing.T, snap *domain.Snapshot, opts ...func(*deps.Deps)) *harness {
	t.Helper()

	h := &harness{
		store:   &fakeStore{snap: snap},
		saver:   &fakeSaver{snap: snap},
		clicks:  &fakeClicks{counts: map[string]int64{}},
		trigger: make(chan struct{}, 1),
	}

	log := logger.New("error", false)
	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		Version:       "test",
		Store:         h.store,
		Saver:         h.saver,
		Validator:     fakeValidator{"admin-token": {UserID: "u-admin"}, "staff-token": {UserID: "u-staff"}},
		Roles:         fakeRoles{"u-admin": true},
		Authenticator: fakeAuthenticator{},
		AdminRole:     "admin",
		Clicks:        h.clicks,
		Metrics:       metrics.NewCollector(),
		ReloadTrigger: h.trigger,
	}
	for _, opt := range opts {
		opt(&d)
	}

	h.handler = NewRouter(5*time.Second, false, nil, log, d)
	return h
}

func (h *harness) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ─────────────────────────────────────────────────────────────────
// Public read API
// ─────────────────────────────────────────────────────────────────

type linksBody struct {
	Links []domain.LinkEntry `json:"links"`
	Count int                `json:"count"`
	Total int                `json:"total"`
}

func linkIDs(links []domain.LinkEntry) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}

func TestLinksFiltering(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"no criteria", "/api/links", []string{"1", "2", "3"}},
		{"query", "/api/links?q=link%202", []string{"2"}},
		{"query is case insensitive", "/api/links?q=WIKI", []string{"3"}},
		{"category", "/api/links?category=it", []string{"2", "3"}},
		{"categories repeated", "/api/links?category=hr&category=it", []string{"1", "2", "3"}},
		{"categories comma separated", "/api/links?category=hr,finance", []string{"1", "3"}},
		{"category and query", "/api/links?category=hr&q=test", []string{"1"}},
		{"no match", "/api/links?q=nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, tt.target, "", "")
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode[linksBody](t, rec)
			assert.Equal(t, tt.want, linkIDs(body.Links))
			assert.Equal(t, len(tt.want), body.Count)
			assert.Equal(t, 3, body.Total)
		})
	}
}

func TestReadAPIWithoutSnapshot(t *testing.T) {
	h := newHarness(t, nil)

	for _, target := range []string{"/api/links", "/api/categories", "/api/config", "/config.json", "/go/1"} {
		rec := h.do(http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"retryable":true`, target)
	}
}

func TestCategoriesResolveIcons(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	rec := h.do(http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Categories []domain.Category `json:"categories"`
		Count      int               `json:"count"`
	}](t, rec)
	require.Len(t, body.Categories, 2)
	assert.Equal(t, "Users", body.Categories[0].Icon)
	assert.Equal(t, domain.DefaultIcon, body.Categories[1].Icon)
	assert.Equal(t, 2, body.Count)

	// The published snapshot is not modified
	assert.Equal(t, "NotAnIcon", h.store.Current().Categories[1].Icon)
}

func TestCategoryLinks(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	rec := h.do(http.MethodGet, "/api/categories/hr/links?q=another", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"3"}, linkIDs(decode[linksBody](t, rec).Links))

	rec = h.do(http.MethodGet, "/api/categories/finance/links", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigEndpoints(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	rec := h.do(http.MethodGet, "/api/config", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[struct {
		Config domain.CompanyConfig `json:"config"`
		Origin domain.Origin        `json:"origin"`
	}](t, rec)
	assert.Equal(t, "Acme", cfg.Config.CompanyName)
	assert.Equal(t, domain.OriginStatic, cfg.Origin)

	rec = h.do(http.MethodGet, "/config.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[static.Document](t, rec)
	require.NotNil(t, doc.Config)
	assert.Equal(t, "Acme", doc.Config.CompanyName)
	assert.Len(t, doc.Links, 3)
	assert.Len(t, doc.Categories, 2)
}

func TestGoRedirectCountsClicks(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	rec := h.do(http.MethodGet, "/go/2", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://test2.com", rec.Header().Get("Location"))

	h.do(http.MethodGet, "/go/2", "", "")
	stats, _ := h.clicks.ClickStats(context.Background())
	assert.Equal(t, int64(2), stats["2"])

	rec = h.do(http.MethodGet, "/go/404", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoRedirectWithoutRedis(t *testing.T) {
	h := newHarness(t, testSnapshot(false), func(d *deps.Deps) { d.Clicks = nil })

	rec := h.do(http.MethodGet, "/go/1", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestWeather(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, testSnapshot(false))
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/weather", "", "").Code)
	})

	t.Run("not fetched yet", func(t *testing.T) {
		h := newHarness(t, testSnapshot(false), func(d *deps.Deps) {
			d.Weather = fakeWeather{err: weather.ErrUnavailable}
		})
		assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/weather", "", "").Code)
	})

	t.Run("available", func(t *testing.T) {
		h := newHarness(t, testSnapshot(false), func(d *deps.Deps) {
			d.Weather = fakeWeather{w: &domain.Weather{City: "Lyon", TemperatureC: 21, Condition: domain.ConditionClear}}
		})
		rec := h.do(http.MethodGet, "/api/weather", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Lyon", decode[domain.Weather](t, rec).City)
	})
}

// ─────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────

func TestHealthzAndReadyz(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", "").Code)

	rec := h.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)

	h.store.snap = testSnapshot(false)
	rec = h.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"origin":"static"`)
}

func TestReloadIsAsyncAndCoalesced(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	assert.Equal(t, http.StatusAccepted, h.do(http.MethodPost, "/reload", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/reload", "", "").Code)

	<-h.trigger
	assert.Equal(t, http.StatusAccepted, h.do(http.MethodPost, "/reload", "", "").Code)
}

func TestInfra(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	rec := h.do(http.MethodGet, "/infra", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Status string `json:"status"`
	}](t, rec)
	assert.Equal(t, "operational", body.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, testSnapshot(false))
	h.do(http.MethodGet, "/api/links", "", "")

	rec := h.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hublink_http_requests_total")
}

// ─────────────────────────────────────────────────────────────────
// Admin
// ─────────────────────────────────────────────────────────────────

func TestAdminDisabledAnswers404(t *testing.T) {
	h := newHarness(t, testSnapshot(false))

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/admin/session", "admin-token", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@acme.test","password":"secret"}`).Code)
}

func TestAdminWithoutAuthBackendAnswers404(t *testing.T) {
	h := newHarness(t, testSnapshot(true), func(d *deps.Deps) {
		d.Validator = nil
		d.Roles = nil
	})
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/admin/session", "admin-token", "").Code)
}

func TestAdminAuthentication(t *testing.T) {
	h := newHarness(t, testSnapshot(true))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "garbage", http.StatusUnauthorized},
		{"expired token", "expired", http.StatusUnauthorized},
		{"not an admin", "staff-token", http.StatusForbidden},
		{"admin", "admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/admin/session", tt.token, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAdminLogin(t *testing.T) {
	h := newHarness(t, testSnapshot(true))

	rec := h.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@acme.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-token", decode[map[string]string](t, rec)["token"])

	rec = h.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@acme.test","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/admin/login", "", `{"email":"staff@acme.test","password":"secret"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/admin/login", "", `{"email":"not-an-email","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Burst of 5 is spent: the limiter kicks in
	rec = h.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@acme.test","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@acme.test","password":"secret"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAdminSaveConfig(t *testing.T) {
	body := `{"config":{"companyName":"Acme"},"categories":[{"id":"hr","name":"HR"}],"links":[]}`

	t.Run("success returns the refreshed snapshot", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true))
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Acme", h.saver.got.Config.CompanyName)
		assert.Len(t, h.saver.got.Categories, 1)
	})

	t.Run("validation errors", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true))
		h.saver.err = &hub.ValidationError{Problems: []string{"companyName is required"}}
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "companyName is required")
	})

	t.Run("store failure echoes the draft", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true))
		h.saver.err = &hub.SaveError{Err: errors.New("deadlock detected")}
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", body)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decode[struct {
			Draft hub.EditBuffer `json:"draft"`
		}](t, rec)
		assert.Equal(t, "Acme", resp.Draft.Config.CompanyName)
	})

	t.Run("saved but refresh failed", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true))
		h.saver.err = hub.ErrRefreshAfterSave
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", body)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), `"saved":true`)
		assert.Len(t, h.trigger, 1)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true))
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", `{"cfg":{}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no remote store", func(t *testing.T) {
		h := newHarness(t, testSnapshot(true), func(d *deps.Deps) { d.Saver = nil })
		rec := h.do(http.MethodPut, "/api/admin/config", "admin-token", body)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestAdminRefreshCarriesSession(t *testing.T) {
	h := newHarness(t, testSnapshot(true))

	rec := h.do(http.MethodPost, "/api/admin/refresh", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sess, ok := auth.SessionFromContext(h.store.refreshCtx)
	require.True(t, ok)
	assert.Equal(t, "u-admin", sess.UserID)
	assert.Equal(t, "admin-token", auth.TokenFromContext(h.store.refreshCtx))

	h.store.refreshErr = errors.New("remote down")
	rec = h.do(http.MethodPost, "/api/admin/refresh", "admin-token", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAdminStats(t *testing.T) {
	h := newHarness(t, testSnapshot(true))
	h.clicks.counts = map[string]int64{"3": 5, "1": 2, "gone": 9}

	rec := h.do(http.MethodGet, "/api/admin/stats", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Enabled bool `json:"enabled"`
		Links   []struct {
			ID     string `json:"id"`
			Clicks int64  `json:"clicks"`
		} `json:"links"`
		Total int64 `json:"total"`
	}](t, rec)

	assert.True(t, body.Enabled)
	require.Len(t, body.Links, 3)
	assert.Equal(t, "3", body.Links[0].ID)
	assert.Equal(t, "1", body.Links[1].ID)
	assert.Equal(t, int64(0), body.Links[2].Clicks)
	assert.Equal(t, int64(7), body.Total)
}

// Package metrics exposes Prometheus metrics for the hub.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

const namespace = "hublink"

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Configuration metrics
	resolutions       *prometheus.CounterVec
	resolveDuration   prometheus.Histogram
	fallbacks         *prometheus.CounterVec
	resolveFailures   prometheus.Counter
	discardedRefresh  prometheus.Counter
	saveFailures      prometheus.Counter
	publishedLinks    prometheus.Gauge
	publishedCategory prometheus.Gauge

	// Usage metrics
	clicks prometheus.Counter
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_resolutions_total",
			Help:      "Configuration resolutions by origin",
		}, []string{"origin"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "config_resolve_duration_seconds",
			Help:      "Configuration resolution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_static_fallbacks_total",
			Help:      "Resolutions that fell back to the static document, by reason",
		}, []string{"reason"}),
		resolveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_resolve_failures_total",
			Help:      "Resolutions that failed because the static document was unreadable",
		}),
		discardedRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_refresh_discarded_total",
			Help:      "Refresh results discarded because a newer refresh already published",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_save_failures_total",
			Help:      "Admin saves rejected by the remote store",
		}),
		publishedLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_links",
			Help:      "Number of links in the published snapshot",
		}),
		publishedCategory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_categories",
			Help:      "Number of categories in the published snapshot",
		}),
		clicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_clicks_total",
			Help:      "Total number of link redirects",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.httpDuration,
		c.resolutions, c.resolveDuration, c.fallbacks, c.resolveFailures,
		c.discardedRefresh, c.saveFailures,
		c.publishedLinks, c.publishedCategory,
		c.clicks,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveResolution(origin domain.Origin, took time.Duration) {
	c.resolutions.WithLabelValues(string(origin)).Inc()
	c.resolveDuration.Observe(took.Seconds())
}

func (c *Collector) ObserveFallback(reason string) {
	c.fallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) ObserveResolveFailure()   { c.resolveFailures.Inc() }
func (c *Collector) ObserveDiscardedRefresh() { c.discardedRefresh.Inc() }
func (c *Collector) ObserveSaveFailure()      { c.saveFailures.Inc() }
func (c *Collector) ObserveClick()            { c.clicks.Inc() }

// ObservePublished tracks the size of the published snapshot. It is meant
// to be registered as a store listener.
func (c *Collector) ObservePublished(snap *domain.Snapshot) {
	c.publishedLinks.Set(float64(len(snap.Links)))
	c.publishedCategory.Set(float64(len(snap.Categories)))
}

// Middleware records request counts and durations by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

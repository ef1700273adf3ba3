// Package weather fetches current conditions from open-meteo for the
// dashboard widget.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// ErrUnavailable is returned when no observation was fetched yet.
var ErrUnavailable = errors.New("weather unavailable")

// Cache stores observations between restarts and replicas.
type Cache interface {
	GetCachedWeather(ctx context.Context, lat, lon float64) (*domain.Weather, error)
	CacheWeather(ctx context.Context, lat, lon float64, w domain.Weather, ttl time.Duration) error
}

// Options configures the client.
type Options struct {
	BaseURL   string
	City      string
	Latitude  float64
	Longitude float64
	Interval  time.Duration // also the cache TTL
	Timeout   time.Duration
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Client polls open-meteo through a circuit breaker and keeps the last
// observation in memory.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	cache   Cache
	opts    Options
	logger  logger.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current *domain.Weather
}

// NewClient creates a client. cache may be nil.
func NewClient(opts Options, cache Cache, log logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			SetHeader("Accept", "application/json"),
		cache:  cache,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Interval:    time.Hour,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("weather circuit breaker state changed",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})

	return c
}

// Current returns the last observation.
func (c *Client) Current() (*domain.Weather, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, ErrUnavailable
	}
	w := *c.current
	return &w, nil
}

// Refresh fetches a new observation, preferring a fresh cache entry.
func (c *Client) Refresh(ctx context.Context) error {
	if w := c.fromCache(ctx); w != nil {
		c.set(w)
		return nil
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}

	w := res.(*domain.Weather)
	c.set(w)

	if c.cache != nil {
		if err := c.cache.CacheWeather(ctx, c.opts.Latitude, c.opts.Longitude, *w, c.opts.Interval); err != nil {
			c.logger.Warn("failed to cache weather", logger.Error(err))
		}
	}
	return nil
}

func (c *Client) fromCache(ctx context.Context) *domain.Weather {
	if c.cache == nil {
		return nil
	}
	w, err := c.cache.GetCachedWeather(ctx, c.opts.Latitude, c.opts.Longitude)
	if err != nil {
		c.logger.Warn("failed to read weather cache", logger.Error(err))
		return nil
	}
	return w
}

func (c *Client) fetch(ctx context.Context) (*domain.Weather, error) {
	var body forecastResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(c.opts.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(c.opts.Longitude, 'f', -1, 64),
			"current":   "temperature_2m,wind_speed_10m,weather_code",
			"timezone":  "auto",
		}).
		SetResult(&body).
		Get("/v1/forecast")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("open-meteo returned status %d", resp.StatusCode())
	}

	return &domain.Weather{
		City:         c.opts.City,
		TemperatureC: int(math.Round(body.Current.Temperature)),
		WindSpeedKmh: int(math.Round(body.Current.WindSpeed)),
		Code:         body.Current.WeatherCode,
		Condition:    domain.DescribeWeatherCode(body.Current.WeatherCode),
		FetchedAt:    c.now(),
	}, nil
}

func (c *Client) set(w *domain.Weather) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = w
}

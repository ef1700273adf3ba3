package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// WeatherSource is refreshed by the poller.
type WeatherSource interface {
	Refresh(ctx context.Context) error
}

// WeatherPoller refreshes the weather widget on an interval.
type WeatherPoller struct {
	source   WeatherSource
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewWeatherPoller(source WeatherSource, log logger.Logger, interval time.Duration) *WeatherPoller {
	return &WeatherPoller{
		source:   source,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start polls immediately and then on every interval
func (wp *WeatherPoller) Start(ctx context.Context) error {
	wp.poll(ctx)

	ticker := time.NewTicker(wp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				wp.poll(ctx)
			case <-wp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the poller
func (wp *WeatherPoller) Stop() {
	close(wp.stopCh)
}

func (wp *WeatherPoller) poll(ctx context.Context) {
	if err := wp.source.Refresh(ctx); err != nil {
		wp.logger.Warn("failed to refresh weather", logger.Error(err))
	}
}

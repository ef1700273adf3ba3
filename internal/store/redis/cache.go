package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hublink/internal/domain"
)

// CacheWeather stores a weather observation for coordinates
func (s *Store) CacheWeather(ctx context.Context, lat, lon float64, w domain.Weather, ttl time.Duration) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal weather: %w", err)
	}
	if err := s.client.Set(ctx, WeatherKey(lat, lon), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache weather: %w", err)
	}
	return nil
}

// GetCachedWeather retrieves a cached observation, nil on cache miss
func (s *Store) GetCachedWeather(ctx context.Context, lat, lon float64) (*domain.Weather, error) {
	data, err := s.client.Get(ctx, WeatherKey(lat, lon)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached weather: %w", err)
	}

	var w domain.Weather
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weather: %w", err)
	}
	return &w, nil
}

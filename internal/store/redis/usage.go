package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// IncrementClicks increments the click counter of a link and returns the new value
func (s *Store) IncrementClicks(ctx context.Context, linkID string) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, ClickKey(linkID))
		pipe.SAdd(ctx, ClickedLinksKey(), linkID)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment clicks: %w", err)
	}
	return incr.Val(), nil
}

// ClickedLinkIDs returns the IDs of all links with a counter
func (s *Store) ClickedLinkIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, ClickedLinksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get clicked link IDs: %w", err)
	}
	return ids, nil
}

// ClickStats retrieves the click counters of all links
func (s *Store) ClickStats(ctx context.Context) (map[string]int64, error) {
	ids, err := s.ClickedLinkIDs(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ClickKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get click counters: %w", err)
	}

	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Counter expired or deleted, skip it
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			continue
		}
		stats[ids[i]] = n
	}

	return stats, nil
}

// DeleteClicks removes the counters of the given links
func (s *Store) DeleteClicks(ctx context.Context, linkIDs ...string) error {
	if len(linkIDs) == 0 {
		return nil
	}

	keys := make([]string, len(linkIDs))
	members := make([]interface{}, len(linkIDs))
	for i, id := range linkIDs {
		keys[i] = ClickKey(id)
		members[i] = id
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, ClickedLinksKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete click counters: %w", err)
	}
	return nil
}

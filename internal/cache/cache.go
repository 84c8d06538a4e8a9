package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Connect dials Redis from a redis:// URL and fails fast with a ping, so a
// bad cache address surfaces at startup instead of on the first request.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Place details are immutable for practical purposes, aggregations go stale
// on every record write, so the TTLs differ by two orders of magnitude.
const (
	placeTTL = 24 * time.Hour
	aggTTL   = 5 * time.Minute
)

// Cache wraps a Redis client with typed get/set for place details and the
// per-user aggregation views.
type Cache struct {
	client   *redis.Client
	placeTTL time.Duration
	aggTTL   time.Duration
}

// NewCache constructs a Cache with the default TTLs.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, placeTTL: placeTTL, aggTTL: aggTTL}
}

func placeKey(placeID string) string { return "place:" + placeID }

func aggKey(userID int64, view string) string {
	return "agg:" + strconv.FormatInt(userID, 10) + ":" + view
}

// getJSON retrieves and unmarshals a key into dst. Reports false on a miss.
func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}
	return true, nil
}

// setJSON marshals v and stores it under key with the given TTL.
func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling for cache key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetPlaceDetails returns nil, nil on a cache miss (not an error).
func (c *Cache) GetPlaceDetails(ctx context.Context, placeID string) (*record.PlaceDetails, error) {
	var d record.PlaceDetails
	hit, err := c.getJSON(ctx, placeKey(placeID), &d)
	if err != nil || !hit {
		return nil, err
	}
	return &d, nil
}

// SetPlaceDetails stores resolved place details.
func (c *Cache) SetPlaceDetails(ctx context.Context, placeID string, d *record.PlaceDetails) error {
	if d == nil {
		return nil
	}
	return c.setJSON(ctx, placeKey(placeID), d, c.placeTTL)
}

// GetAvgRatings returns nil, nil on a cache miss.
func (c *Cache) GetAvgRatings(ctx context.Context, userID int64) ([]record.AvgRating, error) {
	var out []record.AvgRating
	hit, err := c.getJSON(ctx, aggKey(userID, "avg"), &out)
	if err != nil || !hit {
		return nil, err
	}
	return out, nil
}

// SetAvgRatings stores the avg-rating-by-country view for a user.
func (c *Cache) SetAvgRatings(ctx context.Context, userID int64, out []record.AvgRating) error {
	return c.setJSON(ctx, aggKey(userID, "avg"), out, c.aggTTL)
}

// GetTopDestinations returns nil, nil on a cache miss.
func (c *Cache) GetTopDestinations(ctx context.Context, userID int64) ([]record.TopDestination, error) {
	var out []record.TopDestination
	hit, err := c.getJSON(ctx, aggKey(userID, "top"), &out)
	if err != nil || !hit {
		return nil, err
	}
	return out, nil
}

// SetTopDestinations stores the top-destination-per-month view for a user.
func (c *Cache) SetTopDestinations(ctx context.Context, userID int64, out []record.TopDestination) error {
	return c.setJSON(ctx, aggKey(userID, "top"), out, c.aggTTL)
}

// InvalidateAggregations drops both aggregation views for a user. Called
// after any record write.
func (c *Cache) InvalidateAggregations(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, aggKey(userID, "avg"), aggKey(userID, "top")).Err(); err != nil {
		return fmt.Errorf("cache invalidate aggregations for user %d: %w", userID, err)
	}
	return nil
}

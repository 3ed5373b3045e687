// Package cache keeps the most recent reading per sensor in Redis so the
// status panel can answer without touching Postgres. The cache is optional:
// when Redis is not configured or a call fails, callers fall back to the
// reading store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

const latestKey = "latest_readings"

// ReadingCache mirrors the latest value per sensor into a Redis hash.
type ReadingCache struct {
	client *redis.Client
	logger logging.Logger
}

// New connects a reading cache. The connection is verified lazily; use Ping
// for an eager check at boot.
func New(addr, password string, db int, logger logging.Logger) *ReadingCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &ReadingCache{client: client, logger: logger}
}

// Ping verifies the Redis connection.
func (c *ReadingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the underlying connection for health checks.
func (c *ReadingCache) Client() *redis.Client {
	return c.client
}

// Close releases the connection pool.
func (c *ReadingCache) Close() error {
	return c.client.Close()
}

// SetLatest overwrites the cached entry for each reading's sensor. A failed
// write is logged and swallowed; the cache never blocks ingestion.
func (c *ReadingCache) SetLatest(ctx context.Context, readings []models.Reading) {
	if len(readings) == 0 {
		return
	}

	pairs := make([]interface{}, 0, len(readings)*2)
	for _, r := range readings {
		payload, err := json.Marshal(r)
		if err != nil {
			c.logger.WithError(err).WithField("sensor", r.SensorName).Warn("Failed to encode cached reading")
			continue
		}
		pairs = append(pairs, r.SensorName, payload)
	}
	if len(pairs) == 0 {
		return
	}

	if err := c.client.HSet(ctx, latestKey, pairs...).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to cache latest readings")
	}
}

// Latest returns the cached reading per sensor, sorted by sensor name. An
// empty cache yields an empty slice and no error.
func (c *ReadingCache) Latest(ctx context.Context) ([]models.Reading, error) {
	entries, err := c.client.HGetAll(ctx, latestKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read latest readings from cache: %w", err)
	}

	readings := make([]models.Reading, 0, len(entries))
	for sensor, payload := range entries {
		var r models.Reading
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			c.logger.WithError(err).WithField("sensor", sensor).Warn("Dropping corrupt cache entry")
			continue
		}
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].SensorName < readings[j].SensorName
	})
	return readings, nil
}

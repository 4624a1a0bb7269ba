package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jethotel/internal/metrics"
	"jethotel/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyPrefix  = "jethotel:availability"
	versionKey = keyPrefix + ":version"
)

// AvailabilityCache caches date-range availability searches in Redis.
// Every entry is keyed by a generation number; Invalidate bumps the
// generation so all older entries stop matching and expire on their own.
type AvailabilityCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewAvailabilityCache returns a cache backed by client. A nil client or a
// non-positive ttl disables caching.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	l := logger.With().Str("component", "availability_cache").Logger()
	return &AvailabilityCache{redis: client, ttl: ttl, logger: &l}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

func (c *AvailabilityCache) version(ctx context.Context) (int64, error) {
	v, err := c.redis.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func rangeKey(version int64, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("%s:v%d:%s:%s", keyPrefix, version,
		checkIn.Format(models.DateLayout), checkOut.Format(models.DateLayout))
}

// NoVersion is returned by Get when the generation could not be read.
// Set ignores it.
const NoVersion int64 = -1

// Get returns the cached rooms for the range, if any, along with the
// generation it looked under. A caller that computes the rooms after a miss
// passes that generation back to Set.
func (c *AvailabilityCache) Get(ctx context.Context, checkIn, checkOut time.Time) ([]models.Room, int64, bool) {
	if !c.enabled() {
		return nil, NoVersion, false
	}
	v, err := c.version(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("read cache version")
		metrics.IncCache("error")
		return nil, NoVersion, false
	}
	val, err := c.redis.Get(ctx, rangeKey(v, checkIn, checkOut)).Result()
	if err != nil {
		metrics.IncCache("miss")
		return nil, v, false
	}
	var rooms []models.Room
	if err := json.Unmarshal([]byte(val), &rooms); err != nil {
		metrics.IncCache("error")
		return nil, v, false
	}
	metrics.IncCache("hit")
	return rooms, v, true
}

// Set stores rooms for the range under generation version, the one Get
// returned before the rooms were read. If a write invalidated the cache in
// between, the entry lands under a dead generation and is never served.
func (c *AvailabilityCache) Set(ctx context.Context, version int64, checkIn, checkOut time.Time, rooms []models.Room) {
	if !c.enabled() || version < 0 {
		return
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, rangeKey(version, checkIn, checkOut), data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("write availability cache")
	}
}

// Invalidate drops every cached search.
func (c *AvailabilityCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.redis.Incr(ctx, versionKey).Err()
}

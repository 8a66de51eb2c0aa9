package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is a best-effort duplicate filter over Redis SET NX. The
// database unique constraint on the source identifier is the real
// invariant; this only saves a round trip on obvious repeats.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Release drops a key claimed by AcquireOnce so the item can be retried
// before the TTL expires. Best effort, like the acquire.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)
	if err := d.rdb.Del(ctx, redisKey).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Redis dedup release failed",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// AcquireOnce returns true the first time it sees key within the TTL.
// When Redis is unavailable it fails open and returns true.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, redisKey, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("scope", scope),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated item",
			zap.String("scope", scope),
			zap.String("key", key),
		)
	}

	return ok
}

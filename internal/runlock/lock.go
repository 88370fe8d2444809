package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock guards against overlapping scheduled runs with a date-keyed Redis
// SET NX. It is advisory: deployments without Redis rely on the scheduler
// not firing concurrently.
type Lock struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Lock{rdb: rdb, ttl: ttl}
}

func key(pipeline string, day time.Time) string {
	return fmt.Sprintf("runlock:%s:%s", pipeline, day.UTC().Format("2006-01-02"))
}

// Acquire takes today's lock for the pipeline. Returns false when another
// run already holds it.
func (l *Lock) Acquire(ctx context.Context, pipeline string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	ok, err := l.rdb.SetNX(ctx, key(pipeline, time.Now()), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}

// Release drops today's lock so a failed run can be retried the same day.
func (l *Lock) Release(ctx context.Context, pipeline string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(pipeline, time.Now())).Err()
}

package gate

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateWindow is a counter partitioned by (identity, hour bucket). Incr must
// serialize increment-then-read for concurrent callers on the same identity.
type RateWindow interface {
	// Incr bumps the identity's counter for the hour containing now and
	// returns the post-increment count.
	Incr(identity string, now time.Time) (int64, error)
	// Count returns the current count without incrementing.
	Count(identity string, now time.Time) (int64, error)
}

// MemoryWindow is the default per-process window. Buckets are keyed by
// identity and hour; when the hour rolls over every bucket in the map is
// stale, so the whole map is dropped instead of pruning key by key.
type MemoryWindow struct {
	mu     sync.Mutex
	hour   string
	counts map[string]int64
}

func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{counts: make(map[string]int64)}
}

func (w *MemoryWindow) Incr(identity string, now time.Time) (int64, error) {
	key := hourBucket(identity, now)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollover(now)
	w.counts[key]++
	return w.counts[key], nil
}

func (w *MemoryWindow) Count(identity string, now time.Time) (int64, error) {
	key := hourBucket(identity, now)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollover(now)
	return w.counts[key], nil
}

// rollover discards all buckets once now enters a new hour. Callers hold mu.
func (w *MemoryWindow) rollover(now time.Time) {
	hour := now.UTC().Format("2006-01-02-15")
	if hour != w.hour {
		w.hour = hour
		w.counts = make(map[string]int64)
	}
}

// RedisWindow shares the quota across processes. Keys carry a two-hour TTL
// so finished buckets age out on their own.
type RedisWindow struct {
	client *redis.Client
}

func NewRedisWindow(addr, password string, db int) *RedisWindow {
	return &RedisWindow{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (w *RedisWindow) Incr(identity string, now time.Time) (int64, error) {
	ctx := context.Background()
	key := "rate:" + hourBucket(identity, now)
	count, err := w.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = w.client.Expire(ctx, key, 2*time.Hour).Err()
	}
	return count, nil
}

func (w *RedisWindow) Count(identity string, now time.Time) (int64, error) {
	ctx := context.Background()
	key := "rate:" + hourBucket(identity, now)
	count, err := w.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

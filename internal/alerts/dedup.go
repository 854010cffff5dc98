package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/scent-admin/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Deduper remembers the last stock status seen per product. Swap stores
// status and returns the previous one ("" when there was none).
type Deduper interface {
	Swap(ctx context.Context, productID, status string) (prev string, err error)
}

// RedisDeduper shares the last-seen status across watcher replicas. Entries
// expire after the dedup window.
type RedisDeduper struct {
	Redis   *redis.Client
	Service string
}

func (d RedisDeduper) Swap(ctx context.Context, productID, status string) (string, error) {
	key := fmt.Sprintf(redisx.KeyDedup, d.Service, productID)
	prev, err := d.Redis.SetArgs(ctx, key, status, redis.SetArgs{Get: true, TTL: redisx.TTLDedup}).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return prev, err
}

// MemoryDeduper never expires; fine for tests and single-shot runs.
type MemoryDeduper struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{last: map[string]string{}}
}

func (d *MemoryDeduper) Swap(_ context.Context, productID, status string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.last[productID]
	d.last[productID] = status
	return prev, nil
}

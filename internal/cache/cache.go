// Package cache is the shared read-through cache used by every resource
// service. Entries expire after a per-read TTL and any write clears the
// whole cache.
package cache

import (
	"context"
	"net/url"
	"sync"
	"time"
)

const (
	CatalogTTL   = 5 * time.Minute
	DashboardTTL = 60 * time.Second
)

// Clock lets tests control expiry.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Event is published to subscribers after every invalidation.
type Event struct {
	Generation uint64
	Reason     string
	Remote     bool
	At         time.Time
}

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

type Cache struct {
	clock Clock

	mu         sync.Mutex
	entries    map[string]entry
	generation uint64
	subs       map[int]func(Event)
	nextSub    int
}

func New(clock Clock) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache{
		clock:   clock,
		entries: make(map[string]entry),
		subs:    make(map[int]func(Event)),
	}
}

// Key builds a cache key from an endpoint name and its query parameters.
// url.Values.Encode sorts by key, so equal parameter sets give equal keys.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.clock.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// SetIfGeneration stores value only if no invalidation happened since gen
// was observed. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(key string, value any, ttl time.Duration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
	return true
}

func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate drops every entry and notifies subscribers.
func (c *Cache) Invalidate(reason string) {
	c.invalidate(reason, false)
}

// ApplyRemote is Invalidate for clears that originated in another process.
func (c *Cache) ApplyRemote(reason string) {
	c.invalidate(reason, true)
}

func (c *Cache) invalidate(reason string, remote bool) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.generation++
	ev := Event{Generation: c.generation, Reason: reason, Remote: remote, At: c.clock.Now()}
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribe registers fn for invalidation events. The returned func removes it.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Cloner is implemented by cached values that give every reader its own
// copy, such as list pages.
type Cloner[T any] interface {
	Clone() T
}

func detach[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Fetch returns the cached value for key or calls load and caches its
// result. A load that straddles an invalidation still returns its value to
// the caller but does not repopulate the cache.
//
// Values implementing Cloner are copied on the way out. Anything else is
// shared between readers and must be treated as read-only.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return detach(t), nil
		}
	}
	gen := c.Generation()
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetIfGeneration(key, v, ttl, gen)
	return detach(v), nil
}

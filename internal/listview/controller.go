package listview

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 400 * time.Millisecond

// Fetcher loads one page of T for st.
type Fetcher[T any] func(ctx context.Context, st State) (T, error)

// URLWriter receives the encoded state after every change. Writes replace
// the current history entry; they never push a new one.
type URLWriter interface {
	Replace(q url.Values)
}

type URLWriterFunc func(q url.Values)

func (f URLWriterFunc) Replace(q url.Values) { f(q) }

type Options[T any] struct {
	Debounce     time.Duration
	PollInterval time.Duration
	URL          URLWriter
	// Cache, when set, makes the controller refetch after every
	// invalidation.
	Cache    *cache.Cache
	OnChange func(Snapshot[T])
	Log      logrus.FieldLogger
}

// Snapshot is what the page renders. Loaded stays false until a fetch has
// succeeded once; Err holds the latest failure for the retry state.
type Snapshot[T any] struct {
	State      State
	Data       T
	Err        error
	Loading    bool
	Loaded     bool
	Generation uint64
}

type Controller[T any] struct {
	spec  Spec
	fetch Fetcher[T]
	opts  Options[T]
	log   logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	poller *Poller
	unsub  func()
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	snap        Snapshot[T]
	gen         uint64
	cancelFetch context.CancelFunc
	debounce    *time.Timer
	debounceSeq uint64
	closed      bool
}

// New hydrates the controller from the page's current query string. Nothing
// is fetched until Load.
func New[T any](parent context.Context, spec Spec, initial url.Values, fetch Fetcher[T], opts Options[T]) *Controller[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Controller[T]{
		spec:   spec,
		fetch:  fetch,
		opts:   opts,
		log:    log.WithField("page", spec.Name),
		ctx:    ctx,
		cancel: cancel,
		state:  spec.Decode(initial),
	}
	c.snap.State = c.state.Clone()
	c.poller = NewPoller(opts.PollInterval, func(context.Context) { c.Retry() })
	if opts.Cache != nil {
		c.unsub = opts.Cache.Subscribe(func(ev cache.Event) {
			c.async(func() { c.Retry() })
		})
	}
	return c
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.State = s.State.Clone()
	return s
}

// Load runs the initial fetch for the hydrated state.
func (c *Controller[T]) Load() Snapshot[T] { return c.run() }

// Retry reissues the fetch with the current state unchanged.
func (c *Controller[T]) Retry() Snapshot[T] { return c.run() }

// SetFilter changes one filter and goes back to page 1. An empty value
// clears the filter; keys the page does not know are ignored.
func (c *Controller[T]) SetFilter(key, value string) Snapshot[T] {
	if !c.spec.HasFilter(key) {
		return c.Snapshot()
	}
	return c.update(func(st *State) {
		if value = strings.TrimSpace(value); value == "" {
			delete(st.Filters, key)
		} else {
			st.Filters[key] = value
		}
		st.Page = 1
	})
}

func (c *Controller[T]) SetPage(n int) Snapshot[T] {
	return c.update(func(st *State) { st.Page = max(n, 1) })
}

func (c *Controller[T]) SetLimit(n int) Snapshot[T] {
	return c.update(func(st *State) {
		st.Limit = min(max(n, 1), MaxLimit)
		st.Page = 1
	})
}

func (c *Controller[T]) SetView(v string) Snapshot[T] {
	if !c.spec.HasView(v) {
		return c.Snapshot()
	}
	return c.update(func(st *State) { st.View = v })
}

// Reset drops search and filters and returns to the first page.
func (c *Controller[T]) Reset() Snapshot[T] {
	return c.update(func(st *State) {
		view := st.View
		*st = c.spec.Default()
		st.View = view
	})
}

// SetSearch records a keystroke. The fetch runs once input has been quiet
// for the debounce interval, with whatever the latest value is by then.
func (c *Controller[T]) SetSearch(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounceSeq++
	seq := c.debounceSeq
	s = strings.TrimSpace(s)
	c.debounce = time.AfterFunc(c.opts.Debounce, func() {
		c.mu.Lock()
		current := seq == c.debounceSeq && !c.closed
		c.mu.Unlock()
		if !current {
			return
		}
		c.async(func() {
			c.update(func(st *State) {
				st.Search = s
				st.Page = 1
			})
		})
	})
}

// StartPolling refetches on a fixed interval until StopPolling or Close.
func (c *Controller[T]) StartPolling() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}
	return c.poller.Start(c.ctx)
}

func (c *Controller[T]) StopPolling() { c.poller.Stop() }

func (c *Controller[T]) Polling() bool { return c.poller.Running() }

// Close stops every timer, cancels any fetch in flight and waits for
// background work to finish. Results that land afterwards are dropped.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.mu.Unlock()

	if c.unsub != nil {
		c.unsub()
	}
	c.cancel()
	c.poller.Stop()
	c.wg.Wait()
}

func (c *Controller[T]) update(mut func(*State)) Snapshot[T] {
	c.mu.Lock()
	if c.closed {
		s := c.snap
		c.mu.Unlock()
		return s
	}
	next := c.state.Clone()
	mut(&next)
	c.state = next
	q := c.spec.Encode(next)
	c.mu.Unlock()

	if c.opts.URL != nil {
		c.opts.URL.Replace(q)
	}
	return c.run()
}

// run fetches the current state. Each call takes a new generation and
// cancels the previous call's context; a result whose generation is no
// longer current is discarded.
func (c *Controller[T]) run() Snapshot[T] {
	c.mu.Lock()
	if c.closed {
		s := c.snap
		c.mu.Unlock()
		return s
	}
	c.gen++
	gen := c.gen
	st := c.state.Clone()
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel
	c.snap.Loading = true
	c.mu.Unlock()

	data, err := c.fetch(ctx, st)

	c.mu.Lock()
	if gen != c.gen {
		s := c.snap
		c.mu.Unlock()
		cancel()
		c.log.WithField("generation", gen).Debug("discarding stale response")
		return s
	}
	cancel()
	c.cancelFetch = nil
	next := Snapshot[T]{State: st, Data: c.snap.Data, Err: err, Loaded: c.snap.Loaded, Generation: gen}
	if err == nil {
		next.Data = data
		next.Loaded = true
	} else {
		c.log.WithError(err).Warn("list fetch failed")
	}
	c.snap = next
	c.mu.Unlock()

	if c.opts.OnChange != nil {
		c.opts.OnChange(next)
	}
	return next
}

func (c *Controller[T]) async(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

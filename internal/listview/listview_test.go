package listview_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/listview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	st := listview.Inventory.Default()
	st.Search = "rose"
	st.Filters["status"] = "low_stock"
	st.Page = 2

	q := listview.Inventory.Encode(st)
	assert.Equal(t, "page=2&search=rose&status=low_stock", q.Encode())

	parsed, err := url.ParseQuery(q.Encode())
	require.NoError(t, err)
	got := listview.Inventory.Decode(parsed)

	assert.True(t, st.Equal(got), "got %+v", got)
	assert.Equal(t, st, got)
}

func TestEncodeDecode_EveryPage(t *testing.T) {
	for name, spec := range listview.Specs {
		t.Run(name, func(t *testing.T) {
			st := spec.Default()
			st.Page = 3
			st.Limit = 50
			if st.Limit == spec.DefaultLimit {
				st.Limit = 10
			}
			for _, f := range spec.Filters {
				st.Filters[f] = f + "-value"
			}
			st.View = spec.Views[len(spec.Views)-1]

			assert.Equal(t, st, spec.Decode(spec.Encode(st)))
			assert.Empty(t, spec.Encode(spec.Default()), "defaults leave a clean url")
		})
	}
}

func TestDecode_FallsBackOnGarbage(t *testing.T) {
	q := url.Values{
		"page":    {"-4"},
		"limit":   {"5000"},
		"view":    {"kanban"},
		"unknown": {"x"},
		"parent":  {" c1 "},
	}

	st := listview.Categories.Decode(q)

	assert.Equal(t, 1, st.Page)
	assert.Equal(t, listview.MaxLimit, st.Limit)
	assert.Equal(t, "list", st.View)
	assert.Equal(t, map[string]string{"parent": "c1"}, st.Filters)
}

type urlLog struct {
	mu     sync.Mutex
	writes []string
}

func (u *urlLog) Replace(q url.Values) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.writes = append(u.writes, q.Encode())
}

func (u *urlLog) last() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.writes) == 0 {
		return ""
	}
	return u.writes[len(u.writes)-1]
}

func echo(ctx context.Context, st listview.State) (listview.State, error) { return st, nil }

func TestController_HydratesAndResetsPageOnFilterChange(t *testing.T) {
	urls := &urlLog{}
	initial, _ := url.ParseQuery("page=4&status=published&search=amber")
	c := listview.New(context.Background(), listview.Products, initial, echo, listview.Options[listview.State]{URL: urls})
	defer c.Close()

	snap := c.Load()
	require.True(t, snap.Loaded)
	assert.Equal(t, 4, snap.Data.Page)
	assert.Equal(t, "amber", snap.Data.Search)
	assert.Empty(t, urls.writes, "hydrating does not rewrite the url")

	snap = c.SetFilter("status", "draft")
	assert.Equal(t, 1, snap.Data.Page)
	assert.Equal(t, "draft", snap.Data.Filter("status"))
	assert.Equal(t, "search=amber&status=draft", urls.last())

	snap = c.SetPage(2)
	assert.Equal(t, 2, snap.Data.Page)
	assert.Equal(t, "page=2&search=amber&status=draft", urls.last())

	snap = c.SetFilter("status", "")
	assert.Equal(t, 1, snap.Data.Page)
	assert.Equal(t, "search=amber", urls.last())

	before := snap.Generation
	snap = c.SetFilter("not-a-filter", "x")
	assert.Equal(t, before, snap.Generation)
}

func TestController_DebouncesSearch(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var searched []string
	fetch := func(ctx context.Context, st listview.State) (int, error) {
		calls.Add(1)
		mu.Lock()
		searched = append(searched, st.Search)
		mu.Unlock()
		return 0, nil
	}
	c := listview.New(context.Background(), listview.Inventory, nil, fetch, listview.Options[int]{Debounce: 50 * time.Millisecond})
	defer c.Close()

	for _, s := range []string{"r", "ro", "ros", "rose"} {
		c.SetSearch(s)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	mu.Lock()
	assert.Equal(t, []string{"rose"}, searched)
	mu.Unlock()
	assert.Equal(t, "rose", c.State().Search)
}

func TestController_DiscardsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, st listview.State) (string, error) {
		if calls.Add(1) == 1 {
			<-release
			return "stale:" + st.Filter("status"), nil
		}
		return "fresh:" + st.Filter("status"), nil
	}
	c := listview.New(context.Background(), listview.Inventory, nil, fetch, listview.Options[string]{})
	defer c.Close()

	done := make(chan listview.Snapshot[string], 1)
	go func() { done <- c.SetFilter("status", "in_stock") }()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)

	snap := c.SetFilter("status", "low_stock")
	assert.Equal(t, "fresh:low_stock", snap.Data)

	close(release)
	late := <-done
	assert.Equal(t, "fresh:low_stock", late.Data)
	assert.Equal(t, "fresh:low_stock", c.Snapshot().Data)
	assert.Equal(t, "low_stock", c.Snapshot().State.Filter("status"))
}

func TestController_RetryReissuesSameFetch(t *testing.T) {
	var calls atomic.Int32
	var seen []listview.State
	fetch := func(ctx context.Context, st listview.State) (int, error) {
		seen = append(seen, st)
		if calls.Add(1) == 1 {
			return 0, errors.New("offline")
		}
		return 42, nil
	}
	initial := url.Values{"status": {"shipped"}, "page": {"2"}}
	c := listview.New(context.Background(), listview.Orders, initial, fetch, listview.Options[int]{})
	defer c.Close()

	snap := c.Load()
	require.Error(t, snap.Err)
	assert.False(t, snap.Loaded)

	snap = c.Retry()
	require.NoError(t, snap.Err)
	assert.True(t, snap.Loaded)
	assert.Equal(t, 42, snap.Data)
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

func TestController_PollingStopsCleanly(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, st listview.State) (int, error) {
		return int(calls.Add(1)), nil
	}
	c := listview.New(context.Background(), listview.Orders, nil, fetch, listview.Options[int]{PollInterval: 10 * time.Millisecond})

	require.True(t, c.StartPolling())
	assert.False(t, c.StartPolling(), "second start does not add a timer")
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, waitFor, tick)

	c.StopPolling()
	assert.False(t, c.Polling())
	stopped := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())

	require.True(t, c.StartPolling())
	require.Eventually(t, func() bool { return calls.Load() > stopped }, waitFor, tick)
	c.Close()
	closed := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, closed, calls.Load())
	assert.False(t, c.StartPolling())
}

func TestController_RefetchesOnCacheInvalidation(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, st listview.State) (int, error) {
		return int(calls.Add(1)), nil
	}
	cc := cache.New(cache.NewManualClock(time.Now()))
	c := listview.New(context.Background(), listview.Customers, nil, fetch, listview.Options[int]{Cache: cc})
	defer c.Close()

	c.Load()
	cc.Invalidate("PUT /admin/customers/u1")

	require.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, tick)
}

func TestController_CloseDropsPendingSearch(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, st listview.State) (int, error) {
		calls.Add(1)
		return 0, nil
	}
	c := listview.New(context.Background(), listview.Products, nil, fetch, listview.Options[int]{Debounce: 20 * time.Millisecond})

	c.SetSearch("musk")
	c.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Zero(t, calls.Load())
	snap := c.SetPage(3)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 0, snap.Data)
}

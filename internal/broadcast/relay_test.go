package broadcast_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/scent-admin/internal/broadcast"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/events"
	kafkax "github.com/ariefcatur/scent-admin/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePub struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (f *fakePub) Publish(key, value []byte, headers ...kafkago.Header) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
	return true
}

func (f *fakePub) sent() []kafkago.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafkago.Message(nil), f.msgs...)
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newRelay(t *testing.T) (*broadcast.Relay, *cache.Cache, *fakePub) {
	c := cache.New(cache.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	pub := &fakePub{}
	r := broadcast.NewRelay(c, pub, "scent-admin", quiet())
	stop := r.Start()
	t.Cleanup(stop)
	return r, c, pub
}

func TestRelay_PublishesLocalInvalidations(t *testing.T) {
	r, c, pub := newRelay(t)

	c.Invalidate("PUT /admin/products/p1")

	msgs := pub.sent()
	require.Len(t, msgs, 1)
	env, err := kafkax.UnmarshalEnvelope(msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, events.EventCacheInvalidated, env.EventType)
	assert.Equal(t, "scent-admin", env.Producer)

	p, err := kafkax.UnwrapPayload[events.CacheInvalidatedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, r.Origin, p.Origin)
	assert.Equal(t, "PUT /admin/products/p1", p.Reason)
	assert.EqualValues(t, 1, p.Generation)
}

func TestRelay_AppliesRemoteWithoutEcho(t *testing.T) {
	_, c, pub := newRelay(t)
	other, _, otherPub := newRelay(t)

	var got []cache.Event
	unsub := c.Subscribe(func(ev cache.Event) { got = append(got, ev) })
	defer unsub()
	c.Set("products", "cached", time.Minute)

	other.Cache.Invalidate("DELETE /admin/categories/c1")
	require.Len(t, otherPub.sent(), 1)

	r := broadcast.NewRelay(c, pub, "scent-admin", quiet())
	require.NoError(t, r.HandleInvalidated(context.Background(), otherPub.sent()[0]))

	require.Len(t, got, 1)
	assert.True(t, got[0].Remote)
	assert.Equal(t, "DELETE /admin/categories/c1", got[0].Reason)
	assert.Zero(t, c.Len())
	assert.Empty(t, pub.sent(), "remote clears are not sent back")
}

func TestRelay_SkipsOwnAndUndecodableMessages(t *testing.T) {
	r, c, pub := newRelay(t)
	c.Invalidate("POST /admin/products")
	own := pub.sent()[0]
	c.Set("k", 1, time.Minute)

	require.NoError(t, r.HandleInvalidated(context.Background(), own))
	require.NoError(t, r.HandleInvalidated(context.Background(), kafkago.Message{Value: []byte("{not json")}))

	lowStock, err := events.New(events.EventLowStock, "lowstock", time.Now(), events.LowStockPayload{ProductID: "p1"})
	require.NoError(t, err)
	require.NoError(t, r.HandleInvalidated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(lowStock)}))

	assert.Equal(t, 1, c.Len())
	assert.Len(t, pub.sent(), 1)
}

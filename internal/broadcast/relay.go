// Package broadcast shares cache invalidations between admin processes, so
// a write made through one console clears every other console's cache.
package broadcast

import (
	"context"

	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/events"
	kafkax "github.com/ariefcatur/scent-admin/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Relay struct {
	Cache   *cache.Cache
	Pub     Publisher
	Service string
	// Origin identifies this process in published events.
	Origin string
	Log    logrus.FieldLogger
}

func NewRelay(c *cache.Cache, pub Publisher, service string, log logrus.FieldLogger) *Relay {
	if log == nil {
		log = logrus.StandardLogger()
	}
	origin := uuid.NewString()
	return &Relay{Cache: c, Pub: pub, Service: service, Origin: origin, Log: log.WithField("origin", origin)}
}

// Start publishes every local invalidation until the returned func is
// called. Invalidations applied from other processes are not sent back.
func (r *Relay) Start() (stop func()) {
	return r.Cache.Subscribe(func(ev cache.Event) {
		if ev.Remote {
			return
		}
		r.publish(ev)
	})
}

func (r *Relay) publish(ev cache.Event) {
	env, err := events.New(events.EventCacheInvalidated, r.Service, ev.At, events.CacheInvalidatedPayload{
		Origin:     r.Origin,
		Reason:     ev.Reason,
		Generation: ev.Generation,
	})
	if err != nil {
		r.Log.WithError(err).Error("build invalidation event")
		return
	}
	env.CorrelationID = r.Origin
	if !r.Pub.Publish(events.PartitionKey(r.Origin), kafkax.MustMarshal(env), kafkax.EventHeaders(env)...) {
		r.Log.WithField("reason", ev.Reason).Warn("producer closed, invalidation not broadcast")
	}
}

// HandleInvalidated is the consumer handler for TopicCacheInvalidated.
func (r *Relay) HandleInvalidated(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		// poison message; log and let it commit
		r.Log.WithError(err).Warn("skipping undecodable message")
		return nil
	}
	if env.EventType != events.EventCacheInvalidated {
		return nil
	} // ignore
	p, err := kafkax.UnwrapPayload[events.CacheInvalidatedPayload](env.Payload)
	if err != nil {
		r.Log.WithError(err).Warn("skipping bad invalidation payload")
		return nil
	}
	if p.Origin == r.Origin {
		return nil
	}
	r.Log.WithFields(logrus.Fields{"from": p.Origin, "reason": p.Reason}).Debug("applying remote invalidation")
	r.Cache.ApplyRemote(p.Reason)
	return nil
}

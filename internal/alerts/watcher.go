// Package alerts watches the low-stock view and publishes one event per
// product and status change.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/events"
	"github.com/ariefcatur/scent-admin/internal/inventory"
	kafkax "github.com/ariefcatur/scent-admin/internal/kafka"
	"github.com/ariefcatur/scent-admin/internal/listview"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Watcher struct {
	Inventory *inventory.Service
	Dedup     Deduper
	Pub       Publisher
	Service   string
	Interval  time.Duration
	// Cache, when set, triggers an extra check after every invalidation.
	Cache *cache.Cache
	Log   logrus.FieldLogger
	Now   func() time.Time

	mu      sync.Mutex
	tracked map[string]bool // products last seen low or out of stock
}

// Run loads the low-stock view, then polls it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ctl := w.controller(ctx)
	defer ctl.Close()

	if snap := ctl.Load(); snap.Err != nil {
		w.logger().WithError(snap.Err).Warn("initial low-stock check failed, will retry on next poll")
	}
	ctl.StartPolling()
	<-ctx.Done()
	return nil
}

func (w *Watcher) controller(ctx context.Context) *listview.Controller[[]inventory.Item] {
	fetch := func(ctx context.Context, _ listview.State) ([]inventory.Item, error) {
		return w.Inventory.LowStock(ctx)
	}
	return listview.New(ctx, listview.Inventory, nil, fetch, listview.Options[[]inventory.Item]{
		PollInterval: w.Interval,
		Cache:        w.Cache,
		Log:          w.logger(),
		OnChange: func(snap listview.Snapshot[[]inventory.Item]) {
			if snap.Err == nil {
				w.Emit(ctx, snap.Data)
			}
		},
	})
}

// Emit publishes an alert for every item whose stock status moved to low or
// out of stock since it was last seen, and returns how many were sent.
// items is the whole low-stock view: a product that was tracked and is now
// missing from it is recorded as back in stock, so a later drop alerts again.
func (w *Watcher) Emit(ctx context.Context, items []inventory.Item) int {
	log := w.logger()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracked == nil {
		w.tracked = map[string]bool{}
	}

	sent := 0
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
		prev, err := w.Dedup.Swap(ctx, it.ID, string(it.Status))
		if err != nil {
			// tanpa dedup lebih baik skip daripada spam
			log.WithError(err).WithField("product", it.ID).Warn("dedup unavailable, skipping alert")
			continue
		}
		if it.Status == inventory.InStock {
			delete(w.tracked, it.ID)
			continue
		}
		w.tracked[it.ID] = true
		if prev == string(it.Status) {
			continue
		}
		if w.publish(it) {
			sent++
		}
	}

	for id := range w.tracked {
		if seen[id] {
			continue
		}
		if _, err := w.Dedup.Swap(ctx, id, string(inventory.InStock)); err != nil {
			log.WithError(err).WithField("product", id).Warn("dedup unavailable, restock not recorded")
			continue
		}
		delete(w.tracked, id)
	}
	return sent
}

func (w *Watcher) publish(it inventory.Item) bool {
	log := w.logger()
	env, err := events.New(events.EventLowStock, w.Service, w.now(), events.LowStockPayload{
		ProductID: it.ID,
		Name:      it.Name,
		SKU:       it.SKU,
		Quantity:  it.StockQuantity,
		Threshold: it.Threshold,
		Status:    string(it.Status),
	})
	if err != nil {
		log.WithError(err).Error("build low-stock event")
		return false
	}
	env.CorrelationID = it.ID
	if !w.Pub.Publish(events.PartitionKey(it.ID), kafkax.MustMarshal(env), kafkax.EventHeaders(env)...) {
		return false
	}
	log.WithFields(logrus.Fields{"product": it.ID, "status": it.Status, "qty": it.StockQuantity}).Info("low-stock alert published")
	return true
}

func (w *Watcher) logger() logrus.FieldLogger {
	if w.Log == nil {
		return logrus.StandardLogger()
	}
	return w.Log
}

func (w *Watcher) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

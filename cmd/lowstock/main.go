package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/scent-admin/internal/alerts"
	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/broadcast"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/config"
	"github.com/ariefcatur/scent-admin/internal/events"
	"github.com/ariefcatur/scent-admin/internal/inventory"
	kafkax "github.com/ariefcatur/scent-admin/internal/kafka"
	"github.com/ariefcatur/scent-admin/internal/redisx"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/ariefcatur/scent-admin/internal/session"
	"github.com/ariefcatur/scent-admin/internal/settings"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel).WithField("service", cfg.ServiceName+"-lowstock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: shared session + alert dedup
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.WithError(err).Warn("redis unreachable, session and dedup calls will fail until it is back")
	}

	tokens := &session.RedisStore{Redis: rdb, SessionID: cfg.SessionID}
	api, err := apiclient.New(apiclient.Config{
		BaseURL:  cfg.APIBaseURL,
		Tokens:   tokens,
		Notifier: apiclient.LogNotifier{Log: log},
		Logger:   log,
		Limiter:  apiclient.NewLimiter(cfg.APIRateLimit),
	})
	if err != nil {
		log.WithError(err).Fatal("api client")
	}

	// entries live half a poll, so each tick reaches the backend
	c := cache.New(cache.SystemClock{})
	svc := resource.NewService(api, c, cfg.PollInterval/2, log)

	// same threshold the consoles use
	threshold := cfg.LowStockThreshold
	if ok, _ := tokens.IsAuthenticated(ctx); ok {
		n, err := settings.NewService(svc, cfg.LowStockThreshold).LowStockThreshold(ctx)
		if err != nil {
			log.WithError(err).Warn("settings unavailable, using configured low-stock threshold")
		}
		threshold = n
	}
	inv := inventory.NewService(svc, threshold)

	// Producers: alerts keluar, invalidations masuk lewat relay
	pAlert := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicLowStock, 1024, log)
	pAlert.Start(ctx)
	pInv := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCacheInvalidated, 64, log)
	pInv.Start(ctx)

	relay := broadcast.NewRelay(c, pInv, cfg.ServiceName+"-lowstock", log)
	stopRelay := relay.Start()
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ServiceName+"-lowstock-"+relay.Origin, events.TopicCacheInvalidated, 2, log)
	go func() {
		if err := cons.Start(ctx, relay.HandleInvalidated); err != nil {
			log.WithError(err).Error("invalidation consumer exit")
		}
	}()

	w := &alerts.Watcher{
		Inventory: inv,
		Dedup:     alerts.RedisDeduper{Redis: rdb, Service: cfg.ServiceName + "-lowstock"},
		Pub:       pAlert,
		Service:   cfg.ServiceName + "-lowstock",
		Interval:  cfg.PollInterval,
		Cache:     c,
		Log:       log,
	}
	go func() {
		log.WithField("interval", cfg.PollInterval).Info("low-stock watcher started")
		_ = w.Run(ctx)
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down watcher...")
	stopRelay()
	cancel()
	time.Sleep(500 * time.Millisecond)
	pAlert.Close()
	pInv.Close()
	pAlert.WaitClosed()
	pInv.WaitClosed()
}

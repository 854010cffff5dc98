package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/broadcast"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/catalog"
	"github.com/ariefcatur/scent-admin/internal/config"
	"github.com/ariefcatur/scent-admin/internal/customers"
	"github.com/ariefcatur/scent-admin/internal/dashboard"
	"github.com/ariefcatur/scent-admin/internal/events"
	"github.com/ariefcatur/scent-admin/internal/httpx"
	"github.com/ariefcatur/scent-admin/internal/inventory"
	kafkax "github.com/ariefcatur/scent-admin/internal/kafka"
	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/redisx"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/ariefcatur/scent-admin/internal/session"
	"github.com/ariefcatur/scent-admin/internal/settings"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: persisted session
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.WithError(err).Warn("redis unreachable, session and dedup calls will fail until it is back")
	}
	tokens := &session.RedisStore{Redis: rdb, SessionID: cfg.SessionID}

	// API client
	api, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Tokens:    tokens,
		Notifier:  apiclient.LogNotifier{Log: log},
		Navigator: apiclient.NewRouteTracker("/"),
		Logger:    log,
		Limiter:   apiclient.NewLimiter(cfg.APIRateLimit),
	})
	if err != nil {
		log.WithError(err).Fatal("api client")
	}

	// Cache shared by every service
	c := cache.New(cache.SystemClock{})
	catalogSvc := resource.NewService(api, c, cfg.CatalogTTL, log)
	dashSvc := resource.NewService(api, c, cfg.DashboardTTL, log)

	// Threshold from store settings when the backend has one
	threshold := cfg.LowStockThreshold
	if ok, _ := tokens.IsAuthenticated(ctx); ok {
		n, err := settings.NewService(catalogSvc, cfg.LowStockThreshold).LowStockThreshold(ctx)
		if err != nil {
			log.WithError(err).Warn("settings unavailable, using configured low-stock threshold")
		}
		threshold = n
	}

	// Kafka: share invalidations with the other consoles
	prod := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCacheInvalidated, 1024, log)
	prod.Start(ctx)
	relay := broadcast.NewRelay(c, prod, cfg.ServiceName, log)
	stopRelay := relay.Start()
	defer stopRelay()

	// every console reads every invalidation, so each one gets its own group
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ServiceName+"-"+relay.Origin, events.TopicCacheInvalidated, 2, log)
	go func() {
		if err := cons.Start(ctx, relay.HandleInvalidated); err != nil {
			log.WithError(err).Error("invalidation consumer exit")
		}
	}()

	router := httpx.NewRouter()
	h := &httpx.ConsoleHandler{
		Products:   catalog.NewProducts(catalogSvc),
		Categories: catalog.NewCategories(catalogSvc),
		Orders:     orders.NewService(catalogSvc),
		Customers:  customers.NewService(catalogSvc),
		Inventory:  inventory.NewService(catalogSvc, threshold),
		Dashboard:  dashboard.NewService(dashSvc),
		Auth:       &session.Authenticator{API: api, Store: tokens},
		Log:        log,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("console listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	stopRelay()
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop and consumer
	prod.WaitClosed() // drain
}

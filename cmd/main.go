package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restopos/internal/config"
	httpapi "restopos/internal/http"
	"restopos/internal/logger"
	"restopos/internal/messaging"
	"restopos/internal/pos"
	"restopos/internal/repository"
	"restopos/internal/service"

	_ "restopos/docs"
)

type notifier interface {
	service.Notifier
	Close() error
}

//	@title			RestoPOS API
//	@version		1.0
//	@description	Point-of-sale draft orders, kitchen submission and order lifecycle.
//	@BasePath		/api/v1
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := repository.NewMemoryStore()
	checks := map[string]httpapi.Pinger{}
	var closers []func()

	// submitted orders
	var (
		ordersRepo repository.OrderRepository = repository.NewMemoryOrders(store)
		tx         repository.TxManager       = repository.NewMemoryTx(store)
	)
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPostgresOrders(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			log.Fatalw("failed to connect to PostgreSQL", "error", err)
		}
		ordersRepo, tx = pg, pg
		checks["database"] = pg
		closers = append(closers, pg.Close)
		log.Info("connected to PostgreSQL")
	} else {
		log.Warn("DATABASE_URL not set, submitted orders are kept in memory")
	}

	// drafts
	var drafts repository.DraftStore = repository.NewMemoryDrafts(store)
	if cfg.RedisAddr != "" {
		rd := repository.NewRedisDrafts(cfg.RedisAddr, "restopos", cfg.RedisDraftTTL)
		if err := rd.Ping(ctx); err != nil {
			log.Fatalw("failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		}
		drafts = rd
		checks["cache"] = rd
		closers = append(closers, func() {
			if err := rd.Close(); err != nil {
				log.Errorw("error closing Redis", "error", err)
			}
		})
		log.Infow("connected to Redis", "addr", cfg.RedisAddr)
	}

	// kitchen
	var pub notifier = messaging.NewLogPublisher(log)
	if cfg.RabbitMQURL != "" {
		p, err := messaging.NewPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatalw("failed to connect to RabbitMQ", "error", err)
		}
		pub = p
		log.Info("connected to RabbitMQ")
	}
	closers = append(closers, func() {
		if err := pub.Close(); err != nil {
			log.Errorw("error closing publisher", "error", err)
		}
	})

	opts := []pos.Option{pos.WithTaxRate(cfg.TaxRate)}
	if cfg.StrictDraft {
		opts = append(opts, pos.WithPolicy(pos.Strict))
	}
	reducer := pos.NewReducer(opts...)

	productsSvc := service.NewProductService(store)
	sessionsSvc := service.NewSessionService(store, drafts, reducer, log)
	ordersSvc := service.NewOrderService(sessionsSvc, ordersRepo, tx, pub, log)

	srv := httpapi.NewServer(httpapi.Config{CORSOrigins: cfg.CORSOrigins, Checks: checks}, productsSvc, sessionsSvc, ordersSvc, log)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Engine(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Infow("HTTP server listening", "addr", httpServer.Addr, "env", cfg.Env, "tax_rate", cfg.TaxRate.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	log.Infow("signal caught", "signal", s.String())

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown error", "error", err)
	}
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	log.Infow("server has stopped", "addr", cfg.Addr)
}

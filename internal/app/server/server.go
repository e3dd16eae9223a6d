package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bonus-promotion-service/internal/api"
	"bonus-promotion-service/internal/cache"
	"bonus-promotion-service/internal/commerce"
	"bonus-promotion-service/internal/config"
	"bonus-promotion-service/internal/engine"
	"bonus-promotion-service/internal/listener"
	"bonus-promotion-service/internal/storage"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Promotion catalog storage
	store, err := storage.New(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()

	// Commerce platform client
	client := commerce.NewClient(cfg.Commerce.BaseURL, cfg.Commerce.Token, cfg.CommerceTimeout())

	// Qualifying-product cache: redis when configured, in-process otherwise
	var productCache cache.ProductCache
	if cfg.Redis.Addr != "" {
		productCache = cache.NewRedisProductCache(
			redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}),
			cfg.ProductCacheTTL(),
		)
	} else {
		productCache = cache.NewMemoryProductCache(cfg.ProductCacheTTL())
	}

	// Engine
	eng := engine.New(client, client, productCache, cfg.Commerce.QualifyLimit)
	if err := eng.RefreshCatalog(rootCtx, store); err != nil {
		log.Fatal().Err(err).Msg("initial catalog load")
	}

	// HTTP
	h := api.NewBonusHandler(eng)
	r := api.Router(h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Catalog refresh on LISTEN/NOTIFY
	go listener.ListenAndRefresh(rootCtx, store, eng, cfg.Listener.Channel, cfg.Backoff())

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

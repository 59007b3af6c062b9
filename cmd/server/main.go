package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpHandlers "github.com/mokapos/ratelimit-gate/internal/adapters/http/handlers"
	httpMiddleware "github.com/mokapos/ratelimit-gate/internal/adapters/http/middleware"
	memorystorage "github.com/mokapos/ratelimit-gate/internal/adapters/storage/memory"
	redisstorage "github.com/mokapos/ratelimit-gate/internal/adapters/storage/redis"
	"github.com/mokapos/ratelimit-gate/internal/config"
	"github.com/mokapos/ratelimit-gate/internal/core/keygen"
	"github.com/mokapos/ratelimit-gate/internal/core/matcher"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
	"github.com/mokapos/ratelimit-gate/internal/core/services"
	"github.com/mokapos/ratelimit-gate/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Gate.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	policySet, err := config.LoadPolicies(cfg.Gate.PoliciesFile)
	if err != nil {
		logger.Fatalw("failed to load policies", "file", cfg.Gate.PoliciesFile, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeFn, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalw("failed to init storage", "error", err)
	}
	defer closeFn()

	engine, err := services.NewQuotaEngine(storage, cfg.Gate.StoreTimeout)
	if err != nil {
		logger.Fatalw("failed to create quota engine", "error", err)
	}

	generators, err := keygen.NewRegistry(policySet.KeyGenerators)
	if err != nil {
		logger.Fatalw("failed to build key generators", "error", err)
	}

	enforcer, err := services.NewEnforcer(
		matcher.New(policySet.Policies),
		generators,
		engine,
		cfg.Gate.FailOpen,
		logger,
	)
	if err != nil {
		logger.Fatalw("failed to create enforcer", "error", err)
	}

	r := chi.NewRouter()
	for _, mw := range middlewareChain(policySet.FilterOrder, enforcer, logger) {
		r.Use(mw)
	}
	r.Get("/test", httpHandlers.TestHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			errCh <- err
		}
	}()
	logger.Infow("server started", "port", cfg.Server.Port, "policies", len(policySet.Policies))

	select {
	case <-ctx.Done():
		logger.Infow("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}

// middlewareChain posiciona o gate na cadeia conforme o filterOrder
// configurado, contado a partir do início da cadeia.
func middlewareChain(filterOrder int, enforcer ports.Admitter, logger *observability.Logger) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{httpMiddleware.RequestID}

	gate := httpMiddleware.NewRateLimitGate(enforcer, logger)
	if filterOrder < 0 {
		filterOrder = 0
	}
	if filterOrder > len(chain) {
		filterOrder = len(chain)
	}

	chain = append(chain[:filterOrder], append([]func(http.Handler) http.Handler{gate}, chain[filterOrder:]...)...)
	return chain
}

func initStorage(ctx context.Context, cfg config.StorageConfig) (ports.QuotaStorage, func(), error) {
	switch cfg.Type {
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				log.Printf("failed to close redis storage: %v", err)
			}
		}, nil
	case "memory":
		storage := memorystorage.New()
		storage.StartJanitor(ctx)
		return storage, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webstore-be/internal/auth"
	"webstore-be/internal/category"
	"webstore-be/internal/config"
	"webstore-be/internal/db"
	"webstore-be/internal/logger"
	"webstore-be/internal/metrics"
	"webstore-be/internal/middleware"
	"webstore-be/internal/order"
	"webstore-be/internal/product"
	"webstore-be/internal/transport"
	"webstore-be/internal/user"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// Swapped in tests.
var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		return auth.ErrMissingSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, shutdownMetrics, err := setupMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownMetrics()

	database, err := initDBFunc(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize DB: %w", err)
	}
	defer database.Close()
	logger.L().Info("database connection established")

	handler, cleanup := newServer(ctx, cfg, database, m)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupMetrics(ctx context.Context, cfg *config.Config) (*metrics.AppMetrics, func(), error) {
	if !cfg.MetricsEnabled {
		return metrics.Noop(), func() {}, nil
	}

	provider, err := metrics.InitProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	m, err := metrics.New(otel.Meter(cfg.OTELServiceName))
	if err != nil {
		return nil, nil, err
	}

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			logger.L().Warn("metrics provider shutdown failed", zap.Error(err))
		}
	}
	return m, shutdown, nil
}

// newServer wires repositories, services and the HTTP pipeline. The
// returned func releases resources opened here.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, m *metrics.AppMetrics) (http.Handler, func()) {
	verifier := auth.NewVerifier(cfg.JWTSecret)

	var treeCache category.TreeCache = category.NopTreeCache{}
	cleanup := func() {}
	if cfg.RedisURL != "" {
		rc, err := category.NewRedisTreeCache(cfg.RedisURL, cfg.CategoryCacheTTL, m)
		if err != nil {
			logger.L().Warn("redis unavailable, category tree cache disabled", zap.Error(err))
		} else {
			treeCache = rc
			cleanup = func() { _ = rc.Close() }
		}
	}

	productRepo := product.NewRepository(database)
	categorySvc := category.NewService(category.NewRepository(database), productRepo, treeCache)
	productSvc := product.NewService(productRepo, categorySvc, m)
	userSvc := user.NewService(user.NewRepository(database), verifier)
	orderSvc := order.NewService(order.NewRepository(database), product.NewCatalog(productRepo), m, cfg.OrderTimeout)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	h := transport.NewHandler(transport.Deps{
		Users:       userSvc,
		Products:    productSvc,
		Categories:  categorySvc,
		Orders:      orderSvc,
		DB:          database,
		Development: cfg.IsDevelopment(),
	})
	router := transport.NewRouter(h, transport.RouterConfig{
		Verifier:    verifier,
		Limiter:     limiter,
		Metrics:     m,
		FrontendURL: cfg.FrontendURL,
	})
	return router, cleanup
}

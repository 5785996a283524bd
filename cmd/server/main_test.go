package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"webstore-be/internal/config"
	"webstore-be/internal/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_URL", "")
	t.Setenv("METRICS_ENABLED", "false")
}

func TestNewServer(t *testing.T) {
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer database.Close()

	cfg := &config.Config{
		AppPort:        "8080",
		AppEnv:         "test",
		JWTSecret:      "secret",
		FrontendURL:    "http://localhost:3000",
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router, cleanup := newServer(ctx, cfg, database, metrics.Noop())
	defer cleanup()
	require.NotNil(t, router)

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "OK")
	})

	t.Run("Ready pings the database", func(t *testing.T) {
		mock.ExpectPing()
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Protected route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/wishlist", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Route not found")
	})
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()

	t.Run("Starts and returns when the server stops", func(t *testing.T) {
		setEnv(t)
		initDBFunc = func(cfg *config.Config) (*sql.DB, error) {
			database, _, err := sqlmock.New()
			return database, err
		}
		var addr string
		startServerFunc = func(srv *http.Server) error {
			addr = srv.Addr
			return http.ErrServerClosed
		}

		assert.NoError(t, run())
		assert.Equal(t, ":8080", addr)
	})

	t.Run("Database failure", func(t *testing.T) {
		setEnv(t)
		initDBFunc = func(cfg *config.Config) (*sql.DB, error) {
			return nil, errors.New("connection refused")
		}

		err := run()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize DB")
	})

	t.Run("Listen failure", func(t *testing.T) {
		setEnv(t)
		initDBFunc = func(cfg *config.Config) (*sql.DB, error) {
			database, _, err := sqlmock.New()
			return database, err
		}
		startServerFunc = func(srv *http.Server) error {
			return errors.New("address already in use")
		}

		assert.EqualError(t, run(), "address already in use")
	})

	t.Run("Missing JWT secret", func(t *testing.T) {
		setEnv(t)
		t.Setenv("JWT_SECRET", "")

		assert.Error(t, run())
	})
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"webstore-be/internal/config"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

const (
	pingTimeout = 5 * time.Second

	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// DSN renders cfg as a postgres:// URL. Credentials are escaped so
// passwords containing spaces or '@' survive.
func DSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// NewDatabase opens an instrumented Postgres pool and verifies it with a ping.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}
	return open(cfg, driverName)
}

func open(cfg *config.Config, driverName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	configurePool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB %s:%s: %w", cfg.DBHost, cfg.DBPort, err)
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg *config.Config) {
	maxOpen := orDefault(cfg.DBMaxOpenConns, defaultMaxOpenConns)
	maxIdle := min(orDefault(cfg.DBMaxIdleConns, defaultMaxIdleConns), maxOpen)
	lifetime := cfg.DBConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

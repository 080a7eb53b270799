// Package db provides database connection management for globalretail-etl.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// RetryPolicy controls how connection attempts are repeated.
type RetryPolicy struct {
	// Retries is the number of attempts after the first one.
	Retries int
	// Interval is the pause between attempts.
	Interval time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 3, Interval: 2 * time.Second}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(retries)),
		ctx,
	)
}

// withRetry runs op until it succeeds, returns a permanent error, or the
// policy is exhausted.
func withRetry(ctx context.Context, policy RetryPolicy, what string, op func() error) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return op()
		},
		policy.backOff(ctx),
		func(err error, wait time.Duration) {
			logging.Warn().
				Err(err).
				Str("target", what).
				Int("attempt", attempt).
				Dur("retry_in", wait).
				Msg("Connection attempt failed")
		},
	)
}

// DefaultPoolConfig returns default connection pool configuration.
func DefaultPoolConfig() *pgxpool.Config {
	config, _ := pgxpool.ParseConfig("")

	// The admin pool only runs a handful of DDL statements
	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	return config
}

// ConnectAdmin establishes a small connection pool used for database-level
// maintenance (dropping and creating the source and warehouse databases).
func ConnectAdmin(ctx context.Context, connString string, policy RetryPolicy) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Apply default pool settings
	defaults := DefaultPoolConfig()
	config.MaxConns = defaults.MaxConns
	config.MinConns = defaults.MinConns
	config.MaxConnLifetime = defaults.MaxConnLifetime
	config.MaxConnIdleTime = defaults.MaxConnIdleTime
	config.HealthCheckPeriod = defaults.HealthCheckPeriod

	logging.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Msg("Connecting to admin database")

	var pool *pgxpool.Pool
	err = withRetry(ctx, policy, "admin", func() error {
		p, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create connection pool: %w", err))
		}
		// Verify connection
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to admin database")

	return pool, nil
}

// DatabaseName returns the database named by a connection string.
func DatabaseName(connString string) (string, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.Database == "" {
		return "", fmt.Errorf("connection string does not name a database")
	}
	return config.Database, nil
}

// ErrorDetail extracts a loggable description from a PostgreSQL error,
// falling back to the plain error text.
func ErrorDetail(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Sprintf("%s (%s): %s", pgErr.Message, pgErr.Code, pgErr.Detail)
		}
		return fmt.Sprintf("%s (%s)", pgErr.Message, pgErr.Code)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

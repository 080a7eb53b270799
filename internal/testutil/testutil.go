//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil creates throwaway PostgreSQL databases for the
// integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
)

const (
	// ConnEnv names the variable holding the admin connection string.
	ConnEnv = "ETL_TEST_CONN"

	// DefaultConnString is used when ConnEnv is unset.
	DefaultConnString = "postgres://postgres@localhost:5432/postgres"

	// DBPrefix is the prefix of every database the tests create.
	DBPrefix = "etl_test_"
)

func connString() string {
	if cs := os.Getenv(ConnEnv); cs != "" {
		return cs
	}
	return DefaultConnString
}

// SkipIfNoPostgres skips the test unless the admin connection can be
// opened, and returns its connection string.
func SkipIfNoPostgres(t *testing.T) string {
	t.Helper()

	cs := connString()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	admin, err := db.ConnectAdmin(ctx, cs, db.RetryPolicy{})
	if err != nil {
		t.Skipf("PostgreSQL not available, skipping integration test: %v", err)
	}
	admin.Close()
	return cs
}

// CreateTestDB creates a fresh database for purpose and returns its
// connection string. The database is dropped when the test ends, unless
// the test failed.
func CreateTestDB(t *testing.T, base, purpose string) string {
	t.Helper()

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate database name: %v", err)
	}
	name := DBPrefix + purpose + "_" + hex.EncodeToString(suffix)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.ConnectAdmin(ctx, base, db.RetryPolicy{})
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer admin.Close()

	if err := db.RecreateDatabase(ctx, admin, name); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", name)
			return
		}
		dropTestDB(t, base, name)
	})

	cfg, err := pgx.ParseConfig(base)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	// ConnString() returns the string cfg was parsed from, so the URL for
	// the new database is built from its parts.
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port))),
		Path:   "/" + name,
		User:   url.User(cfg.User),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

func dropTestDB(t *testing.T, base, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.ConnectAdmin(ctx, base, db.RetryPolicy{})
	if err != nil {
		t.Logf("Warning: failed to connect to drop %s: %v", name, err)
		return
	}
	defer admin.Close()

	if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)"); err != nil {
		t.Logf("Warning: failed to drop %s: %v", name, err)
	}
}

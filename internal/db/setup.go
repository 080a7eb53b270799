//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// RecreateDatabase drops the named database if it exists and creates it
// again. Other sessions connected to it are terminated first. The statements
// run outside a transaction on the admin connection.
func RecreateDatabase(ctx context.Context, admin Execer, name string) error {
	ident := pgx.Identifier{name}.Sanitize()

	// Terminate connections to the database
	_, err := admin.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()
    `, name)
	if err != nil {
		logging.Warn().Err(err).Str("database", name).Msg("Failed to terminate sessions")
	}

	if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}

	logging.Info().Str("database", name).Msg("Database recreated")
	return nil
}

// RecreateDatabases recreates the databases named by each connection string.
func RecreateDatabases(ctx context.Context, admin Execer, connStrings ...string) error {
	seen := make(map[string]bool, len(connStrings))
	for _, cs := range connStrings {
		name, err := DatabaseName(cs)
		if err != nil {
			return err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := RecreateDatabase(ctx, admin, name); err != nil {
			return err
		}
	}
	return nil
}

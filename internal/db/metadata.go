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
	"sort"
	"time"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/pkg/version"
)

const metadataTable = "etl_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS etl_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// RunMetadata describes a finished pipeline run.
type RunMetadata struct {
	RunID          string
	State          string
	SchemaChecksum string
	FinishedAt     time.Time
	TotalRows      int64
}

// SaveRunMetadata records the outcome of a run in the warehouse. The caller
// owns the transaction.
func SaveRunMetadata(ctx context.Context, exec Execer, run RunMetadata) error {
	// Create table if it doesn't exist
	_, err := exec.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"run_id":                    run.RunID,
		"version":                   version.Short(),
		"finished_at":               run.FinishedAt.UTC().Format(time.RFC3339),
		"state":                     run.State,
		"warehouse_schema_checksum": run.SchemaChecksum,
		"total_rows":                fmt.Sprintf("%d", run.TotalRows),
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		_, err := exec.Exec(ctx, `
            INSERT INTO etl_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, metadata[key])
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("run_id", run.RunID).
		Str("state", run.State).
		Msg("Saved run metadata")

	return nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT key, value FROM etl_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, q Querier) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, metadataTable).Scan(&exists)
	return exists, err
}

// LastRun returns the metadata recorded by the most recent run, or nil
// when no run has been recorded in the warehouse yet.
func LastRun(ctx context.Context, q Querier) (map[string]string, error) {
	exists, err := MetadataExists(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to check metadata table: %w", err)
	}
	if !exists {
		return nil, nil
	}
	metadata, err := GetAllMetadata(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return metadata, nil
}

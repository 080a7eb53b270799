//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package script executes SQL scripts against a transactional connection,
// falling back to statement-by-statement execution when the script as a
// whole is rejected.
package script

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zeebo/xxh3"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// DefaultProgressInterval is the number of statements between progress
// log lines in per-statement mode.
const DefaultProgressInterval = 10

// Executor is the connection a script runs against.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Mode describes how a script ended up being executed.
type Mode int

const (
	// WholeScript means the script ran as a single unit.
	WholeScript Mode = iota
	// PerStatement means the script was split and run statement by statement.
	PerStatement
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case WholeScript:
		return "whole-script"
	case PerStatement:
		return "per-statement"
	default:
		return "unknown"
	}
}

// Result reports what happened when a script ran.
type Result struct {
	Name     string
	Mode     Mode
	Checksum uint64

	// Executed and Failed count statements in per-statement mode.
	Executed int
	Failed   int
}

// Succeeded reports whether the script ran as a whole or at least one of
// its statements succeeded.
func (r Result) Succeeded() bool {
	return r.Mode == WholeScript || r.Executed > 0
}

// Runner executes scripts.
type Runner struct {
	progressInterval int
}

// NewRunner creates a runner that logs progress every progressInterval
// statements in per-statement mode.
func NewRunner(progressInterval int) *Runner {
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}
	return &Runner{progressInterval: progressInterval}
}

// RunFile reads a script from disk and runs it.
func (r *Runner) RunFile(ctx context.Context, exec Executor, path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: path}, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return r.Run(ctx, exec, path, string(content))
}

// Run executes the script as a single unit and commits. If that fails the
// transaction is rolled back and each statement is executed and committed
// on its own, continuing past failures. The returned error is non-nil only
// when nothing succeeded.
func (r *Runner) Run(ctx context.Context, exec Executor, name, text string) (Result, error) {
	text = Clean(text)
	result := Result{Name: name, Mode: WholeScript, Checksum: Checksum(text)}

	log := logging.Logger.With().
		Str("script", name).
		Str("checksum", fmt.Sprintf("%016x", result.Checksum)).
		Logger()

	_, err := exec.Exec(ctx, text)
	if err == nil {
		err = exec.Commit(ctx)
	}
	if err == nil {
		log.Info().Msg("Script executed")
		return result, nil
	}

	log.Warn().
		Str("error", db.ErrorDetail(err)).
		Msg("Script failed as a whole, retrying statement by statement")
	if rbErr := exec.Rollback(ctx); rbErr != nil {
		log.Warn().Err(rbErr).Msg("Rollback failed")
	}

	result.Mode = PerStatement
	for _, stmt := range Split(text) {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		_, err := exec.Exec(ctx, stmt)
		if err == nil {
			err = exec.Commit(ctx)
		}
		if err != nil {
			result.Failed++
			log.Error().
				Str("error", db.ErrorDetail(err)).
				Str("statement", abbreviate(stmt, 100)).
				Msg("Statement failed")
			if rbErr := exec.Rollback(ctx); rbErr != nil {
				log.Warn().Err(rbErr).Msg("Rollback failed")
			}
			continue
		}

		result.Executed++
		if result.Executed%r.progressInterval == 0 {
			log.Info().Int("statements", result.Executed).Msg("Script progress")
		}
	}

	log.Info().
		Int("statements", result.Executed).
		Int("failed", result.Failed).
		Msg("Script executed statement by statement")

	if !result.Succeeded() {
		return result, fmt.Errorf("script %s: no statement succeeded", name)
	}
	return result, nil
}

// Checksum fingerprints script text.
func Checksum(text string) uint64 {
	return xxh3.HashString(text)
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

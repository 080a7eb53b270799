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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// ErrSessionClosed is returned when a closed session is used.
var ErrSessionClosed = errors.New("session is not open")

// Execer executes statements that return no rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Querier runs queries that return rows.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session is a single long-lived connection with explicit transaction
// control. The first Exec after a Commit or Rollback opens a transaction,
// which stays open until the caller commits or rolls back; queries issued
// while it is open run inside it. A Session is not safe for concurrent use.
type Session struct {
	name       string
	connString string
	policy     RetryPolicy

	conn *pgx.Conn
	tx   pgx.Tx
}

// NewSession creates a session for the given connection string. The
// connection is not established until Open is called.
func NewSession(name, connString string, policy RetryPolicy) *Session {
	return &Session{name: name, connString: connString, policy: policy}
}

// Name returns the label used for the session in logs.
func (s *Session) Name() string {
	return s.name
}

// Open establishes the connection, retrying per the session's policy.
func (s *Session) Open(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	config, err := pgx.ParseConfig(s.connString)
	if err != nil {
		return fmt.Errorf("failed to parse %s connection string: %w", s.name, err)
	}

	logging.Debug().
		Str("session", s.name).
		Str("host", config.Host).
		Uint16("port", config.Port).
		Str("database", config.Database).
		Msg("Connecting to database")

	err = withRetry(ctx, s.policy, s.name, func() error {
		conn, err := pgx.ConnectConfig(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", s.name, err)
		}
		s.conn = conn
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info().
		Str("session", s.name).
		Str("host", config.Host).
		Str("database", config.Database).
		Msg("Connected to database")

	return nil
}

// Close rolls back any open transaction and closes the connection.
func (s *Session) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if s.tx != nil {
		_ = s.tx.Rollback(ctx)
		s.tx = nil
	}
	err := s.conn.Close(ctx)
	s.conn = nil
	return err
}

// Reset closes and reopens the connection, discarding any transaction
// state left behind by an earlier failure.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.Close(ctx); err != nil {
		logging.Warn().Err(err).Str("session", s.name).Msg("Error closing connection during reset")
	}
	if err := s.Open(ctx); err != nil {
		return err
	}
	logging.Info().Str("session", s.name).Msg("Connection reset")
	return nil
}

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

func (s *Session) begin(ctx context.Context) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s: %w", s.name, err)
	}
	s.tx = tx
	return nil
}

// Exec runs a statement inside the current transaction, opening one if needed.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := s.begin(ctx); err != nil {
		return pgconn.CommandTag{}, err
	}
	return s.tx.Exec(ctx, sql, args...)
}

// Query runs a query inside the current transaction when one is open.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.conn.Query(ctx, sql, args...)
}

// QueryRow runs a single-row query inside the current transaction when one is open.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.conn == nil {
		return errRow{err: ErrSessionClosed}
	}
	if s.tx != nil {
		return s.tx.QueryRow(ctx, sql, args...)
	}
	return s.conn.QueryRow(ctx, sql, args...)
}

// Commit commits the open transaction. It is a no-op when none is open.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit on %s: %w", s.name, err)
	}
	return nil
}

// Rollback aborts the open transaction. It is a no-op when none is open.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback(ctx)
	s.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back on %s: %w", s.name, err)
	}
	return nil
}

// errRow is returned by QueryRow when the session cannot run the query.
type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error {
	return r.err
}

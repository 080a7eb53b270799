//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
)

// Conn is the connection a PGStore writes through.
type Conn interface {
	db.Execer
	db.Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PGStore is a Store backed by a PostgreSQL warehouse.
type PGStore struct {
	conn Conn
}

// NewPGStore creates a store over conn.
func NewPGStore(conn Conn) *PGStore {
	return &PGStore{conn: conn}
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Insert adds rec, skipping it on a natural key conflict.
func (s *PGStore) Insert(ctx context.Context, rec Record) (bool, error) {
	dim := rec.Dimension()
	query, args, err := builder().
		Insert(dim.Table).
		Columns(rec.Columns()...).
		Values(rec.Values()...).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert into %s: %w", dim.Table, err)
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert into %s (%s=%v): %w", dim.Table, dim.NaturalColumn, rec.NaturalKey(), err)
	}
	return tag.RowsAffected() == 1, nil
}

// LookupKey resolves a natural key to its surrogate key.
func (s *PGStore) LookupKey(ctx context.Context, dim Dimension, natural any) (pgtype.Int8, error) {
	query, args, err := builder().
		Select(dim.KeyColumn).
		From(dim.Table).
		Where(sq.Eq{dim.NaturalColumn: natural}).
		Limit(1).
		ToSql()
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("failed to build lookup on %s: %w", dim.Table, err)
	}
	return s.scanKey(ctx, dim.Table, query, args)
}

// LookupLocality resolves a city and state pair to a locality key.
func (s *PGStore) LookupLocality(ctx context.Context, city, state string) (pgtype.Int8, error) {
	query, args, err := builder().
		Select(Locality.KeyColumn).
		From(Locality.Table).
		Where(sq.Expr("LOWER(cidade) = LOWER(?)", strings.TrimSpace(city))).
		Where(sq.Expr("LOWER(estado) = LOWER(?)", strings.TrimSpace(state))).
		OrderBy(Locality.KeyColumn).
		Limit(1).
		ToSql()
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("failed to build locality lookup: %w", err)
	}
	return s.scanKey(ctx, Locality.Table, query, args)
}

func (s *PGStore) scanKey(ctx context.Context, table, query string, args []any) (pgtype.Int8, error) {
	var key pgtype.Int8
	err := s.conn.QueryRow(ctx, query, args...).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgtype.Int8{}, nil
	}
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("lookup on %s: %w", table, err)
	}
	return key, nil
}

// ProductUnitCost returns custo_unitario for a product key.
func (s *PGStore) ProductUnitCost(ctx context.Context, productKey int64) (decimal.Decimal, error) {
	return s.numericByKey(ctx, Product, "custo_unitario", productKey)
}

// PromotionDiscount returns percentual_desconto for a promotion key.
func (s *PGStore) PromotionDiscount(ctx context.Context, promotionKey int64) (decimal.Decimal, error) {
	return s.numericByKey(ctx, Promotion, "percentual_desconto", promotionKey)
}

func (s *PGStore) numericByKey(ctx context.Context, dim Dimension, column string, key int64) (decimal.Decimal, error) {
	query, args, err := builder().
		Select(column).
		From(dim.Table).
		Where(sq.Eq{dim.KeyColumn: key}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build %s lookup: %w", column, err)
	}

	var n pgtype.Numeric
	err = s.conn.QueryRow(ctx, query, args...).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s lookup on %s: %w", column, dim.Table, err)
	}
	return db.Decimal(n), nil
}

// CountRows returns COUNT(*) for table.
func (s *PGStore) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Commit commits the open transaction.
func (s *PGStore) Commit(ctx context.Context) error {
	return s.conn.Commit(ctx)
}

// Rollback aborts the open transaction.
func (s *PGStore) Rollback(ctx context.Context) error {
	return s.conn.Rollback(ctx)
}

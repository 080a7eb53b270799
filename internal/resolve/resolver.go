//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package resolve maps source natural keys to warehouse surrogate keys.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// Lookup is the part of the warehouse a resolver queries.
type Lookup interface {
	LookupKey(ctx context.Context, dim warehouse.Dimension, natural any) (pgtype.Int8, error)
	LookupLocality(ctx context.Context, city, state string) (pgtype.Int8, error)
}

// Resolver returns the surrogate key for a natural key. A natural key with
// no matching row resolves to an invalid key without error; errors are
// reserved for failed queries.
type Resolver interface {
	Resolve(ctx context.Context, dim warehouse.Dimension, natural any) (pgtype.Int8, error)
	ResolveLocality(ctx context.Context, city, state string) (pgtype.Int8, error)
}

// New returns a resolver over lookup, wrapped in a cache when cache is set.
func New(lookup Lookup, cache bool) Resolver {
	var r Resolver = &QueryResolver{lookup: lookup}
	if cache {
		r = NewCaching(r)
	}
	return r
}

// QueryResolver issues one warehouse query per resolution.
type QueryResolver struct {
	lookup Lookup
}

// NewQueryResolver creates an uncached resolver.
func NewQueryResolver(lookup Lookup) *QueryResolver {
	return &QueryResolver{lookup: lookup}
}

// Resolve looks natural up in dim. A NULL natural key never matches.
func (r *QueryResolver) Resolve(ctx context.Context, dim warehouse.Dimension, natural any) (pgtype.Int8, error) {
	natural, ok := present(natural)
	if !ok {
		return pgtype.Int8{}, nil
	}
	key, err := r.lookup.LookupKey(ctx, dim, natural)
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("resolve %s %v: %w", dim.Name, natural, err)
	}
	return key, nil
}

// ResolveLocality looks a locality up by city and state. Both must be
// non-blank.
func (r *QueryResolver) ResolveLocality(ctx context.Context, city, state string) (pgtype.Int8, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" || state == "" {
		return pgtype.Int8{}, nil
	}
	key, err := r.lookup.LookupLocality(ctx, city, state)
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("resolve locality %s/%s: %w", city, state, err)
	}
	return key, nil
}

// present unwraps nullable natural keys. It reports false for NULLs.
func present(natural any) (any, bool) {
	switch v := natural.(type) {
	case nil:
		return nil, false
	case pgtype.Int8:
		return v.Int64, v.Valid
	case pgtype.Int4:
		return int64(v.Int32), v.Valid
	case pgtype.Text:
		return v.String, v.Valid
	case pgtype.Date:
		return v.Time, v.Valid
	default:
		return natural, true
	}
}

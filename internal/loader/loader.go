//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader implements the dimension and fact loaders. Each loader
// extracts rows from the source, cleans them, resolves the surrogate keys
// of the dimensions they reference and inserts them into the warehouse,
// skipping rows whose natural key is already present.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/resolve"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// DefaultFactBatchSize is the number of fact rows committed together.
const DefaultFactBatchSize = 1000

// Result counts what a loader did.
type Result struct {
	// Extracted is the number of source rows read (or generated).
	Extracted int

	// Inserted is the number of warehouse rows written and committed.
	Inserted int

	// Skipped is the number of rows not inserted, either because the
	// natural key already existed or because the row was unusable.
	Skipped int
}

// Loader loads one warehouse table.
type Loader interface {
	// Name returns the loader identifier used on the command line.
	Name() string

	// Table returns the warehouse table the loader writes.
	Table() string

	// Load runs the loader. On error the open batch has been rolled back.
	Load(ctx context.Context) (Result, error)
}

// Env holds the collaborators shared by all loaders.
type Env struct {
	Source source.Reader
	Target warehouse.Store
	Keys   resolve.Resolver

	// DateFormats lists the accepted source date layouts.
	DateFormats []normalize.DateFormat

	// FactBatchSize bounds the number of fact rows per transaction.
	FactBatchSize int

	// CalendarStart and CalendarEnd bound the generated calendar,
	// inclusive.
	CalendarStart time.Time
	CalendarEnd   time.Time

	// Now stamps registration dates. Defaults to time.Now.
	Now func() time.Time
}

// DefaultCalendarRange returns the calendar span used when none is set.
func DefaultCalendarRange() (time.Time, time.Time) {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) dateFormats() []normalize.DateFormat {
	if len(e.DateFormats) == 0 {
		return normalize.DefaultDateFormats
	}
	return e.DateFormats
}

func (e *Env) factBatchSize() int {
	if e.FactBatchSize <= 0 {
		return DefaultFactBatchSize
	}
	return e.FactBatchSize
}

// batch runs fn as a single warehouse transaction. It commits when fn
// succeeds; otherwise everything fn wrote is rolled back and the error is
// logged and returned.
func (e *Env) batch(ctx context.Context, name string, fn func(res *Result) error) (Result, error) {
	log := logging.Stage(name)
	log.Info().Msg("Loading")

	var res Result
	err := fn(&res)
	if err == nil {
		err = e.Target.Commit(ctx)
	}
	if err != nil {
		if rbErr := e.Target.Rollback(ctx); rbErr != nil {
			log.Warn().Err(rbErr).Msg("Rollback failed")
		}
		log.Error().
			Err(err).
			Str("detail", db.ErrorDetail(err)).
			Int("extracted", res.Extracted).
			Int("discarded", res.Inserted).
			Msg("Load failed, batch rolled back")
		res.Inserted = 0
		return res, fmt.Errorf("load %s: %w", name, err)
	}

	log.Info().
		Int("extracted", res.Extracted).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("Loaded")
	return res, nil
}

// insert writes rec and counts the outcome.
func (e *Env) insert(ctx context.Context, res *Result, rec warehouse.Record) error {
	inserted, err := e.Target.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("insert %s %v: %w", rec.Dimension().Name, rec.NaturalKey(), err)
	}
	if inserted {
		res.Inserted++
	} else {
		res.Skipped++
	}
	return nil
}

// nameOr cleans a source name, substituting fallback when it is missing.
func nameOr(t pgtype.Text, fallback string) string {
	if !t.Valid || normalize.CollapseWhitespace(t.String) == "" {
		return fallback
	}
	return normalize.CleanText(t.String)
}

// optional maps a cleaned value to a nullable column, storing NULL for
// missing input.
func optional(t pgtype.Text, clean func(string) string) pgtype.Text {
	if !t.Valid {
		return pgtype.Text{}
	}
	v := clean(t.String)
	if v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v, Valid: true}
}

// optionalDate parses a loosely formatted source date, storing NULL for
// sentinels and values that do not parse.
func (e *Env) optionalDate(t pgtype.Text) pgtype.Date {
	if !t.Valid {
		return pgtype.Date{}
	}
	d, err := normalize.ParseDate(t.String, e.dateFormats())
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d, Valid: true}
}

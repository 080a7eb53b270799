package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// FactResult extends Result with the reasons fact rows were skipped.
type FactResult struct {
	Result

	// SentinelDates and BadDates count lines dropped because their sale
	// date was an invalid-date marker or did not parse.
	SentinelDates int
	BadDates      int

	// OutOfCalendar counts lines whose date has no calendar row.
	OutOfCalendar int

	// Batches is the number of commits issued.
	Batches int
}

// Fact loads fato_vendas from the sale lines.
type Fact struct {
	env  *Env
	last FactResult
}

func (f *Fact) Name() string  { return "fact" }
func (f *Fact) Table() string { return warehouse.SalesFact.Table }

// Last returns the detailed counts of the most recent Load.
func (f *Fact) Last() FactResult { return f.last }

// Load inserts one fact row per sale line, committing every FactBatchSize
// lines and once more at the end. Lines without a usable sale date are
// skipped. On error the open batch is rolled back; earlier batches stay
// committed.
func (f *Fact) Load(ctx context.Context) (Result, error) {
	res, err := f.load(ctx)
	f.last = res
	return res.Result, err
}

func (f *Fact) load(ctx context.Context) (FactResult, error) {
	log := logging.Stage(f.Name())
	log.Info().Msg("Loading")

	var (
		res       FactResult
		pending   int
		processed int
	)
	batchSize := f.env.factBatchSize()

	fail := func(err error) (FactResult, error) {
		if rbErr := f.env.Target.Rollback(ctx); rbErr != nil {
			log.Warn().Err(rbErr).Msg("Rollback failed")
		}
		res.Inserted -= pending
		log.Error().
			Err(err).
			Str("detail", db.ErrorDetail(err)).
			Int("processed", processed).
			Int("inserted", res.Inserted).
			Int("discarded", pending).
			Msg("Load failed, batch rolled back")
		return res, fmt.Errorf("load %s: %w", f.Name(), err)
	}

	commit := func() error {
		if err := f.env.Target.Commit(ctx); err != nil {
			return err
		}
		pending = 0
		res.Batches++
		log.Info().
			Int("batch", res.Batches).
			Int("processed", processed).
			Int("inserted", res.Inserted).
			Msg("Batch committed")
		return nil
	}

	lines, err := f.env.Source.SaleLines(ctx)
	if err != nil {
		return fail(fmt.Errorf("extract sale lines: %w", err))
	}
	res.Extracted = len(lines)

	for _, line := range lines {
		processed++
		fact, ok, err := f.build(ctx, line, &res)
		if err != nil {
			return fail(err)
		}
		if !ok {
			res.Skipped++
		} else {
			inserted, err := f.env.Target.Insert(ctx, fact)
			if err != nil {
				return fail(fmt.Errorf("insert sale %s: %w", fact.ID, err))
			}
			if inserted {
				res.Inserted++
				pending++
			} else {
				res.Skipped++
			}
		}

		if processed%batchSize == 0 {
			if err := commit(); err != nil {
				return fail(err)
			}
		}
	}
	if err := commit(); err != nil {
		return fail(err)
	}

	log.Info().
		Int("extracted", res.Extracted).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Int("sentinel_dates", res.SentinelDates).
		Int("bad_dates", res.BadDates).
		Int("out_of_calendar", res.OutOfCalendar).
		Msg("Loaded")
	return res, nil
}

// build resolves the keys and computes the measures of one sale line. It
// reports false when the line must be skipped.
func (f *Fact) build(ctx context.Context, line source.SaleLine, res *FactResult) (warehouse.SaleFact, bool, error) {
	id := fmt.Sprintf("%d_%d", line.SaleID, line.ProductID)

	date, err := normalize.ParseDate(line.SaleDate.String, f.env.dateFormats())
	if err != nil {
		if errors.Is(err, normalize.ErrSentinelDate) {
			res.SentinelDates++
		} else {
			res.BadDates++
		}
		logging.Debug().Str("sale", id).Err(err).Msg("Skipping sale line")
		return warehouse.SaleFact{}, false, nil
	}

	keys := f.env.Keys
	timeKey, err := keys.Resolve(ctx, warehouse.Calendar, date)
	if err != nil {
		return warehouse.SaleFact{}, false, err
	}
	if !timeKey.Valid {
		res.OutOfCalendar++
		logging.Debug().Str("sale", id).Time("date", date).Msg("Skipping sale line outside the calendar")
		return warehouse.SaleFact{}, false, nil
	}

	fact := warehouse.SaleFact{ID: id, TimeKey: timeKey}
	refs := []struct {
		dim     warehouse.Dimension
		natural any
		key     *pgtype.Int8
	}{
		{warehouse.Customer, line.CustomerID, &fact.CustomerKey},
		{warehouse.Salesperson, line.SalespersonID, &fact.SalespersonKey},
		{warehouse.StoreDim, line.StoreID, &fact.StoreKey},
		{warehouse.Product, line.ProductID, &fact.ProductKey},
		{warehouse.Promotion, line.PromotionID, &fact.PromotionKey},
	}
	for _, ref := range refs {
		if *ref.key, err = keys.Resolve(ctx, ref.dim, ref.natural); err != nil {
			return warehouse.SaleFact{}, false, err
		}
	}

	unitCost := decimal.Zero
	if fact.ProductKey.Valid {
		if unitCost, err = f.env.Target.ProductUnitCost(ctx, fact.ProductKey.Int64); err != nil {
			return warehouse.SaleFact{}, false, fmt.Errorf("unit cost of product %d: %w", line.ProductID, err)
		}
	}
	discount := decimal.Zero
	if fact.PromotionKey.Valid {
		if discount, err = f.env.Target.PromotionDiscount(ctx, fact.PromotionKey.Int64); err != nil {
			return warehouse.SaleFact{}, false, fmt.Errorf("discount of promotion %d: %w", line.PromotionID.Int64, err)
		}
	}

	quantity := int64(1)
	if line.Quantity.Valid {
		quantity = line.Quantity.Int64
	}
	fact.Metrics = warehouse.ComputeSaleMetrics(quantity, line.UnitPrice, unitCost, discount)
	return fact, true, nil
}

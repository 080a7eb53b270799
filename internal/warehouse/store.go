package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Store is the warehouse side of the pipeline. Writes happen inside an
// implicit transaction that stays open until Commit or Rollback.
type Store interface {
	// Insert adds rec unless a row with the same natural key exists. It
	// reports whether a row was inserted.
	Insert(ctx context.Context, rec Record) (bool, error)

	// LookupKey returns the surrogate key of the row whose natural key is
	// natural. An unknown natural key yields an invalid key and no error.
	LookupKey(ctx context.Context, dim Dimension, natural any) (pgtype.Int8, error)

	// LookupLocality returns the first locality (lowest surrogate key)
	// whose city and state match case-insensitively.
	LookupLocality(ctx context.Context, city, state string) (pgtype.Int8, error)

	// ProductUnitCost returns the unit cost stored on a product row.
	ProductUnitCost(ctx context.Context, productKey int64) (decimal.Decimal, error)

	// PromotionDiscount returns the discount percentage stored on a promotion row.
	PromotionDiscount(ctx context.Context, promotionKey int64) (decimal.Decimal, error)

	// CountRows returns the number of rows in a warehouse table.
	CountRows(ctx context.Context, table string) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

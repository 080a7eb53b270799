package warehousetest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMemStoreIdempotentInsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	inserted, err := s.Insert(ctx, warehouse.LocalityRow{ID: 7, City: "Recife", State: "PE"})
	if err != nil || !inserted {
		t.Fatalf("First insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.Insert(ctx, warehouse.LocalityRow{ID: 7, City: "Olinda", State: "PE"})
	if err != nil {
		t.Fatalf("Second insert: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate natural key to be skipped")
	}

	n, _ := s.CountRows(ctx, warehouse.Locality.Table)
	if n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}

	key, err := s.LookupKey(ctx, warehouse.Locality, int64(7))
	if err != nil || !key.Valid || key.Int64 != 1 {
		t.Errorf("Expected key 1, got %+v err=%v", key, err)
	}
	key, err = s.LookupKey(ctx, warehouse.Locality, 7)
	if err != nil || !key.Valid {
		t.Errorf("Expected int natural key to match, got %+v err=%v", key, err)
	}
	key, err = s.LookupKey(ctx, warehouse.Locality, int64(99))
	if err != nil || key.Valid {
		t.Errorf("Expected unresolved key, got %+v err=%v", key, err)
	}
}

func TestMemStoreRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, _ = s.Insert(ctx, warehouse.CategoryRow{Kind: warehouse.CustomerCategory, ID: 1, Name: "Vip"})
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_, _ = s.Insert(ctx, warehouse.CategoryRow{Kind: warehouse.CustomerCategory, ID: 2, Name: "Ouro"})
	_, _ = s.Insert(ctx, warehouse.CategoryRow{Kind: warehouse.CustomerCategory, ID: 3, Name: "Prata"})
	if err := s.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	n, _ := s.CountRows(ctx, warehouse.CustomerCategory.Table)
	if n != 1 {
		t.Errorf("Expected 1 committed row after rollback, got %d", n)
	}

	// Sequences are not rewound by a rollback
	_, _ = s.Insert(ctx, warehouse.CategoryRow{Kind: warehouse.CustomerCategory, ID: 2, Name: "Ouro"})
	key, _ := s.LookupKey(ctx, warehouse.CustomerCategory, int64(2))
	if key.Int64 != 4 {
		t.Errorf("Expected surrogate key 4 after rollback, got %d", key.Int64)
	}
}

func TestMemStoreAbortedTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	boom := errors.New("value too long")
	s.FailInsert = func(rec warehouse.Record) error {
		if rec.NaturalKey() == int64(2) {
			return boom
		}
		return nil
	}

	_, _ = s.Insert(ctx, warehouse.LocalityRow{ID: 1})
	if _, err := s.Insert(ctx, warehouse.LocalityRow{ID: 2}); !errors.Is(err, boom) {
		t.Fatalf("Expected injected error, got %v", err)
	}
	if _, err := s.Insert(ctx, warehouse.LocalityRow{ID: 3}); !errors.Is(err, ErrTxAborted) {
		t.Errorf("Expected ErrTxAborted, got %v", err)
	}
	if _, err := s.LookupKey(ctx, warehouse.Locality, int64(1)); !errors.Is(err, ErrTxAborted) {
		t.Errorf("Expected ErrTxAborted from lookup, got %v", err)
	}
	if err := s.Commit(ctx); !errors.Is(err, ErrTxAborted) {
		t.Errorf("Expected commit of aborted transaction to fail, got %v", err)
	}

	// The failed commit rolled everything back and cleared the abort
	n, err := s.CountRows(ctx, warehouse.Locality.Table)
	if err != nil || n != 0 {
		t.Errorf("Expected 0 rows, got %d err=%v", n, err)
	}
}

func TestMemStoreLookupLocality(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, _ = s.Insert(ctx, warehouse.LocalityRow{ID: 10, City: "Campinas", State: "SP"})
	_, _ = s.Insert(ctx, warehouse.LocalityRow{ID: 11, City: "São Paulo", State: "SP"})
	_, _ = s.Insert(ctx, warehouse.LocalityRow{ID: 12, City: "São Paulo", State: "SP"})

	key, err := s.LookupLocality(ctx, "  são paulo ", "sp")
	if err != nil {
		t.Fatalf("LookupLocality: %v", err)
	}
	if !key.Valid || key.Int64 != 2 {
		t.Errorf("Expected first matching key 2, got %+v", key)
	}

	key, _ = s.LookupLocality(ctx, "Santos", "SP")
	if key.Valid {
		t.Errorf("Expected no match, got %+v", key)
	}
}

func TestMemStoreMeasures(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, _ = s.Insert(ctx, warehouse.ProductRow{ID: 1, Pricing: warehouse.EstimateProductPricing(dec("100"))})
	_, _ = s.Insert(ctx, warehouse.PromotionRow{ID: 1, DiscountPercent: dec("25")})

	cost, err := s.ProductUnitCost(ctx, 1)
	if err != nil || !cost.Equal(dec("70")) {
		t.Errorf("Expected cost 70, got %s err=%v", cost, err)
	}
	pct, err := s.PromotionDiscount(ctx, 1)
	if err != nil || !pct.Equal(dec("25")) {
		t.Errorf("Expected discount 25, got %s err=%v", pct, err)
	}
	cost, err = s.ProductUnitCost(ctx, 42)
	if err != nil || !cost.IsZero() {
		t.Errorf("Expected zero cost for unknown product, got %s err=%v", cost, err)
	}
}

func TestMemStoreCalendarKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	day := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	_, _ = s.Insert(ctx, warehouse.CalendarRow{Date: day})

	key, err := s.LookupKey(ctx, warehouse.Calendar, day.Add(13*time.Hour))
	if err != nil || !key.Valid {
		t.Errorf("Expected calendar key by day, got %+v err=%v", key, err)
	}
	key, _ = s.LookupKey(ctx, warehouse.Calendar, pgtype.Date{Time: day, Valid: true})
	if !key.Valid {
		t.Errorf("Expected pgtype.Date to match")
	}
}

func TestMemStoreRowsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	for _, id := range []string{"9_1", "2_1", "5_3"} {
		if _, err := s.Insert(ctx, warehouse.SaleFact{ID: id}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	_ = s.Commit(ctx)
	_, _ = s.Insert(ctx, warehouse.SaleFact{ID: "1_1"})
	_ = s.Rollback(ctx)
	_, _ = s.Insert(ctx, warehouse.SaleFact{ID: "3_2"})

	var got []string
	for _, rec := range s.Rows(warehouse.SalesFact.Table) {
		got = append(got, rec.(warehouse.SaleFact).ID)
	}
	if want := "9_1,2_1,5_3,3_2"; strings.Join(got, ",") != want {
		t.Errorf("Expected %s, got %s", want, strings.Join(got, ","))
	}
}

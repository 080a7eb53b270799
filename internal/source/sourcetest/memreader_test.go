package sourcetest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
)

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func TestMemReaderOrdering(t *testing.T) {
	r := &MemReader{
		LocalityRows: []source.Locality{{ID: 3}, {ID: 1}, {ID: 2}},
		SaleLineRows: []source.SaleLine{
			{SaleID: 2, ProductID: 1, SaleDate: text("2021-01-02")},
			{SaleID: 1, ProductID: 9, SaleDate: text("2021-01-01")},
			{SaleID: 1, ProductID: 3, SaleDate: text("2021-01-01")},
		},
	}

	locs, err := r.Localities(context.Background())
	if err != nil {
		t.Fatalf("Localities: %v", err)
	}
	for i, want := range []int64{1, 2, 3} {
		if locs[i].ID != want {
			t.Errorf("localities[%d] = %d, want %d", i, locs[i].ID, want)
		}
	}

	lines, _ := r.SaleLines(context.Background())
	got := [][2]int64{}
	for _, l := range lines {
		got = append(got, [2]int64{l.SaleID, l.ProductID})
	}
	want := [][2]int64{{1, 3}, {1, 9}, {2, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %v, want %v", i, got[i], want[i])
		}
	}

	// The source slice is left untouched
	if r.LocalityRows[0].ID != 3 {
		t.Errorf("Expected input order preserved")
	}
}

func TestMemReaderAveragePrice(t *testing.T) {
	r := &MemReader{
		SaleLineRows: []source.SaleLine{
			{SaleID: 1, ProductID: 1, UnitPrice: decimal.NewFromInt(90)},
			{SaleID: 2, ProductID: 1, UnitPrice: decimal.NewFromInt(110)},
			{SaleID: 2, ProductID: 2, UnitPrice: decimal.NewFromInt(5)},
		},
	}

	avg, err := r.AveragePrice(context.Background(), 1)
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if !avg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected average 100, got %s", avg)
	}

	avg, _ = r.AveragePrice(context.Background(), 42)
	if !avg.IsZero() {
		t.Errorf("Expected zero average for unsold product, got %s", avg)
	}
}

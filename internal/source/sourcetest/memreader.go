// Package sourcetest provides an in-memory source.Reader over fixed rows.
package sourcetest

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
)

var _ source.Reader = (*MemReader)(nil)

// MemReader is a source.Reader over in-memory rows. Lists are returned in
// the same order a source.PGReader would produce.
type MemReader struct {
	LocalityRows         []source.Locality
	CustomerCategoryRows []source.Category
	ProductCategoryRows  []source.Category
	SupplierRows         []source.Supplier
	CustomerRows         []source.Customer
	ProductRows          []source.Product
	SalespersonRows      []source.Salesperson
	StoreRows            []source.Store
	PromotionRows        []source.Promotion
	SaleLineRows         []source.SaleLine

	// Err, when set, is returned by every extraction.
	Err error
}

func sortedBy[T any](in []T, id func(T) int64) []T {
	out := append([]T(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

func (m *MemReader) Localities(ctx context.Context) ([]source.Locality, error) {
	return sortedBy(m.LocalityRows, func(r source.Locality) int64 { return r.ID }), m.Err
}

func (m *MemReader) CustomerCategories(ctx context.Context) ([]source.Category, error) {
	return sortedBy(m.CustomerCategoryRows, func(r source.Category) int64 { return r.ID }), m.Err
}

func (m *MemReader) ProductCategories(ctx context.Context) ([]source.Category, error) {
	return sortedBy(m.ProductCategoryRows, func(r source.Category) int64 { return r.ID }), m.Err
}

func (m *MemReader) Suppliers(ctx context.Context) ([]source.Supplier, error) {
	return sortedBy(m.SupplierRows, func(r source.Supplier) int64 { return r.ID }), m.Err
}

func (m *MemReader) Customers(ctx context.Context) ([]source.Customer, error) {
	return sortedBy(m.CustomerRows, func(r source.Customer) int64 { return r.ID }), m.Err
}

func (m *MemReader) Products(ctx context.Context) ([]source.Product, error) {
	return sortedBy(m.ProductRows, func(r source.Product) int64 { return r.ID }), m.Err
}

func (m *MemReader) Salespeople(ctx context.Context) ([]source.Salesperson, error) {
	return sortedBy(m.SalespersonRows, func(r source.Salesperson) int64 { return r.ID }), m.Err
}

func (m *MemReader) Stores(ctx context.Context) ([]source.Store, error) {
	return sortedBy(m.StoreRows, func(r source.Store) int64 { return r.ID }), m.Err
}

func (m *MemReader) Promotions(ctx context.Context) ([]source.Promotion, error) {
	return sortedBy(m.PromotionRows, func(r source.Promotion) int64 { return r.ID }), m.Err
}

// AveragePrice averages the unit price over the product's sale lines.
func (m *MemReader) AveragePrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	var prices []decimal.Decimal
	for _, l := range m.SaleLineRows {
		if l.ProductID == productID {
			prices = append(prices, l.UnitPrice)
		}
	}
	if len(prices) == 0 {
		return decimal.Zero, nil
	}
	return decimal.Avg(prices[0], prices[1:]...), nil
}

// SaleLines orders lines by sale date text, then sale, then product.
func (m *MemReader) SaleLines(ctx context.Context) ([]source.SaleLine, error) {
	out := append([]source.SaleLine(nil), m.SaleLineRows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SaleDate.String != b.SaleDate.String {
			return a.SaleDate.String < b.SaleDate.String
		}
		if a.SaleID != b.SaleID {
			return a.SaleID < b.SaleID
		}
		return a.ProductID < b.ProductID
	})
	return out, m.Err
}

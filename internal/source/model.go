//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads the transactional database the warehouse is built
// from.
package source

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Locality is a row of localidade.
type Locality struct {
	ID     int64
	City   pgtype.Text
	State  pgtype.Text
	Region pgtype.Text
}

// Category is a row of categoria_cliente or categoria_produto.
type Category struct {
	ID   int64
	Name pgtype.Text
}

// Supplier is a row of fornecedores.
type Supplier struct {
	ID     int64
	Name   pgtype.Text
	Origin pgtype.Text
}

// Customer is a row of cliente.
type Customer struct {
	ID         int64
	Name       pgtype.Text
	CategoryID pgtype.Int8
	LocalityID pgtype.Int8
}

// Product is a row of produto.
type Product struct {
	ID         int64
	Name       pgtype.Text
	CategoryID pgtype.Int8
}

// Salesperson is a row of vendedor.
type Salesperson struct {
	ID    int64
	Name  pgtype.Text
	Phone pgtype.Text
	Email pgtype.Text
}

// Store is a row of lojas.
type Store struct {
	ID      int64
	Name    pgtype.Text
	Manager pgtype.Text
	City    pgtype.Text
	State   pgtype.Text
}

// Promotion is a row of promocoes. Dates are kept as text because the
// source stores them loosely.
type Promotion struct {
	ID           int64
	Name         pgtype.Text
	DiscountText pgtype.Text
	Start        pgtype.Text
	End          pgtype.Text
}

// SaleLine is an item_vendas row joined with its vendas header.
type SaleLine struct {
	SaleID        int64
	SaleDate      pgtype.Text
	CustomerID    pgtype.Int8
	SalespersonID pgtype.Int8
	StoreID       pgtype.Int8
	ProductID     int64
	Quantity      pgtype.Int8
	UnitPrice     decimal.Decimal
	PromotionID   pgtype.Int8
}

// Reader extracts source rows. Every list is ordered by natural key, and
// sale lines by sale date, sale and product.
type Reader interface {
	Localities(ctx context.Context) ([]Locality, error)
	CustomerCategories(ctx context.Context) ([]Category, error)
	ProductCategories(ctx context.Context) ([]Category, error)
	Suppliers(ctx context.Context) ([]Supplier, error)
	Customers(ctx context.Context) ([]Customer, error)
	Products(ctx context.Context) ([]Product, error)
	Salespeople(ctx context.Context) ([]Salesperson, error)
	Stores(ctx context.Context) ([]Store, error)
	Promotions(ctx context.Context) ([]Promotion, error)

	// AveragePrice returns the mean sale price of a product over all of
	// its sale lines, or zero when it never sold.
	AveragePrice(ctx context.Context, productID int64) (decimal.Decimal, error)

	SaleLines(ctx context.Context) ([]SaleLine, error)
}

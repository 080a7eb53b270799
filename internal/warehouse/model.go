//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse describes the star schema the pipeline loads and
// provides the stores that write to it.
package warehouse

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
)

// Row status values written by the loaders. Store and promotion rows take
// the feminine form.
const (
	StatusActive    = "ATIVO"
	StatusActiveFem = "ATIVA"
)

// Dimension identifies a warehouse table by its surrogate key column and
// the natural key column used for idempotent matching.
type Dimension struct {
	Name          string
	Table         string
	KeyColumn     string
	NaturalColumn string
}

// Dimension and fact tables.
var (
	Locality         = Dimension{"locality", "dim_localidade", "sk_localidade", "id_localidade"}
	CustomerCategory = Dimension{"customer category", "dim_categoria_cliente", "sk_categoria_cliente", "id_categoria_cliente"}
	ProductCategory  = Dimension{"product category", "dim_categoria_produto", "sk_categoria_produto", "id_categoria_produto"}
	Supplier         = Dimension{"supplier", "dim_fornecedor", "sk_fornecedor", "id_fornecedor"}
	Customer         = Dimension{"customer", "dim_cliente", "sk_cliente", "id_cliente"}
	Product          = Dimension{"product", "dim_produto", "sk_produto", "id_produto"}
	Salesperson      = Dimension{"salesperson", "dim_vendedor", "sk_vendedor", "id_vendedor"}
	StoreDim         = Dimension{"store", "dim_loja", "sk_loja", "id_loja"}
	Promotion        = Dimension{"promotion", "dim_promocao", "sk_promocao", "id_promocao"}
	Calendar         = Dimension{"calendar", "dim_tempo", "sk_tempo", "data_completa"}
	SalesFact        = Dimension{"sales fact", "fato_vendas", "sk_venda", "id_venda"}
)

// SummaryTables lists the warehouse tables in reporting order.
var SummaryTables = []string{
	Locality.Table,
	CustomerCategory.Table,
	ProductCategory.Table,
	Supplier.Table,
	Customer.Table,
	Product.Table,
	Salesperson.Table,
	StoreDim.Table,
	Promotion.Table,
	Calendar.Table,
	SalesFact.Table,
}

// Record is a row destined for a warehouse table.
type Record interface {
	// Dimension returns the table the record belongs to.
	Dimension() Dimension
	// NaturalKey returns the value of the natural key column.
	NaturalKey() any
	// Columns and Values return the insert column list and matching values.
	Columns() []string
	Values() []any
}

// LocalityRow is a dim_localidade row.
type LocalityRow struct {
	ID             int64
	City           string
	State          string
	Region         pgtype.Text
	StandardRegion string
	IsCapital      bool
}

func (r LocalityRow) Dimension() Dimension { return Locality }
func (r LocalityRow) NaturalKey() any      { return r.ID }

func (r LocalityRow) Columns() []string {
	return []string{"id_localidade", "cidade", "estado", "regiao", "regiao_padronizada", "eh_capital"}
}

func (r LocalityRow) Values() []any {
	return []any{r.ID, r.City, r.State, r.Region, r.StandardRegion, r.IsCapital}
}

// CategoryRow is a customer or product category row. Both category tables
// share a shape and differ only in naming.
type CategoryRow struct {
	Kind         Dimension
	ID           int64
	Name         string
	Standardized string
}

func (r CategoryRow) Dimension() Dimension { return r.Kind }
func (r CategoryRow) NaturalKey() any      { return r.ID }

func (r CategoryRow) Columns() []string {
	if r.Kind == ProductCategory {
		return []string{"id_categoria_produto", "nome_categoria_produto", "categoria_padronizada"}
	}
	return []string{"id_categoria_cliente", "nome_categoria_cliente", "categoria_padronizada"}
}

func (r CategoryRow) Values() []any {
	return []any{r.ID, r.Name, r.Standardized}
}

// SupplierRow is a dim_fornecedor row.
type SupplierRow struct {
	ID           int64
	Name         string
	StandardName string
	Origin       pgtype.Text
	LocalityKey  pgtype.Int8
	Status       string
}

func (r SupplierRow) Dimension() Dimension { return Supplier }
func (r SupplierRow) NaturalKey() any      { return r.ID }

func (r SupplierRow) Columns() []string {
	return []string{"id_fornecedor", "nome_fornecedor", "nome_padronizado", "pais_origem", "sk_localidade", "status_fornecedor"}
}

func (r SupplierRow) Values() []any {
	return []any{r.ID, r.Name, r.StandardName, r.Origin, r.LocalityKey, r.Status}
}

// CustomerRow is a dim_cliente row.
type CustomerRow struct {
	ID           int64
	Name         string
	StandardName string
	CategoryKey  pgtype.Int8
	LocalityKey  pgtype.Int8
	RegisteredAt time.Time
	Status       string
}

func (r CustomerRow) Dimension() Dimension { return Customer }
func (r CustomerRow) NaturalKey() any      { return r.ID }

func (r CustomerRow) Columns() []string {
	return []string{"id_cliente", "nome_cliente", "nome_padronizado", "sk_categoria_cliente", "sk_localidade", "data_cadastro", "status_cliente"}
}

func (r CustomerRow) Values() []any {
	return []any{r.ID, r.Name, r.StandardName, r.CategoryKey, r.LocalityKey, dateOf(r.RegisteredAt), r.Status}
}

// ProductRow is a dim_produto row.
type ProductRow struct {
	ID           int64
	Name         string
	StandardName string
	CategoryKey  pgtype.Int8
	Pricing      ProductPricing
	Status       string
}

func (r ProductRow) Dimension() Dimension { return Product }
func (r ProductRow) NaturalKey() any      { return r.ID }

func (r ProductRow) Columns() []string {
	return []string{"id_produto", "nome_produto", "nome_padronizado", "sk_categoria_produto", "preco_unitario", "custo_unitario", "margem_lucro", "status_produto"}
}

func (r ProductRow) Values() []any {
	return []any{
		r.ID, r.Name, r.StandardName, r.CategoryKey,
		db.Numeric(r.Pricing.UnitPrice), db.Numeric(r.Pricing.UnitCost), db.Numeric(r.Pricing.MarginPercent),
		r.Status,
	}
}

// SalespersonRow is a dim_vendedor row.
type SalespersonRow struct {
	ID           int64
	Name         string
	StandardName string
	Phone        pgtype.Text
	Email        pgtype.Text
	LocalityKey  pgtype.Int8
	RegisteredAt time.Time
	Status       string
}

func (r SalespersonRow) Dimension() Dimension { return Salesperson }
func (r SalespersonRow) NaturalKey() any      { return r.ID }

func (r SalespersonRow) Columns() []string {
	return []string{"id_vendedor", "nome_vendedor", "nome_padronizado", "telefone", "email", "sk_localidade", "data_cadastro", "status_vendedor"}
}

func (r SalespersonRow) Values() []any {
	return []any{r.ID, r.Name, r.StandardName, r.Phone, r.Email, r.LocalityKey, dateOf(r.RegisteredAt), r.Status}
}

// StoreRow is a dim_loja row.
type StoreRow struct {
	ID           int64
	Name         string
	StandardName string
	Manager      pgtype.Text
	LocalityKey  pgtype.Int8
	Type         string
	Status       string
}

func (r StoreRow) Dimension() Dimension { return StoreDim }
func (r StoreRow) NaturalKey() any      { return r.ID }

func (r StoreRow) Columns() []string {
	return []string{"id_loja", "nome_loja", "nome_padronizado", "gerente_loja", "sk_localidade", "tipo_loja", "status_loja"}
}

func (r StoreRow) Values() []any {
	return []any{r.ID, r.Name, r.StandardName, r.Manager, r.LocalityKey, r.Type, r.Status}
}

// PromotionRow is a dim_promocao row.
type PromotionRow struct {
	ID              int64
	Name            string
	Type            string
	DiscountPercent decimal.Decimal
	Start           pgtype.Date
	End             pgtype.Date
	Status          string
}

func (r PromotionRow) Dimension() Dimension { return Promotion }
func (r PromotionRow) NaturalKey() any      { return r.ID }

func (r PromotionRow) Columns() []string {
	return []string{"id_promocao", "nome_promocao", "tipo_promocao", "percentual_desconto", "data_inicio", "data_fim", "status_promocao"}
}

func (r PromotionRow) Values() []any {
	return []any{r.ID, r.Name, r.Type, db.Numeric(r.DiscountPercent), r.Start, r.End, r.Status}
}

// CalendarRow is a dim_tempo row.
type CalendarRow struct {
	Date        time.Time
	Year        int
	Month       int
	Day         int
	Quarter     int
	Half        int
	Weekday     int
	WeekdayName string
	MonthName   string
	Weekend     bool
}

func (r CalendarRow) Dimension() Dimension { return Calendar }
func (r CalendarRow) NaturalKey() any      { return dateOf(r.Date) }

func (r CalendarRow) Columns() []string {
	return []string{"data_completa", "ano", "mes", "dia", "trimestre", "semestre", "dia_semana", "nome_dia_semana", "nome_mes", "eh_fim_semana"}
}

func (r CalendarRow) Values() []any {
	return []any{dateOf(r.Date), r.Year, r.Month, r.Day, r.Quarter, r.Half, r.Weekday, r.WeekdayName, r.MonthName, r.Weekend}
}

// SaleFact is a fato_vendas row.
type SaleFact struct {
	ID             string
	TimeKey        pgtype.Int8
	CustomerKey    pgtype.Int8
	SalespersonKey pgtype.Int8
	StoreKey       pgtype.Int8
	ProductKey     pgtype.Int8
	PromotionKey   pgtype.Int8
	Metrics        SaleMetrics
}

func (r SaleFact) Dimension() Dimension { return SalesFact }
func (r SaleFact) NaturalKey() any      { return r.ID }

func (r SaleFact) Columns() []string {
	return []string{
		"id_venda", "sk_tempo", "sk_cliente", "sk_vendedor", "sk_loja", "sk_produto", "sk_promocao",
		"quantidade_vendida", "preco_unitario_venda", "valor_total_item",
		"percentual_desconto", "valor_desconto", "valor_final",
		"custo_unitario", "custo_total_item", "lucro_bruto",
	}
}

func (r SaleFact) Values() []any {
	m := r.Metrics
	return []any{
		r.ID, r.TimeKey, r.CustomerKey, r.SalespersonKey, r.StoreKey, r.ProductKey, r.PromotionKey,
		m.Quantity, db.Numeric(m.UnitPrice), db.Numeric(m.Gross),
		db.Numeric(m.DiscountPercent), db.Numeric(m.DiscountAmount), db.Numeric(m.Net),
		db.Numeric(m.UnitCost), db.Numeric(m.TotalCost), db.Numeric(m.GrossProfit),
	}
}

// dateOf truncates t to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
)

const (
	localitiesSQL = `
        SELECT DISTINCT id_localidade, cidade, estado, regiao
        FROM localidade
        ORDER BY id_localidade`

	customerCategoriesSQL = `
        SELECT id_categoria_cliente, nome_categoria_cliente
        FROM categoria_cliente
        ORDER BY id_categoria_cliente`

	productCategoriesSQL = `
        SELECT id_categoria_produto, nome_categoria_produto
        FROM categoria_produto
        ORDER BY id_categoria_produto`

	suppliersSQL = `
        SELECT id_fornecedor, nome_fornecedor, pais_origem
        FROM fornecedores
        ORDER BY id_fornecedor`

	customersSQL = `
        SELECT id_cliente, nome_cliente, id_categoria_cliente, id_localidade
        FROM cliente
        ORDER BY id_cliente`

	productsSQL = `
        SELECT id_produto, nome_produto, id_categoria_produto
        FROM produto
        ORDER BY id_produto`

	salespeopleSQL = `
        SELECT id_vendedor, nome_vendedor, telefone, email
        FROM vendedor
        ORDER BY id_vendedor`

	storesSQL = `
        SELECT id_loja, nome_loja, gerente_loja, cidade, estado
        FROM lojas
        ORDER BY id_loja`

	promotionsSQL = `
        SELECT id_promocao, nome_promocao, tipo_desconto,
               data_inicio::text, data_fim::text
        FROM promocoes
        ORDER BY id_promocao`

	averagePriceSQL = `
        SELECT COALESCE(AVG(preco_venda), 0)
        FROM item_vendas
        WHERE id_produto = $1`

	saleLinesSQL = `
        SELECT v.id_venda, v.data_venda::text, v.id_cliente, v.id_vendedor, v.id_loja,
               iv.id_produto, iv.qtd_vendida, COALESCE(iv.preco_venda, 0), iv.id_promocao_aplicada
        FROM vendas v
        JOIN item_vendas iv ON v.id_venda = iv.id_venda
        ORDER BY v.data_venda, v.id_venda, iv.id_produto`
)

// PGReader reads the transactional PostgreSQL database.
type PGReader struct {
	q db.Querier
}

// NewPGReader creates a reader over q.
func NewPGReader(q db.Querier) *PGReader {
	return &PGReader{q: q}
}

func collect[T any](ctx context.Context, q db.Querier, what, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return out, nil
}

// Localities returns every locality.
func (r *PGReader) Localities(ctx context.Context) ([]Locality, error) {
	return collect[Locality](ctx, r.q, "localities", localitiesSQL)
}

// CustomerCategories returns every customer category.
func (r *PGReader) CustomerCategories(ctx context.Context) ([]Category, error) {
	return collect[Category](ctx, r.q, "customer categories", customerCategoriesSQL)
}

// ProductCategories returns every product category.
func (r *PGReader) ProductCategories(ctx context.Context) ([]Category, error) {
	return collect[Category](ctx, r.q, "product categories", productCategoriesSQL)
}

// Suppliers returns every supplier.
func (r *PGReader) Suppliers(ctx context.Context) ([]Supplier, error) {
	return collect[Supplier](ctx, r.q, "suppliers", suppliersSQL)
}

// Customers returns every customer.
func (r *PGReader) Customers(ctx context.Context) ([]Customer, error) {
	return collect[Customer](ctx, r.q, "customers", customersSQL)
}

// Products returns every product.
func (r *PGReader) Products(ctx context.Context) ([]Product, error) {
	return collect[Product](ctx, r.q, "products", productsSQL)
}

// Salespeople returns every salesperson.
func (r *PGReader) Salespeople(ctx context.Context) ([]Salesperson, error) {
	return collect[Salesperson](ctx, r.q, "salespeople", salespeopleSQL)
}

// Stores returns every store.
func (r *PGReader) Stores(ctx context.Context) ([]Store, error) {
	return collect[Store](ctx, r.q, "stores", storesSQL)
}

// Promotions returns every promotion.
func (r *PGReader) Promotions(ctx context.Context) ([]Promotion, error) {
	return collect[Promotion](ctx, r.q, "promotions", promotionsSQL)
}

// AveragePrice returns the mean sale price of a product.
func (r *PGReader) AveragePrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var avg decimal.Decimal
	if err := r.q.QueryRow(ctx, averagePriceSQL, productID).Scan(&avg); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read average price of product %d: %w", productID, err)
	}
	return avg, nil
}

// SaleLines returns every sale line joined with its sale header.
func (r *PGReader) SaleLines(ctx context.Context) ([]SaleLine, error) {
	return collect[SaleLine](ctx, r.q, "sale lines", saleLinesSQL)
}

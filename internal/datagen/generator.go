package datagen

import (
	"context"
	"fmt"
	"math/rand/v2"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// Target is the connection generated rows are written to.
type Target interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Config controls generation.
type Config struct {
	// Scale multiplies the row counts of the scaled tables.
	Scale int

	// Seed makes generation reproducible.
	Seed uint64

	Batch BatchInsertConfig
}

// BatchInsertConfig configures batch insert behavior.
type BatchInsertConfig struct {
	// BatchSize is the number of rows per batch insert.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch insert configuration.
func DefaultBatchConfig() BatchInsertConfig {
	return BatchInsertConfig{
		BatchSize:        500,
		ProgressInterval: 5000,
	}
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval <= 0 {
		interval = 1
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rowsInserted int64) {
	oldRow := p.currentRow
	p.currentRow += rowsInserted

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}

// table is the insert shape of one source table.
type table struct {
	name    string
	columns []string
	rows    [][]any
}

// tables lists the dataset in foreign key order.
func (ds *Dataset) tables() []table {
	t := []table{
		{name: "localidade", columns: []string{"id_localidade", "cidade", "estado", "regiao"}},
		{name: "categoria_cliente", columns: []string{"id_categoria_cliente", "nome_categoria_cliente"}},
		{name: "categoria_produto", columns: []string{"id_categoria_produto", "nome_categoria_produto"}},
		{name: "fornecedores", columns: []string{"id_fornecedor", "nome_fornecedor", "pais_origem"}},
		{name: "cliente", columns: []string{"id_cliente", "nome_cliente", "id_categoria_cliente", "id_localidade"}},
		{name: "produto", columns: []string{"id_produto", "nome_produto", "id_categoria_produto", "id_fornecedor"}},
		{name: "vendedor", columns: []string{"id_vendedor", "nome_vendedor", "telefone", "email"}},
		{name: "lojas", columns: []string{"id_loja", "nome_loja", "gerente_loja", "cidade", "estado"}},
		{name: "promocoes", columns: []string{"id_promocao", "nome_promocao", "tipo_desconto", "data_inicio", "data_fim"}},
		{name: "vendas", columns: []string{"id_venda", "data_venda", "id_cliente", "id_vendedor", "id_loja"}},
		{name: "item_vendas", columns: []string{"id_venda", "id_produto", "qtd_vendida", "preco_venda", "id_promocao_aplicada"}},
	}

	for _, r := range ds.Localities {
		t[0].rows = append(t[0].rows, []any{r.ID, r.City, r.State, r.Region})
	}
	for _, r := range ds.CustomerCategories {
		t[1].rows = append(t[1].rows, []any{r.ID, r.Name})
	}
	for _, r := range ds.ProductCategories {
		t[2].rows = append(t[2].rows, []any{r.ID, r.Name})
	}
	for _, r := range ds.Suppliers {
		t[3].rows = append(t[3].rows, []any{r.ID, r.Name, r.Origin})
	}
	for _, r := range ds.Customers {
		t[4].rows = append(t[4].rows, []any{r.ID, r.Name, r.CategoryID, r.LocalityID})
	}
	for _, r := range ds.Products {
		t[5].rows = append(t[5].rows, []any{r.ID, r.Name, r.CategoryID, r.SupplierID})
	}
	for _, r := range ds.Salespeople {
		t[6].rows = append(t[6].rows, []any{r.ID, r.Name, r.Phone, r.Email})
	}
	for _, r := range ds.Stores {
		t[7].rows = append(t[7].rows, []any{r.ID, r.Name, r.Manager, r.City, r.State})
	}
	for _, r := range ds.Promotions {
		t[8].rows = append(t[8].rows, []any{r.ID, r.Name, r.DiscountText, r.Start, r.End})
	}
	for _, r := range ds.Sales {
		t[9].rows = append(t[9].rows, []any{r.ID, r.Date, r.CustomerID, r.SalespersonID, r.StoreID})
	}
	for _, r := range ds.Items {
		// Prices go over the wire as text so NUMERIC keeps every digit.
		t[10].rows = append(t[10].rows, []any{r.SaleID, r.ProductID, r.Quantity, r.Price.StringFixed(2), r.PromotionID})
	}
	return t
}

// Insert writes the dataset with multi-row inserts, committing once per
// table.
func (ds *Dataset) Insert(ctx context.Context, target Target, cfg BatchInsertConfig) error {
	if cfg.BatchSize <= 0 {
		cfg = DefaultBatchConfig()
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	for _, t := range ds.tables() {
		progress := NewProgressReporter(t.name, int64(len(t.rows)), cfg.ProgressInterval)

		for start := 0; start < len(t.rows); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(t.rows))

			insert := builder.Insert(t.name).Columns(t.columns...)
			for _, row := range t.rows[start:end] {
				insert = insert.Values(row...)
			}
			query, args, err := insert.ToSql()
			if err != nil {
				return fmt.Errorf("build insert into %s: %w", t.name, err)
			}
			if _, err := target.Exec(ctx, query, args...); err != nil {
				_ = target.Rollback(ctx)
				return fmt.Errorf("insert into %s: %w", t.name, err)
			}
			progress.Update(int64(end - start))
		}

		if err := target.Commit(ctx); err != nil {
			return fmt.Errorf("commit %s: %w", t.name, err)
		}
		progress.Done()
	}
	return nil
}

// Generate builds a dataset and writes it to target. A zero seed is
// replaced by a random one, which is logged so the data can be rebuilt.
func Generate(ctx context.Context, target Target, cfg Config) (*Dataset, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	ds := Build(cfg.Scale, seed)
	logging.Info().
		Int("scale", cfg.Scale).
		Uint64("seed", seed).
		Int("sales", len(ds.Sales)).
		Int("sale_lines", len(ds.Items)).
		Msg("Generating source data")

	if err := ds.Insert(ctx, target, cfg.Batch); err != nil {
		return ds, err
	}
	return ds, nil
}

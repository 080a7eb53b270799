// Package warehousetest provides an in-memory warehouse.Store for tests
// that exercise loaders and pipelines without PostgreSQL.
package warehousetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// ErrTxAborted mirrors PostgreSQL's behaviour of rejecting every statement
// after a failure until the transaction is rolled back.
var ErrTxAborted = errors.New("current transaction is aborted, commands ignored until end of transaction block")

// memRow is a stored record with its surrogate key.
type memRow struct {
	key int64
	rec warehouse.Record
}

// memTable keeps rows in insertion order plus a natural key index.
type memTable struct {
	rows      []memRow
	byNatural map[string]int
	byKey     map[int64]int
}

func newMemTable() *memTable {
	return &memTable{byNatural: map[string]int{}, byKey: map[int64]int{}}
}

// pendingInsert records an uncommitted insert so it can be undone.
type pendingInsert struct {
	table   string
	natural string
	key     int64
}

var _ warehouse.Store = (*MemStore)(nil)

// MemStore is an in-memory warehouse.Store with PostgreSQL-like transaction
// semantics: inserts are visible inside the open transaction, Rollback
// removes them, and surrogate key sequences are never rewound.
type MemStore struct {
	mu        sync.Mutex
	tables    map[string]*memTable
	sequences map[string]int64
	pending   []pendingInsert
	aborted   bool

	commits   int
	rollbacks int

	// FailInsert, when set, is consulted before every insert. A non-nil
	// error fails the insert and aborts the transaction.
	FailInsert func(rec warehouse.Record) error
}

// NewMemStore creates an empty in-memory warehouse.
func NewMemStore() *MemStore {
	return &MemStore{
		tables:    map[string]*memTable{},
		sequences: map[string]int64{},
	}
}

func (m *MemStore) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = newMemTable()
		m.tables[name] = t
	}
	return t
}

// naturalString gives natural keys a comparable form: integers of any
// width compare equal and dates compare by calendar day.
func naturalString(v any) string {
	switch k := v.(type) {
	case time.Time:
		return k.Format("2006-01-02")
	case pgtype.Date:
		return k.Time.Format("2006-01-02")
	case int:
		return fmt.Sprintf("%d", k)
	case int32:
		return fmt.Sprintf("%d", k)
	case int64:
		return fmt.Sprintf("%d", k)
	default:
		return fmt.Sprint(k)
	}
}

// Insert adds rec unless its natural key is present.
func (m *MemStore) Insert(ctx context.Context, rec warehouse.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return false, ErrTxAborted
	}
	if m.FailInsert != nil {
		if err := m.FailInsert(rec); err != nil {
			m.aborted = true
			return false, err
		}
	}

	dim := rec.Dimension()
	t := m.table(dim.Table)
	natural := naturalString(rec.NaturalKey())
	if _, exists := t.byNatural[natural]; exists {
		return false, nil
	}

	m.sequences[dim.Table]++
	key := m.sequences[dim.Table]
	t.rows = append(t.rows, memRow{key: key, rec: rec})
	t.byNatural[natural] = len(t.rows) - 1
	t.byKey[key] = len(t.rows) - 1
	m.pending = append(m.pending, pendingInsert{table: dim.Table, natural: natural, key: key})
	return true, nil
}

// LookupKey resolves a natural key to its surrogate key.
func (m *MemStore) LookupKey(ctx context.Context, dim warehouse.Dimension, natural any) (pgtype.Int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return pgtype.Int8{}, ErrTxAborted
	}
	t := m.table(dim.Table)
	idx, ok := t.byNatural[naturalString(natural)]
	if !ok {
		return pgtype.Int8{}, nil
	}
	return pgtype.Int8{Int64: t.rows[idx].key, Valid: true}, nil
}

// LookupLocality returns the lowest locality key matching city and state.
func (m *MemStore) LookupLocality(ctx context.Context, city, state string) (pgtype.Int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return pgtype.Int8{}, ErrTxAborted
	}
	city = strings.ToLower(strings.TrimSpace(city))
	state = strings.ToLower(strings.TrimSpace(state))

	var best pgtype.Int8
	for _, row := range m.table(warehouse.Locality.Table).rows {
		loc, ok := row.rec.(warehouse.LocalityRow)
		if !ok {
			continue
		}
		if strings.ToLower(loc.City) != city || strings.ToLower(loc.State) != state {
			continue
		}
		if !best.Valid || row.key < best.Int64 {
			best = pgtype.Int8{Int64: row.key, Valid: true}
		}
	}
	return best, nil
}

// ProductUnitCost returns the unit cost stored on a product row.
func (m *MemStore) ProductUnitCost(ctx context.Context, productKey int64) (decimal.Decimal, error) {
	rec, err := m.byKey(warehouse.Product.Table, productKey)
	if err != nil || rec == nil {
		return decimal.Zero, err
	}
	if p, ok := rec.(warehouse.ProductRow); ok {
		return p.Pricing.UnitCost, nil
	}
	return decimal.Zero, nil
}

// PromotionDiscount returns the discount percentage stored on a promotion row.
func (m *MemStore) PromotionDiscount(ctx context.Context, promotionKey int64) (decimal.Decimal, error) {
	rec, err := m.byKey(warehouse.Promotion.Table, promotionKey)
	if err != nil || rec == nil {
		return decimal.Zero, err
	}
	if p, ok := rec.(warehouse.PromotionRow); ok {
		return p.DiscountPercent, nil
	}
	return decimal.Zero, nil
}

func (m *MemStore) byKey(table string, key int64) (warehouse.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return nil, ErrTxAborted
	}
	t := m.table(table)
	idx, ok := t.byKey[key]
	if !ok {
		return nil, nil
	}
	return t.rows[idx].rec, nil
}

// CountRows returns the number of rows visible in table.
func (m *MemStore) CountRows(ctx context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return 0, ErrTxAborted
	}
	return int64(len(m.table(table).rows)), nil
}

// Commit makes pending inserts permanent. Committing an aborted
// transaction rolls it back, as PostgreSQL does.
func (m *MemStore) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		m.undo()
		m.rollbacks++
		return ErrTxAborted
	}
	m.pending = nil
	m.commits++
	return nil
}

// Rollback discards pending inserts and clears the aborted state.
func (m *MemStore) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo()
	m.rollbacks++
	return nil
}

func (m *MemStore) undo() {
	for i := len(m.pending) - 1; i >= 0; i-- {
		p := m.pending[i]
		t := m.table(p.table)
		idx := t.byNatural[p.natural]
		t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
		delete(t.byNatural, p.natural)
		delete(t.byKey, p.key)
		for j := idx; j < len(t.rows); j++ {
			t.byNatural[naturalString(t.rows[j].rec.NaturalKey())] = j
			t.byKey[t.rows[j].key] = j
		}
	}
	m.pending = nil
	m.aborted = false
}

// Rows returns the committed and pending records of a table ordered by
// surrogate key.
func (m *MemStore) Rows(table string) []warehouse.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := append([]memRow(nil), m.table(table).rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	out := make([]warehouse.Record, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out
}

// Stats reports how many commits and rollbacks the store has seen.
func (m *MemStore) Stats() (commits, rollbacks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits, m.rollbacks
}

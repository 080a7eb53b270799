package loader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/resolve"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source/sourcetest"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse/warehousetest"
)

var loadDate = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func txt(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }
func id(n int64) pgtype.Int8   { return pgtype.Int8{Int64: n, Valid: true} }
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSource() *sourcetest.MemReader {
	return &sourcetest.MemReader{
		LocalityRows: []source.Locality{
			{ID: 1, City: txt("  são   paulo "), State: txt("sp"), Region: txt("sudeste")},
			{ID: 2, City: txt("campinas"), State: txt("SP"), Region: txt("SUDESTE")},
			{ID: 3, City: txt("recife"), State: txt("pe")},
		},
		CustomerCategoryRows: []source.Category{
			{ID: 1, Name: txt("cliente vip")},
			{ID: 2, Name: txt("varejo")},
		},
		ProductCategoryRows: []source.Category{
			{ID: 1, Name: txt("celulares")},
			{ID: 2, Name: pgtype.Text{}},
		},
		SupplierRows: []source.Supplier{
			{ID: 1, Name: txt("distribuidora   do norte"), Origin: txt("brasil")},
			{ID: 2},
		},
		CustomerRows: []source.Customer{
			{ID: 1, Name: txt("joão da silva"), CategoryID: id(1), LocalityID: id(1)},
			{ID: 2, Name: txt("maria"), CategoryID: id(9), LocalityID: pgtype.Int8{}},
		},
		ProductRows: []source.Product{
			{ID: 1, Name: txt("smartphone x"), CategoryID: id(1)},
			{ID: 2, Name: txt("caderno"), CategoryID: id(2)},
		},
		SalespersonRows: []source.Salesperson{
			{ID: 1, Name: txt("ana de souza"), Phone: txt(" (11)  9999-0000 "), Email: txt(" Ana.Souza@Loja.COM ")},
		},
		StoreRows: []source.Store{
			{ID: 1, Name: txt("loja shopping ibirapuera"), Manager: txt("carlos"), City: txt("São Paulo"), State: txt("SP")},
			{ID: 2, Name: txt("outlet recife"), City: txt("Recife"), State: txt("PE")},
			{ID: 3, Name: txt("loja sem cidade")},
		},
		PromotionRows: []source.Promotion{
			{ID: 1, Name: txt("Black Friday 25% off"), DiscountText: txt("Black Friday 25% off"), Start: txt("2021-11-20"), End: txt("30/11/2021")},
			{ID: 2, Name: txt("queima"), DiscountText: txt("sem desconto"), Start: txt("Data Inválida"), End: txt("N/A")},
		},
		SaleLineRows: []source.SaleLine{
			{SaleID: 1, SaleDate: txt("2021-03-04"), CustomerID: id(1), SalespersonID: id(1), StoreID: id(1), ProductID: 1, Quantity: id(2), UnitPrice: dec("100"), PromotionID: id(1)},
			{SaleID: 2, SaleDate: txt("05/03/2021"), CustomerID: id(2), StoreID: id(2), ProductID: 1, Quantity: pgtype.Int8{}, UnitPrice: dec("100")},
			{SaleID: 3, SaleDate: txt("2021-13-01"), CustomerID: id(1), ProductID: 1, Quantity: id(1), UnitPrice: dec("100")},
			{SaleID: 4, SaleDate: txt("N/A"), CustomerID: id(1), ProductID: 1, Quantity: id(1), UnitPrice: dec("100")},
			{SaleID: 5, SaleDate: txt("2030-01-01"), CustomerID: id(1), ProductID: 1, Quantity: id(1), UnitPrice: dec("100")},
			{SaleID: 6, SaleDate: txt("2021-03-06"), CustomerID: id(77), ProductID: 2, Quantity: id(0), UnitPrice: dec("-3")},
		},
	}
}

func newEnv(src source.Reader) (*Env, *warehousetest.MemStore) {
	store := warehousetest.NewMemStore()
	start, end := DefaultCalendarRange()
	return &Env{
		Source:        src,
		Target:        store,
		Keys:          resolve.New(store, false),
		DateFormats:   normalize.DefaultDateFormats,
		FactBatchSize: 2,
		CalendarStart: start,
		CalendarEnd:   end,
		Now:           func() time.Time { return loadDate },
	}, store
}

// loadAll runs every loader in dependency order and fails on any error.
func loadAll(t *testing.T, env *Env) {
	t.Helper()
	for _, name := range []string{
		"locality", "customer_category", "product_category",
		"supplier", "customer", "product", "salesperson", "store", "promotion", "calendar",
		"fact",
	} {
		l, err := Get(name, env)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if _, err := l.Load(context.Background()); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestLocalityLoader(t *testing.T) {
	env, store := newEnv(sampleSource())
	res, err := NewLocality(env).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Extracted != 3 || res.Inserted != 3 {
		t.Errorf("Expected 3 extracted and inserted, got %+v", res)
	}

	rows := store.Rows(warehouse.Locality.Table)
	sp := rows[0].(warehouse.LocalityRow)
	if sp.City != "São Paulo" || sp.State != "SP" || !sp.IsCapital || sp.StandardRegion != "Sudeste" {
		t.Errorf("Unexpected São Paulo row: %+v", sp)
	}
	if sp.Region.String != "sudeste" {
		t.Errorf("Expected raw region kept, got %q", sp.Region.String)
	}
	if campinas := rows[1].(warehouse.LocalityRow); campinas.IsCapital {
		t.Error("Expected Campinas not to be a capital")
	}
	if recife := rows[2].(warehouse.LocalityRow); recife.Region.Valid || recife.StandardRegion != normalize.Undefined {
		t.Errorf("Expected missing region to be undefined, got %+v", recife)
	}
}

func TestDimensionLoadIsIdempotent(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()

	loaders := []Loader{NewLocality(env), NewCustomerCategory(env), NewCustomer(env)}
	for _, l := range loaders {
		if _, err := l.Load(ctx); err != nil {
			t.Fatalf("%s: %v", l.Name(), err)
		}
	}
	for _, l := range loaders {
		before, _ := store.CountRows(ctx, l.Table())
		res, err := l.Load(ctx)
		if err != nil {
			t.Fatalf("%s rerun: %v", l.Name(), err)
		}
		after, _ := store.CountRows(ctx, l.Table())
		if res.Inserted != 0 || res.Skipped != res.Extracted || before != after {
			t.Errorf("%s: expected no new rows on rerun, got %+v (%d -> %d)", l.Name(), res, before, after)
		}
	}
}

func TestCategoryLoaders(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	if _, err := NewCustomerCategory(env).Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := NewProductCategory(env).Load(ctx); err != nil {
		t.Fatal(err)
	}

	customer := store.Rows(warehouse.CustomerCategory.Table)
	tests := []struct {
		rec  warehouse.Record
		name string
		std  string
	}{
		{customer[0], "Cliente Vip", normalize.CustomerPremium},
		{customer[1], "Varejo", normalize.CustomerStandard},
		{store.Rows(warehouse.ProductCategory.Table)[0], "Celulares", normalize.ProductElectronics},
		{store.Rows(warehouse.ProductCategory.Table)[1], normalize.Undefined, normalize.Undefined},
	}
	for _, tt := range tests {
		row := tt.rec.(warehouse.CategoryRow)
		if row.Name != tt.name || row.Standardized != tt.std {
			t.Errorf("Expected %q/%q, got %q/%q", tt.name, tt.std, row.Name, row.Standardized)
		}
	}
}

func TestCustomerLoaderResolvesKeys(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	for _, l := range []Loader{NewLocality(env), NewCustomerCategory(env), NewCustomer(env)} {
		if _, err := l.Load(ctx); err != nil {
			t.Fatalf("%s: %v", l.Name(), err)
		}
	}

	rows := store.Rows(warehouse.Customer.Table)
	joao := rows[0].(warehouse.CustomerRow)
	if joao.Name != "João Da Silva" || joao.StandardName != "João da Silva" {
		t.Errorf("Unexpected names %q / %q", joao.Name, joao.StandardName)
	}
	if !joao.CategoryKey.Valid || !joao.LocalityKey.Valid {
		t.Errorf("Expected both keys resolved, got %+v", joao)
	}
	if !joao.RegisteredAt.Equal(loadDate) || joao.Status != warehouse.StatusActive {
		t.Errorf("Unexpected registration %v / %s", joao.RegisteredAt, joao.Status)
	}

	maria := rows[1].(warehouse.CustomerRow)
	if maria.CategoryKey.Valid || maria.LocalityKey.Valid {
		t.Errorf("Expected unknown references to stay NULL, got %+v", maria)
	}
}

func TestSupplierAndSalespersonLoaders(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	if _, err := NewSupplier(env).Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSalesperson(env).Load(ctx); err != nil {
		t.Fatal(err)
	}

	suppliers := store.Rows(warehouse.Supplier.Table)
	first := suppliers[0].(warehouse.SupplierRow)
	if first.StandardName != "Distribuidora do Norte" || first.Origin.String != "Brasil" || first.LocalityKey.Valid {
		t.Errorf("Unexpected supplier %+v", first)
	}
	if unnamed := suppliers[1].(warehouse.SupplierRow); unnamed.Name != "Fornecedor N/A" || unnamed.Origin.Valid {
		t.Errorf("Expected fallback name and NULL origin, got %+v", unnamed)
	}

	ana := store.Rows(warehouse.Salesperson.Table)[0].(warehouse.SalespersonRow)
	if ana.StandardName != "Ana de Souza" {
		t.Errorf("Expected 'Ana de Souza', got %q", ana.StandardName)
	}
	if ana.Phone.String != "(11) 9999-0000" || ana.Email.String != "ana.souza@loja.com" {
		t.Errorf("Unexpected contacts %q / %q", ana.Phone.String, ana.Email.String)
	}
	if ana.LocalityKey.Valid {
		t.Error("Expected salesperson locality to stay NULL")
	}
}

func TestProductLoaderPricing(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	for _, l := range []Loader{NewProductCategory(env), NewProduct(env)} {
		if _, err := l.Load(ctx); err != nil {
			t.Fatalf("%s: %v", l.Name(), err)
		}
	}

	rows := store.Rows(warehouse.Product.Table)
	phone := rows[0].(warehouse.ProductRow)
	if !phone.Pricing.UnitPrice.Equal(dec("100")) || !phone.Pricing.UnitCost.Equal(dec("70")) || !phone.Pricing.MarginPercent.Equal(dec("30")) {
		t.Errorf("Expected 100/70/30, got %+v", phone.Pricing)
	}
	if !phone.CategoryKey.Valid {
		t.Error("Expected product category resolved")
	}

	// Product 2 only sold at a negative price, which averages below zero
	notebook := rows[1].(warehouse.ProductRow)
	if !notebook.Pricing.UnitCost.IsZero() || !notebook.Pricing.MarginPercent.IsZero() {
		t.Errorf("Expected zero cost and margin, got %+v", notebook.Pricing)
	}
}

func TestStoreLoader(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	for _, l := range []Loader{NewLocality(env), NewStore(env)} {
		if _, err := l.Load(ctx); err != nil {
			t.Fatalf("%s: %v", l.Name(), err)
		}
	}

	rows := store.Rows(warehouse.StoreDim.Table)
	tests := []struct {
		name     string
		typ      string
		locality int64
	}{
		{"Loja Shopping Ibirapuera", normalize.StoreShopping, 1},
		{"Outlet Recife", normalize.StoreOutlet, 3},
		{"Loja Sem Cidade", normalize.StoreStandard, 0},
	}
	for i, tt := range tests {
		row := rows[i].(warehouse.StoreRow)
		if row.Name != tt.name || row.Type != tt.typ {
			t.Errorf("store %d: expected %q/%q, got %q/%q", i, tt.name, tt.typ, row.Name, row.Type)
		}
		if row.LocalityKey.Int64 != tt.locality || row.LocalityKey.Valid != (tt.locality != 0) {
			t.Errorf("store %d: expected locality %d, got %+v", i, tt.locality, row.LocalityKey)
		}
		if row.Status != warehouse.StatusActiveFem {
			t.Errorf("store %d: expected status %s, got %s", i, warehouse.StatusActiveFem, row.Status)
		}
	}
}

func TestPromotionLoader(t *testing.T) {
	env, store := newEnv(sampleSource())
	if _, err := NewPromotion(env).Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	rows := store.Rows(warehouse.Promotion.Table)
	bf := rows[0].(warehouse.PromotionRow)
	if bf.Type != normalize.PromotionBlackFriday || !bf.DiscountPercent.Equal(dec("25")) {
		t.Errorf("Expected Black Friday at 25%%, got %s at %s", bf.Type, bf.DiscountPercent)
	}
	if !bf.Start.Valid || bf.Start.Time.Day() != 20 || !bf.End.Valid || bf.End.Time.Day() != 30 {
		t.Errorf("Expected both date formats parsed, got %+v / %+v", bf.Start, bf.End)
	}

	other := rows[1].(warehouse.PromotionRow)
	if !other.DiscountPercent.IsZero() || other.Start.Valid || other.End.Valid {
		t.Errorf("Expected zero discount and NULL dates, got %+v", other)
	}
	if other.Type != normalize.PromotionGeneral {
		t.Errorf("Expected %s, got %s", normalize.PromotionGeneral, other.Type)
	}
}

func TestCalendarDays(t *testing.T) {
	start, end := DefaultCalendarRange()
	days := CalendarDays(start, end)
	if len(days) != 2192 {
		t.Fatalf("Expected 2192 days, got %d", len(days))
	}

	seen := make(map[string]bool)
	for _, d := range days {
		key := d.Date.Format(time.DateOnly)
		if seen[key] {
			t.Fatalf("Duplicate day %s", key)
		}
		seen[key] = true

		wd := d.Date.Weekday()
		if d.Weekend != (wd == time.Saturday || wd == time.Sunday) {
			t.Errorf("%s: weekend flag %v on %s", key, d.Weekend, wd)
		}
		if d.Quarter != (d.Month-1)/3+1 {
			t.Errorf("%s: quarter %d", key, d.Quarter)
		}
	}
}

func TestCalendarDay(t *testing.T) {
	tests := []struct {
		date    time.Time
		weekday int
		name    string
		month   string
		half    int
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, "Segunda", "Janeiro", 1},
		{time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC), 6, "Sábado", "Julho", 2},
		{time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC), 7, "Domingo", "Dezembro", 2},
	}
	for _, tt := range tests {
		d := CalendarDay(tt.date)
		if d.Weekday != tt.weekday || d.WeekdayName != tt.name || d.MonthName != tt.month || d.Half != tt.half {
			t.Errorf("%s: got %d %s %s half %d", tt.date.Format(time.DateOnly), d.Weekday, d.WeekdayName, d.MonthName, d.Half)
		}
	}
}

func TestCalendarInvalidRange(t *testing.T) {
	env, _ := newEnv(sampleSource())
	env.CalendarStart, env.CalendarEnd = env.CalendarEnd, env.CalendarStart
	if _, err := NewCalendar(env).Load(context.Background()); err == nil {
		t.Error("Expected error for reversed calendar range")
	}
}

func factsByID(store *warehousetest.MemStore) map[string]warehouse.SaleFact {
	facts := make(map[string]warehouse.SaleFact)
	for _, rec := range store.Rows(warehouse.SalesFact.Table) {
		f := rec.(warehouse.SaleFact)
		facts[f.ID] = f
	}
	return facts
}

func TestFactLoader(t *testing.T) {
	env, store := newEnv(sampleSource())
	loadAll(t, env)

	fact := NewFact(env)
	res, err := fact.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Already loaded by loadAll, so every usable line is a conflict now
	if res.Inserted != 0 || res.Skipped != 6 {
		t.Errorf("Expected rerun to insert nothing, got %+v", res)
	}

	last := fact.Last()
	if last.SentinelDates != 1 || last.BadDates != 1 || last.OutOfCalendar != 1 {
		t.Errorf("Unexpected skip reasons %+v", last)
	}
	if last.Batches != 4 {
		t.Errorf("Expected 4 commits for 6 lines in batches of 2, got %d", last.Batches)
	}

	facts := factsByID(store)
	if len(facts) != 3 {
		t.Fatalf("Expected 3 fact rows, got %d", len(facts))
	}

	first, ok := facts["1_1"]
	if !ok {
		t.Fatalf("Expected fact 1_1, got %v", facts)
	}
	for _, key := range []pgtype.Int8{first.TimeKey, first.CustomerKey, first.SalespersonKey, first.StoreKey, first.ProductKey, first.PromotionKey} {
		if !key.Valid {
			t.Errorf("Expected every key resolved on 1_1, got %+v", first)
		}
	}
	m := first.Metrics
	want := map[string]decimal.Decimal{
		"gross":    dec("200"),
		"discount": dec("50"),
		"net":      dec("150"),
		"cost":     dec("140"),
		"profit":   dec("10"),
	}
	got := map[string]decimal.Decimal{
		"gross": m.Gross, "discount": m.DiscountAmount, "net": m.Net, "cost": m.TotalCost, "profit": m.GrossProfit,
	}
	for k, v := range want {
		if !got[k].Equal(v) {
			t.Errorf("%s: expected %s, got %s", k, v, got[k])
		}
	}

	second := facts["2_1"]
	if second.PromotionKey.Valid || !second.Metrics.DiscountPercent.IsZero() || second.Metrics.Quantity != 1 {
		t.Errorf("Expected no promotion and default quantity, got %+v", second)
	}
	if second.SalespersonKey.Valid {
		t.Error("Expected missing salesperson to stay NULL")
	}

	third := facts["6_2"]
	if third.CustomerKey.Valid {
		t.Error("Expected unknown customer to stay NULL")
	}
	if third.Metrics.Quantity != 1 || !third.Metrics.Gross.IsZero() {
		t.Errorf("Expected clamped quantity and price, got %+v", third.Metrics)
	}

	for _, f := range facts {
		m := f.Metrics
		if !m.Net.Equal(m.Gross.Sub(m.DiscountAmount)) || !m.GrossProfit.Equal(m.Net.Sub(m.TotalCost)) {
			t.Errorf("Identities broken for %+v", m)
		}
	}
}

func TestFactLoaderFollowsSourceOrder(t *testing.T) {
	env, store := newEnv(sampleSource())
	loadAll(t, env)

	// Lines are read ordered by the raw date text, so the day-month-year
	// date of sale 2 sorts ahead of the ISO dates.
	var got []string
	for _, rec := range store.Rows(warehouse.SalesFact.Table) {
		got = append(got, rec.(warehouse.SaleFact).ID)
	}
	want := []string{"2_1", "1_1", "6_2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected insertion order %v, got %v", want, got)
	}
}

func TestFactLoaderSkipsInvalidDates(t *testing.T) {
	src := sampleSource()
	env, store := newEnv(src)
	loadAll(t, env)

	for _, r := range store.Rows(warehouse.SalesFact.Table) {
		id := r.(warehouse.SaleFact).ID
		if id == "3_1" || id == "4_1" || id == "5_1" {
			t.Errorf("Expected %s to be skipped", id)
		}
		if !r.(warehouse.SaleFact).TimeKey.Valid {
			t.Errorf("Expected %s to carry a time key", id)
		}
	}
}

func TestBatchFailureRollsBack(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	boom := errors.New("value too long for type character varying(150)")

	store.FailInsert = func(rec warehouse.Record) error {
		if c, ok := rec.(warehouse.CustomerRow); ok && c.ID == 2 {
			return boom
		}
		return nil
	}

	res, err := NewCustomer(env).Load(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected insert error, got %v", err)
	}
	if res.Inserted != 0 || res.Extracted != 2 {
		t.Errorf("Expected nothing kept from the failed batch, got %+v", res)
	}
	if n, _ := store.CountRows(ctx, warehouse.Customer.Table); n != 0 {
		t.Errorf("Expected empty table after rollback, got %d rows", n)
	}

	// The store is usable again once the batch is rolled back
	store.FailInsert = nil
	if res, err := NewCustomer(env).Load(ctx); err != nil || res.Inserted != 2 {
		t.Errorf("Expected clean rerun, got %+v / %v", res, err)
	}
}

func TestFactFailureKeepsCommittedBatches(t *testing.T) {
	env, store := newEnv(sampleSource())
	ctx := context.Background()
	for _, name := range []string{"locality", "customer_category", "product_category", "customer", "product", "store", "salesperson", "promotion", "calendar"} {
		l, _ := Get(name, env)
		if _, err := l.Load(ctx); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	boom := errors.New("disk full")
	store.FailInsert = func(rec warehouse.Record) error {
		if f, ok := rec.(warehouse.SaleFact); ok && f.ID == "6_2" {
			return boom
		}
		return nil
	}

	res, err := NewFact(env).Load(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected insert error, got %v", err)
	}
	// Lines 1 and 2 were committed in the first batch
	if res.Inserted != 2 {
		t.Errorf("Expected 2 committed facts, got %d", res.Inserted)
	}
	if n, _ := store.CountRows(ctx, warehouse.SalesFact.Table); n != 2 {
		t.Errorf("Expected 2 fact rows, got %d", n)
	}
}

func TestExtractionError(t *testing.T) {
	src := sampleSource()
	src.Err = errors.New("relation \"localidade\" does not exist")
	env, _ := newEnv(src)

	if _, err := NewLocality(env).Load(context.Background()); err == nil {
		t.Error("Expected extraction error")
	}
}

func TestRegistry(t *testing.T) {
	env, _ := newEnv(sampleSource())
	names := List()
	if len(names) != 11 {
		t.Errorf("Expected 11 loaders, got %d: %v", len(names), names)
	}
	for _, name := range names {
		l, err := Get(name, env)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if l.Name() != name {
			t.Errorf("Expected name %s, got %s", name, l.Name())
		}
		if l.Table() == "" {
			t.Errorf("%s: empty table", name)
		}
	}
	if _, err := Get("nonexistent", env); err == nil {
		t.Error("Expected error for unknown loader")
	}
}

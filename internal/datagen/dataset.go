package datagen

import (
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source/sourcetest"
)

// Sale is a vendas header row.
type Sale struct {
	ID            int64
	Date          pgtype.Text
	CustomerID    pgtype.Int8
	SalespersonID pgtype.Int8
	StoreID       pgtype.Int8
}

// Item is an item_vendas row.
type Item struct {
	SaleID      int64
	ProductID   int64
	Quantity    pgtype.Int8
	Price       decimal.Decimal
	PromotionID pgtype.Int8
}

// Product is a produto row; the supplier reference is source-only.
type Product struct {
	source.Product
	SupplierID pgtype.Int8
}

// Dataset is a generated source database.
type Dataset struct {
	Localities         []source.Locality
	CustomerCategories []source.Category
	ProductCategories  []source.Category
	Suppliers          []source.Supplier
	Customers          []source.Customer
	Products           []Product
	Salespeople        []source.Salesperson
	Stores             []source.Store
	Promotions         []source.Promotion
	Sales              []Sale
	Items              []Item
}

// Counts holds the number of rows generated per scaled table.
type Counts struct {
	Suppliers   int
	Customers   int
	Products    int
	Salespeople int
	Stores      int
	Sales       int
}

// CountsForScale returns the row counts for a scale factor. Reference
// tables (localities, categories, promotions) do not scale.
func CountsForScale(scale int) Counts {
	if scale < 1 {
		scale = 1
	}
	return Counts{
		Suppliers:   10 * scale,
		Customers:   200 * scale,
		Products:    100 * scale,
		Salespeople: 20 * scale,
		Stores:      15 * scale,
		Sales:       1000 * scale,
	}
}

// stateRegions maps state codes to their region.
var stateRegions = map[string]string{
	"AC": "Norte", "AP": "Norte", "AM": "Norte", "PA": "Norte", "RO": "Norte", "RR": "Norte", "TO": "Norte",
	"AL": "Nordeste", "BA": "Nordeste", "CE": "Nordeste", "MA": "Nordeste", "PB": "Nordeste",
	"PE": "Nordeste", "PI": "Nordeste", "RN": "Nordeste", "SE": "Nordeste",
	"DF": "Centro-Oeste", "GO": "Centro-Oeste", "MT": "Centro-Oeste", "MS": "Centro-Oeste",
	"ES": "Sudeste", "MG": "Sudeste", "RJ": "Sudeste", "SP": "Sudeste",
	"PR": "Sul", "RS": "Sul", "SC": "Sul",
}

// interiorCities are non-capital cities added next to the capitals.
var interiorCities = [][2]string{
	{"Campinas", "SP"}, {"Santos", "SP"}, {"Ribeirão Preto", "SP"}, {"Sorocaba", "SP"},
	{"Niterói", "RJ"}, {"Uberlândia", "MG"}, {"Juiz de Fora", "MG"}, {"Joinville", "SC"},
	{"Londrina", "PR"}, {"Caxias do Sul", "RS"}, {"Feira de Santana", "BA"},
	{"Caruaru", "PE"}, {"Petrolina", "PE"},
}

var customerCategoryNames = []string{"Cliente VIP", "Premium", "Ouro", "Prata", "Varejo", "Atacado"}

var productCategoryNames = []string{
	"Eletrônicos", "Informática", "Vestuário Masculino", "Moda Feminina", "Mercearia",
	"Bebidas", "Casa e Cozinha", "Esportes e Lazer", "Perfumaria", "Livros", "Brinquedos", "Ferramentas",
}

// Sale line quantities are skewed towards single units.
var (
	quantities      = []int64{1, 2, 3, 4, 5}
	quantityWeights = []int{50, 25, 12, 8, 5}
)

var storeKinds = []string{"Shopping", "Centro", "Outlet", "Bairro", "Mall"}

var promotionNames = []string{
	"Black Friday", "Natal Premiado", "Liquidação de Verão", "Queima de Estoque",
	"Dia das Mães", "Black Week", "Semana do Cliente", "Liquidação de Inverno",
	"Especial de Natal", "Aniversário da Loja", "Volta às Aulas", "Dia dos Pais",
}

var discountFormats = []string{"%d%% off", "Desconto de %d%%", "%d por cento", "%d,5%%", "até %d%%"}

// dateSentinels are written in place of sale dates for a small share of
// rows, next to impossible dates that look valid.
var dateSentinels = []string{"N/A", "Data Inválida", "NULL", "2023-02-30", "31/04/2022"}

var (
	salesStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	salesEnd   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

func text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }
func key(n int64) pgtype.Int8   { return pgtype.Int8{Int64: n, Valid: true} }

// nullableKey returns a reference to a random id in 1..n, or NULL with
// probability p.
func nullableKey(f *Faker, n int, p float64) pgtype.Int8 {
	if n == 0 || f.Chance(p) {
		return pgtype.Int8{}
	}
	return key(int64(f.Int(1, n)))
}

// looseDate formats d the way the source system does, in either accepted
// layout, or replaces it with a sentinel with probability p.
func looseDate(f *Faker, d time.Time, p float64) pgtype.Text {
	if f.Chance(p) {
		return text(Choose(f, dateSentinels))
	}
	if f.Chance(0.6) {
		return text(d.Format(normalize.ISO.Layout()))
	}
	return text(d.Format(normalize.DayMonthYear.Layout()))
}

// Build generates a dataset deterministically from seed.
func Build(scale int, seed uint64) *Dataset {
	f := NewFakerWithSeed(seed)
	n := CountsForScale(scale)
	ds := &Dataset{}

	capitals := normalize.Capitals()
	cities := make([][2]string, 0, len(capitals)+len(interiorCities))
	for city, state := range capitals {
		cities = append(cities, [2]string{city, state})
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i][0] < cities[j][0] })
	cities = append(cities, interiorCities...)

	for i, c := range cities {
		region := text(f.Dirty(stateRegions[c[1]], 0.3))
		if f.Chance(0.05) {
			region = pgtype.Text{}
		}
		ds.Localities = append(ds.Localities, source.Locality{
			ID:     int64(i + 1),
			City:   text(f.Dirty(c[0], 0.3)),
			State:  text(f.Dirty(c[1], 0.2)),
			Region: region,
		})
	}

	for i, name := range customerCategoryNames {
		ds.CustomerCategories = append(ds.CustomerCategories, source.Category{ID: int64(i + 1), Name: text(f.Dirty(name, 0.3))})
	}
	for i, name := range productCategoryNames {
		ds.ProductCategories = append(ds.ProductCategories, source.Category{ID: int64(i + 1), Name: text(f.Dirty(name, 0.3))})
	}

	for i := 1; i <= n.Suppliers; i++ {
		ds.Suppliers = append(ds.Suppliers, source.Supplier{
			ID:     int64(i),
			Name:   text(f.Dirty(Truncate(f.Company(), 150), 0.3)),
			Origin: text(f.Dirty(Truncate(f.Country(), 100), 0.2)),
		})
	}

	for i := 1; i <= n.Customers; i++ {
		name := text(f.Dirty(f.Name(), 0.4))
		if f.Chance(0.02) {
			name = pgtype.Text{}
		}
		ds.Customers = append(ds.Customers, source.Customer{
			ID:         int64(i),
			Name:       name,
			CategoryID: nullableKey(f, len(ds.CustomerCategories), 0.05),
			LocalityID: nullableKey(f, len(ds.Localities), 0.05),
		})
	}

	for i := 1; i <= n.Products; i++ {
		ds.Products = append(ds.Products, Product{
			Product: source.Product{
				ID:         int64(i),
				Name:       text(f.Dirty(Truncate(f.ProductName(), 150), 0.3)),
				CategoryID: nullableKey(f, len(ds.ProductCategories), 0.03),
			},
			SupplierID: nullableKey(f, n.Suppliers, 0.1),
		})
	}

	for i := 1; i <= n.Salespeople; i++ {
		sp := source.Salesperson{
			ID:    int64(i),
			Name:  text(f.Dirty(f.Name(), 0.4)),
			Phone: text(f.Dirty(f.Phone(), 0.2)),
			Email: text(f.Dirty(f.Email(), 0.3)),
		}
		if f.Chance(0.1) {
			sp.Phone = pgtype.Text{}
		}
		ds.Salespeople = append(ds.Salespeople, sp)
	}

	for i := 1; i <= n.Stores; i++ {
		c := Choose(f, cities)
		st := source.Store{
			ID:      int64(i),
			Name:    text(f.Dirty(fmt.Sprintf("Loja %s %s", Choose(f, storeKinds), c[0]), 0.3)),
			Manager: text(f.Dirty(f.Name(), 0.3)),
			City:    text(f.Dirty(c[0], 0.2)),
			State:   text(c[1]),
		}
		if f.Chance(0.05) {
			st.City = pgtype.Text{}
		}
		ds.Stores = append(ds.Stores, st)
	}

	for i, name := range promotionNames {
		start := f.Date(salesStart, salesEnd)
		discount := fmt.Sprintf(Choose(f, discountFormats), f.Int(5, 60))
		if f.Chance(0.1) {
			discount = "sem desconto"
		}
		ds.Promotions = append(ds.Promotions, source.Promotion{
			ID:           int64(i + 1),
			Name:         text(f.Dirty(name, 0.3)),
			DiscountText: text(discount),
			Start:        looseDate(f, start, 0.15),
			End:          looseDate(f, start.AddDate(0, 0, f.Int(1, 30)), 0.15),
		})
	}

	for i := 1; i <= n.Sales; i++ {
		sale := Sale{
			ID:            int64(i),
			Date:          looseDate(f, f.Date(salesStart, salesEnd), 0.05),
			CustomerID:    nullableKey(f, n.Customers, 0.02),
			SalespersonID: nullableKey(f, n.Salespeople, 0.05),
			StoreID:       nullableKey(f, n.Stores, 0.02),
		}
		ds.Sales = append(ds.Sales, sale)

		lines := f.Int(1, 4)
		used := make(map[int64]bool, lines)
		for l := 0; l < lines; l++ {
			productID := int64(f.Int(1, n.Products))
			if used[productID] {
				continue
			}
			used[productID] = true

			qty := key(ChooseWeighted(f, quantities, quantityWeights))
			if f.Chance(0.02) {
				qty = pgtype.Int8{}
			}
			ds.Items = append(ds.Items, Item{
				SaleID:      sale.ID,
				ProductID:   productID,
				Quantity:    qty,
				Price:       decimal.NewFromFloat(f.Price(5, 2500)).Round(2),
				PromotionID: nullableKey(f, len(ds.Promotions), 0.7),
			})
		}
	}

	return ds
}

// Reader exposes the dataset through the source Reader interface, with
// sale lines joined to their headers.
func (ds *Dataset) Reader() *sourcetest.MemReader {
	products := make([]source.Product, len(ds.Products))
	for i, p := range ds.Products {
		products[i] = p.Product
	}

	headers := make(map[int64]Sale, len(ds.Sales))
	for _, s := range ds.Sales {
		headers[s.ID] = s
	}
	lines := make([]source.SaleLine, 0, len(ds.Items))
	for _, it := range ds.Items {
		h := headers[it.SaleID]
		lines = append(lines, source.SaleLine{
			SaleID:        it.SaleID,
			SaleDate:      h.Date,
			CustomerID:    h.CustomerID,
			SalespersonID: h.SalespersonID,
			StoreID:       h.StoreID,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.Price,
			PromotionID:   it.PromotionID,
		})
	}

	return &sourcetest.MemReader{
		LocalityRows:         ds.Localities,
		CustomerCategoryRows: ds.CustomerCategories,
		ProductCategoryRows:  ds.ProductCategories,
		SupplierRows:         ds.Suppliers,
		CustomerRows:         ds.Customers,
		ProductRows:          products,
		SalespersonRows:      ds.Salespeople,
		StoreRows:            ds.Stores,
		PromotionRows:        ds.Promotions,
		SaleLineRows:         lines,
	}
}

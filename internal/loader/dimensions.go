package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// Fallback names for source rows without a name.
const (
	supplierFallback    = "Fornecedor N/A"
	customerFallback    = "Cliente N/A"
	productFallback     = "Produto N/A"
	salespersonFallback = "Vendedor N/A"
	storeFallback       = "Loja N/A"
	promotionFallback   = "Promoção N/A"
)

// Locality loads dim_localidade, deriving the standardized region and the
// capital flag.
type Locality struct{ env *Env }

func (l *Locality) Name() string  { return "locality" }
func (l *Locality) Table() string { return warehouse.Locality.Table }

func (l *Locality) Load(ctx context.Context) (Result, error) {
	return l.env.batch(ctx, l.Name(), func(res *Result) error {
		rows, err := l.env.Source.Localities(ctx)
		if err != nil {
			return fmt.Errorf("extract localities: %w", err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			city := normalize.CleanName(row.City.String)
			state := normalize.CleanState(row.State.String)
			rec := warehouse.LocalityRow{
				ID:             row.ID,
				City:           city,
				State:          state,
				Region:         row.Region,
				StandardRegion: normalize.StandardizeRegion(row.Region.String),
				IsCapital:      normalize.IsCapital(city, state),
			}
			if err := l.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Category loads one of the two category dimensions. Customer and product
// categories differ only in the classifier applied to the name.
type Category struct {
	env      *Env
	dim      warehouse.Dimension
	name     string
	classify func(string) string
}

func (c *Category) Name() string  { return c.name }
func (c *Category) Table() string { return c.dim.Table }

func (c *Category) Load(ctx context.Context) (Result, error) {
	return c.env.batch(ctx, c.name, func(res *Result) error {
		extract := c.env.Source.CustomerCategories
		if c.dim == warehouse.ProductCategory {
			extract = c.env.Source.ProductCategories
		}
		rows, err := extract(ctx)
		if err != nil {
			return fmt.Errorf("extract %s: %w", c.dim.Name, err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			name := nameOr(row.Name, normalize.Undefined)
			rec := warehouse.CategoryRow{
				Kind:         c.dim,
				ID:           row.ID,
				Name:         name,
				Standardized: c.classify(row.Name.String),
			}
			if err := c.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Supplier loads dim_fornecedor. Suppliers carry a country of origin, not
// a locality, so the locality reference stays NULL.
type Supplier struct{ env *Env }

func (s *Supplier) Name() string  { return "supplier" }
func (s *Supplier) Table() string { return warehouse.Supplier.Table }

func (s *Supplier) Load(ctx context.Context) (Result, error) {
	return s.env.batch(ctx, s.Name(), func(res *Result) error {
		rows, err := s.env.Source.Suppliers(ctx)
		if err != nil {
			return fmt.Errorf("extract suppliers: %w", err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			name := nameOr(row.Name, supplierFallback)
			rec := warehouse.SupplierRow{
				ID:           row.ID,
				Name:         name,
				StandardName: normalize.StandardizeName(name),
				Origin:       optional(row.Origin, normalize.CleanText),
				Status:       warehouse.StatusActive,
			}
			if err := s.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Customer loads dim_cliente, resolving its category and locality.
type Customer struct{ env *Env }

func (c *Customer) Name() string  { return "customer" }
func (c *Customer) Table() string { return warehouse.Customer.Table }

func (c *Customer) Load(ctx context.Context) (Result, error) {
	return c.env.batch(ctx, c.Name(), func(res *Result) error {
		rows, err := c.env.Source.Customers(ctx)
		if err != nil {
			return fmt.Errorf("extract customers: %w", err)
		}
		res.Extracted = len(rows)
		registered := c.env.now()

		for _, row := range rows {
			categoryKey, err := c.env.Keys.Resolve(ctx, warehouse.CustomerCategory, row.CategoryID)
			if err != nil {
				return err
			}
			localityKey, err := c.env.Keys.Resolve(ctx, warehouse.Locality, row.LocalityID)
			if err != nil {
				return err
			}

			name := nameOr(row.Name, customerFallback)
			rec := warehouse.CustomerRow{
				ID:           row.ID,
				Name:         name,
				StandardName: normalize.StandardizeName(name),
				CategoryKey:  categoryKey,
				LocalityKey:  localityKey,
				RegisteredAt: registered,
				Status:       warehouse.StatusActive,
			}
			if err := c.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Product loads dim_produto. Price, cost and margin are estimated from the
// product's sale history; cost is never read from the source.
type Product struct{ env *Env }

func (p *Product) Name() string  { return "product" }
func (p *Product) Table() string { return warehouse.Product.Table }

func (p *Product) Load(ctx context.Context) (Result, error) {
	return p.env.batch(ctx, p.Name(), func(res *Result) error {
		rows, err := p.env.Source.Products(ctx)
		if err != nil {
			return fmt.Errorf("extract products: %w", err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			categoryKey, err := p.env.Keys.Resolve(ctx, warehouse.ProductCategory, row.CategoryID)
			if err != nil {
				return err
			}
			avg, err := p.env.Source.AveragePrice(ctx, row.ID)
			if err != nil {
				return fmt.Errorf("average price of product %d: %w", row.ID, err)
			}

			name := nameOr(row.Name, productFallback)
			rec := warehouse.ProductRow{
				ID:           row.ID,
				Name:         name,
				StandardName: normalize.StandardizeName(name),
				CategoryKey:  categoryKey,
				Pricing:      warehouse.EstimateProductPricing(avg),
				Status:       warehouse.StatusActive,
			}
			if err := p.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Salesperson loads dim_vendedor. The source has no locality for
// salespeople, so that reference stays NULL.
type Salesperson struct{ env *Env }

func (s *Salesperson) Name() string  { return "salesperson" }
func (s *Salesperson) Table() string { return warehouse.Salesperson.Table }

func (s *Salesperson) Load(ctx context.Context) (Result, error) {
	return s.env.batch(ctx, s.Name(), func(res *Result) error {
		rows, err := s.env.Source.Salespeople(ctx)
		if err != nil {
			return fmt.Errorf("extract salespeople: %w", err)
		}
		res.Extracted = len(rows)
		registered := s.env.now()

		for _, row := range rows {
			name := nameOr(row.Name, salespersonFallback)
			rec := warehouse.SalespersonRow{
				ID:           row.ID,
				Name:         name,
				StandardName: normalize.StandardizeName(name),
				Phone:        optional(row.Phone, normalize.CleanPhone),
				Email:        optional(row.Email, normalize.CleanEmail),
				RegisteredAt: registered,
				Status:       warehouse.StatusActive,
			}
			if err := s.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Store loads dim_loja. Stores reference their locality by city and state
// rather than by identifier.
type Store struct{ env *Env }

func (s *Store) Name() string  { return "store" }
func (s *Store) Table() string { return warehouse.StoreDim.Table }

func (s *Store) Load(ctx context.Context) (Result, error) {
	return s.env.batch(ctx, s.Name(), func(res *Result) error {
		rows, err := s.env.Source.Stores(ctx)
		if err != nil {
			return fmt.Errorf("extract stores: %w", err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			var localityKey pgtype.Int8
			if row.City.Valid && row.State.Valid {
				localityKey, err = s.env.Keys.ResolveLocality(ctx,
					normalize.CollapseWhitespace(row.City.String),
					normalize.CollapseWhitespace(row.State.String))
				if err != nil {
					return err
				}
			}

			name := nameOr(row.Name, storeFallback)
			rec := warehouse.StoreRow{
				ID:           row.ID,
				Name:         name,
				StandardName: normalize.StandardizeName(name),
				Manager:      optional(row.Manager, normalize.CleanName),
				LocalityKey:  localityKey,
				Type:         normalize.ClassifyStoreType(name),
				Status:       warehouse.StatusActiveFem,
			}
			if err := s.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Promotion loads dim_promocao. The discount percentage is pulled out of
// free text and dates that are sentinels or do not parse become NULL.
type Promotion struct{ env *Env }

func (p *Promotion) Name() string  { return "promotion" }
func (p *Promotion) Table() string { return warehouse.Promotion.Table }

func (p *Promotion) Load(ctx context.Context) (Result, error) {
	return p.env.batch(ctx, p.Name(), func(res *Result) error {
		rows, err := p.env.Source.Promotions(ctx)
		if err != nil {
			return fmt.Errorf("extract promotions: %w", err)
		}
		res.Extracted = len(rows)

		for _, row := range rows {
			name := nameOr(row.Name, promotionFallback)
			rec := warehouse.PromotionRow{
				ID:              row.ID,
				Name:            name,
				Type:            normalize.ClassifyPromotionType(name),
				DiscountPercent: normalize.ExtractPercent(row.DiscountText.String),
				Start:           p.env.optionalDate(row.Start),
				End:             p.env.optionalDate(row.End),
				Status:          warehouse.StatusActiveFem,
			}
			if err := p.env.insert(ctx, res, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

package loader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// Factory builds a loader bound to env.
type Factory func(env *Env) Loader

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds a loader factory under name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// Get builds the loader registered under name.
func Get(name string, env *Env) (Loader, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown loader: %s", name)
	}
	return f(env), nil
}

// List returns all registered loader names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constructors for the built-in loaders.

func NewLocality(env *Env) *Locality { return &Locality{env: env} }

func NewCustomerCategory(env *Env) *Category {
	return &Category{env: env, dim: warehouse.CustomerCategory, name: "customer_category",
		classify: normalize.ClassifyCustomerCategory}
}

func NewProductCategory(env *Env) *Category {
	return &Category{env: env, dim: warehouse.ProductCategory, name: "product_category",
		classify: normalize.ClassifyProductCategory}
}

func NewSupplier(env *Env) *Supplier       { return &Supplier{env: env} }
func NewCustomer(env *Env) *Customer       { return &Customer{env: env} }
func NewProduct(env *Env) *Product         { return &Product{env: env} }
func NewSalesperson(env *Env) *Salesperson { return &Salesperson{env: env} }
func NewStore(env *Env) *Store             { return &Store{env: env} }
func NewPromotion(env *Env) *Promotion     { return &Promotion{env: env} }
func NewCalendar(env *Env) *Calendar       { return &Calendar{env: env} }
func NewFact(env *Env) *Fact               { return &Fact{env: env} }

func init() {
	for _, f := range []Factory{
		func(env *Env) Loader { return NewLocality(env) },
		func(env *Env) Loader { return NewCustomerCategory(env) },
		func(env *Env) Loader { return NewProductCategory(env) },
		func(env *Env) Loader { return NewSupplier(env) },
		func(env *Env) Loader { return NewCustomer(env) },
		func(env *Env) Loader { return NewProduct(env) },
		func(env *Env) Loader { return NewSalesperson(env) },
		func(env *Env) Loader { return NewStore(env) },
		func(env *Env) Loader { return NewPromotion(env) },
		func(env *Env) Loader { return NewCalendar(env) },
		func(env *Env) Loader { return NewFact(env) },
	} {
		Register(f(nil).Name(), f)
	}
}

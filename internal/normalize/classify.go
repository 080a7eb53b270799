package normalize

import "strings"

// rule assigns label to any input containing one of its keywords.
type rule struct {
	label    string
	keywords []string
}

// classifier applies rules in order; the first match wins.
type classifier struct {
	rules    []rule
	fallback string
	empty    string
}

func (c classifier) classify(s string) string {
	if strings.TrimSpace(s) == "" {
		return c.empty
	}
	folded := fold(s)
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(folded, fold(kw)) {
				return r.label
			}
		}
	}
	return c.fallback
}

// Customer category labels.
const (
	CustomerPremium  = "Premium"
	CustomerGold     = "Gold"
	CustomerSilver   = "Silver"
	CustomerStandard = "Padrão"
)

var customerCategories = classifier{
	rules: []rule{
		{CustomerPremium, []string{"vip", "premium"}},
		{CustomerGold, []string{"gold", "ouro"}},
		{CustomerSilver, []string{"silver", "prata"}},
	},
	fallback: CustomerStandard,
	empty:    Undefined,
}

// Product category labels.
const (
	ProductElectronics = "Eletrônicos"
	ProductClothing    = "Vestuário"
	ProductFood        = "Alimentos e Bebidas"
	ProductHome        = "Casa e Decoração"
	ProductSports      = "Esportes"
	ProductBeauty      = "Beleza e Saúde"
	ProductBooks       = "Livros e Papelaria"
	ProductToys        = "Brinquedos"
	ProductOther       = "Outros"
)

var productCategories = classifier{
	rules: []rule{
		{ProductElectronics, []string{"eletr", "informática", "celular", "smartphone", "notebook", "games"}},
		{ProductClothing, []string{"vestu", "roupa", "moda", "calçado", "acessório"}},
		{ProductFood, []string{"aliment", "bebida", "mercearia", "hortifruti"}},
		{ProductHome, []string{"casa", "decora", "móve", "cozinha", "jardim"}},
		{ProductSports, []string{"esport", "fitness", "lazer"}},
		{ProductBeauty, []string{"beleza", "cosmético", "perfum", "saúde", "higiene"}},
		{ProductBooks, []string{"livro", "papelaria", "escritório"}},
		{ProductToys, []string{"brinquedo", "infantil", "bebê"}},
	},
	fallback: ProductOther,
	empty:    Undefined,
}

// Store type labels.
const (
	StoreShopping = "Shopping"
	StoreDowntown = "Centro"
	StoreOutlet   = "Outlet"
	StoreStandard = "Loja Padrão"
)

var storeTypes = classifier{
	rules: []rule{
		{StoreShopping, []string{"shopping", "mall"}},
		{StoreDowntown, []string{"centro"}},
		{StoreOutlet, []string{"outlet"}},
	},
	fallback: StoreStandard,
	empty:    StoreStandard,
}

// Promotion type labels.
const (
	PromotionBlackFriday = "Black Friday"
	PromotionChristmas   = "Natal"
	PromotionClearance   = "Liquidação"
	PromotionGeneral     = "Desconto Geral"
)

var promotionTypes = classifier{
	rules: []rule{
		{PromotionBlackFriday, []string{"black"}},
		{PromotionChristmas, []string{"natal"}},
		{PromotionClearance, []string{"liquidação"}},
	},
	fallback: PromotionGeneral,
	empty:    PromotionGeneral,
}

// ClassifyCustomerCategory maps a free-text customer category to a tier.
func ClassifyCustomerCategory(s string) string {
	return customerCategories.classify(s)
}

// ClassifyProductCategory maps a free-text product category to a department.
func ClassifyProductCategory(s string) string {
	return productCategories.classify(s)
}

// ClassifyStoreType derives the store type from its name.
func ClassifyStoreType(name string) string {
	return storeTypes.classify(name)
}

// ClassifyPromotionType derives the promotion type from its name.
func ClassifyPromotionType(name string) string {
	return promotionTypes.classify(name)
}

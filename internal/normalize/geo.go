package normalize

import "strings"

// regionNames maps lower-cased multi-word region names to their canonical
// spelling.
var regionNames = map[string]string{
	"rio de janeiro":      "Rio de Janeiro",
	"são paulo":           "São Paulo",
	"minas gerais":        "Minas Gerais",
	"mato grosso":         "Mato Grosso",
	"mato grosso do sul":  "Mato Grosso do Sul",
	"rio grande do sul":   "Rio Grande do Sul",
	"rio grande do norte": "Rio Grande do Norte",
	"espírito santo":      "Espírito Santo",
	"distrito federal":    "Distrito Federal",
}

// capitals maps each state capital to the state codes it belongs to.
var capitals = map[string][]string{
	"Rio Branco":     {"AC"},
	"Maceió":         {"AL"},
	"Macapá":         {"AP"},
	"Manaus":         {"AM"},
	"Salvador":       {"BA"},
	"Fortaleza":      {"CE"},
	"Brasília":       {"DF"},
	"Vitória":        {"ES"},
	"Goiânia":        {"GO"},
	"São Luís":       {"MA"},
	"Cuiabá":         {"MT"},
	"Campo Grande":   {"MS"},
	"Belo Horizonte": {"MG"},
	"Belém":          {"PA"},
	"João Pessoa":    {"PB"},
	"Curitiba":       {"PR"},
	"Recife":         {"PE"},
	"Teresina":       {"PI"},
	"Rio de Janeiro": {"RJ"},
	"Natal":          {"RN"},
	"Porto Alegre":   {"RS"},
	"Porto Velho":    {"RO"},
	"Boa Vista":      {"RR"},
	"Florianópolis":  {"SC"},
	"São Paulo":      {"SP"},
	"Aracaju":        {"SE"},
	"Palmas":         {"TO"},
}

// capitalIndex is capitals keyed by folded city name.
var capitalIndex = func() map[string][]string {
	idx := make(map[string][]string, len(capitals))
	for city, states := range capitals {
		idx[fold(city)] = states
	}
	return idx
}()

// Capitals returns the capital table as city, state pairs.
func Capitals() map[string]string {
	out := make(map[string]string, len(capitals))
	for city, states := range capitals {
		out[city] = states[0]
	}
	return out
}

// StandardizeRegion maps known region names to their canonical spelling,
// title-cases unknown ones and returns Undefined for empty input.
func StandardizeRegion(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return Undefined
	}
	if canonical, ok := regionNames[strings.ToLower(region)]; ok {
		return canonical
	}
	return Title(region)
}

// IsCapital reports whether city is the capital of state. The city match
// ignores case and accents; the state code ignores case.
func IsCapital(city, state string) bool {
	states, ok := capitalIndex[fold(CollapseWhitespace(city))]
	if !ok {
		return false
	}
	state = strings.ToUpper(strings.TrimSpace(state))
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

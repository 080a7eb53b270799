//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package normalize holds the pure cleaning and standardization rules
// applied to source attributes before they reach the warehouse.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholders stored when an attribute is missing.
const (
	NotAvailable = "N/A"
	Undefined    = "Não Definido"
)

// connectives stay lowercase inside names unless they open the name.
var connectives = map[string]bool{
	"da": true, "de": true, "do": true, "das": true, "dos": true,
	"e": true, "em": true, "na": true, "no": true, "com": true,
}

// CollapseWhitespace trims s and replaces internal whitespace runs with a
// single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title upper-cases the first letter of every word and lower-cases the rest.
func Title(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// CleanText collapses whitespace and title-cases s. Empty input yields
// NotAvailable.
func CleanText(s string) string {
	s = CollapseWhitespace(s)
	if s == "" {
		return NotAvailable
	}
	return Title(s)
}

// StandardizeName title-cases every word of a person or business name
// except connectives, which stay lowercase unless they are the first word.
// Empty input and NotAvailable are returned unchanged.
func StandardizeName(name string) string {
	if name == "" || name == NotAvailable {
		return name
	}

	words := strings.Fields(name)
	for i, word := range words {
		lower := strings.ToLower(word)
		if i > 0 && connectives[lower] {
			words[i] = lower
			continue
		}
		words[i] = Title(word)
	}
	return strings.Join(words, " ")
}

// CleanName applies CleanText then StandardizeName.
func CleanName(s string) string {
	return StandardizeName(CleanText(s))
}

// CleanState normalizes a state attribute. Two-letter codes are
// upper-cased; anything longer is title-cased.
func CleanState(s string) string {
	s = CollapseWhitespace(s)
	if s == "" {
		return NotAvailable
	}
	if len([]rune(s)) == 2 {
		return strings.ToUpper(s)
	}
	return StandardizeName(Title(s))
}

// CleanEmail collapses whitespace and lower-cases an e-mail address. Empty
// input stays empty.
func CleanEmail(s string) string {
	return strings.ToLower(strings.ReplaceAll(CollapseWhitespace(s), " ", ""))
}

// CleanPhone collapses whitespace in a phone number. Empty input stays empty.
func CleanPhone(s string) string {
	return CollapseWhitespace(s)
}

// fold lower-cases s and strips diacritics so keyword matching is
// insensitive to both case and accents.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

package bot

import (
	"strings"
	"unicode"

	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// categoryKeywords maps accent-free keywords to expense categories.
var categoryKeywords = map[string][]string{
	models.ExpenseCategoryFood: {
		"cena", "comida", "almuerzo", "desayuno", "merienda", "super", "supermercado",
		"mercadona", "restaurante", "cafe", "bar", "pan", "fruta", "pizza", "menu",
	},
	models.ExpenseCategoryLeisure: {
		"cine", "concierto", "teatro", "copas", "fiesta", "juego", "libro", "netflix",
		"spotify", "museo", "viaje", "vacaciones", "entradas",
	},
	models.ExpenseCategoryTransport: {
		"taxi", "uber", "cabify", "metro", "bus", "autobus", "tren", "renfe",
		"gasolina", "combustible", "parking", "aparcamiento", "peaje", "billete",
	},
	models.ExpenseCategoryHome: {
		"alquiler", "hipoteca", "luz", "agua", "gas", "internet", "fibra", "comunidad",
		"limpieza", "muebles", "ikea", "reparacion", "seguro",
	},
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeWord lowercases s and strips its accents.
func normalizeWord(s string) string {
	folded, _, err := transform.String(foldAccents, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// MatchCategory finds the category in categories that best matches suggested.
// Matching strategy:
// 1. Exact match, ignoring case and accents
// 2. Prefix match (e.g., "trans" matches "Transporte")
// 3. No match -> returns "".
func MatchCategory(suggested string, categories []string) string {
	want := normalizeWord(suggested)
	if want == "" {
		return ""
	}

	for _, c := range categories {
		if normalizeWord(c) == want {
			return c
		}
	}

	for _, c := range categories {
		if len(want) >= 3 && strings.HasPrefix(normalizeWord(c), want) {
			return c
		}
	}

	return ""
}

// KeywordCategory guesses the category of a description from known keywords.
// It returns "" when no keyword matches.
func KeywordCategory(description string) string {
	words := strings.FieldsFunc(normalizeWord(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		for _, category := range models.ExpenseCategories {
			for _, kw := range categoryKeywords[category] {
				if w == kw {
					return category
				}
			}
		}
	}

	return ""
}

package restock

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"bakeline/models"
)

// normalizeIngredientName lowercases, strips accents and drops everything
// but letters and digits.
func normalizeIngredientName(value string) string {
	var builder strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(strings.TrimSpace(value))) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func similarName(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	limit := 1
	if len(a) >= 8 || len(b) >= 8 {
		limit = 2
	}
	if len(a) >= 12 || len(b) >= 12 {
		limit = 3
	}
	return levenshteinDistance(a, b) <= limit
}

func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

// matchIngredient finds the ingredient named like name. Exact normalized
// matches win over fuzzy ones; ambiguous fuzzy matches return nil.
func matchIngredient(ingredients []models.Ingredient, name string) *models.Ingredient {
	target := normalizeIngredientName(name)
	if target == "" {
		return nil
	}

	var fuzzy *models.Ingredient
	ambiguous := false
	for i := range ingredients {
		candidate := normalizeIngredientName(ingredients[i].Name)
		if candidate == target {
			return &ingredients[i]
		}
		if similarName(candidate, target) {
			if fuzzy != nil {
				ambiguous = true
			}
			fuzzy = &ingredients[i]
		}
	}
	if ambiguous {
		return nil
	}
	return fuzzy
}

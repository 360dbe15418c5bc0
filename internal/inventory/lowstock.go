package inventory

import (
	"sort"

	"bakeline/models"
)

// IsLow reports whether stock is at or below the minimum, or at or below the
// minimum raised by the alert percentage.
func IsLow(ing models.Ingredient) bool {
	return ing.CurrentStock.LessThanOrEqual(ing.MinStock) ||
		ing.CurrentStock.LessThanOrEqual(ing.LowStockThreshold())
}

// ScanLowStock filters ingredients down to the low ones, ordered by name.
func ScanLowStock(ingredients []models.Ingredient) []models.Ingredient {
	low := make([]models.Ingredient, 0)
	for _, ing := range ingredients {
		if IsLow(ing) {
			low = append(low, ing)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Name < low[j].Name })
	return low
}

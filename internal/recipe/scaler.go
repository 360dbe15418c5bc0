// Package recipe scales recipes to batch sizes and stores their ingredient
// lists and process steps.
package recipe

import (
	"github.com/shopspring/decimal"

	"bakeline/internal/apperrors"
	"bakeline/models"
)

// ScaledRequirement is the absolute amount of one ingredient a batch needs.
type ScaledRequirement struct {
	IngredientID   uint            `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Required       decimal.Decimal `json:"required_quantity"`
	Unit           string          `json:"unit"`
}

// Factor returns requested / base_quantity.
func Factor(r models.Recipe, requested decimal.Decimal) (decimal.Decimal, error) {
	if err := validate(r, requested); err != nil {
		return decimal.Zero, err
	}
	return requested.Div(r.BaseQuantity), nil
}

// Scale converts per-base ingredient quantities into absolute requirements
// for the requested quantity. Results keep the order of lines and are rounded
// to two decimals, half away from zero.
func Scale(r models.Recipe, lines []models.RecipeIngredient, requested decimal.Decimal) ([]ScaledRequirement, error) {
	if err := validate(r, requested); err != nil {
		return nil, err
	}

	reqs := make([]ScaledRequirement, 0, len(lines))
	for _, line := range lines {
		// Multiply before dividing, and round once.
		required := line.Quantity.Mul(requested).DivRound(r.BaseQuantity, 2)

		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		reqs = append(reqs, ScaledRequirement{
			IngredientID:   line.IngredientID,
			IngredientName: name,
			Required:       required,
			Unit:           line.Unit,
		})
	}
	return reqs, nil
}

func validate(r models.Recipe, requested decimal.Decimal) error {
	if !r.BaseQuantity.IsPositive() {
		return &apperrors.InvalidRecipeError{RecipeID: r.ID, Reason: "base quantity must be greater than zero"}
	}
	if !requested.IsPositive() {
		return &apperrors.InvalidQuantityError{Field: "quantity", Value: requested.String(), Reason: "must be greater than zero"}
	}
	return nil
}

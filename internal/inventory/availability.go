package inventory

import (
	"github.com/shopspring/decimal"

	"bakeline/internal/apperrors"
	"bakeline/internal/recipe"
	"bakeline/models"
)

// Snapshot is a point-in-time read of ingredient rows keyed by id.
type Snapshot map[uint]models.Ingredient

type AvailabilityLine struct {
	IngredientID uint            `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required_quantity"`
	Current      decimal.Decimal `json:"current_stock"`
	Unit         string          `json:"unit"`
	Available    bool            `json:"available"`
}

type AvailabilityReport struct {
	Available bool               `json:"available"`
	Lines     []AvailabilityLine `json:"lines"`
}

// Check compares each requirement against the snapshot. A line is available
// when current stock >= required; units are compared as-is. An ingredient
// missing from the snapshot counts as zero stock. An empty requirement list
// is available.
func Check(reqs []recipe.ScaledRequirement, snap Snapshot) AvailabilityReport {
	report := AvailabilityReport{Available: true, Lines: make([]AvailabilityLine, 0, len(reqs))}
	for _, req := range reqs {
		ing, ok := snap[req.IngredientID]
		current := decimal.Zero
		name := req.IngredientName
		if ok {
			current = ing.CurrentStock
			if name == "" {
				name = ing.Name
			}
		}

		available := current.GreaterThanOrEqual(req.Required)
		report.Lines = append(report.Lines, AvailabilityLine{
			IngredientID: req.IngredientID,
			Name:         name,
			Required:     req.Required,
			Current:      current,
			Unit:         req.Unit,
			Available:    available,
		})
		report.Available = report.Available && available
	}
	return report
}

// Shortfalls returns the unavailable lines.
func (r AvailabilityReport) Shortfalls() []apperrors.Shortfall {
	var out []apperrors.Shortfall
	for _, line := range r.Lines {
		if line.Available {
			continue
		}
		out = append(out, apperrors.Shortfall{
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Required:     line.Required,
			Current:      line.Current,
			Unit:         line.Unit,
		})
	}
	return out
}

// Err returns an InsufficientStockError when the report is not available.
func (r AvailabilityReport) Err() error {
	if r.Available {
		return nil
	}
	return &apperrors.InsufficientStockError{Lines: r.Shortfalls()}
}

// RequirementIDs lists the ingredient ids of reqs in order.
func RequirementIDs(reqs []recipe.ScaledRequirement) []uint {
	ids := make([]uint, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.IngredientID)
	}
	return ids
}

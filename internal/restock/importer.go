package restock

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakeline/internal/inventory"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// Stock is the part of the inventory ledger the importer needs.
type Stock interface {
	List(ctx context.Context) ([]models.Ingredient, error)
	Add(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error)
}

// Applied is a delivery line booked into stock.
type Applied struct {
	Line         Line            `json:"line"`
	IngredientID uint            `json:"ingredient_id"`
	Ingredient   string          `json:"ingredient"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// Rejected is a delivery line that was not booked.
type Rejected struct {
	Line   Line   `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Applied  []Applied  `json:"applied"`
	Rejected []Rejected `json:"rejected"`
	Skipped  []string   `json:"skipped"`
}

type Importer struct {
	stock Stock
}

func NewImporter(stock Stock) *Importer {
	return &Importer{stock: stock}
}

// Import books every matched line whose unit agrees with the ingredient's
// stock unit. Unknown ingredients and unit mismatches are rejected.
func (im *Importer) Import(ctx context.Context, text string) (Result, error) {
	lines, skipped, err := ParseLines(text)
	if err != nil {
		return Result{}, err
	}
	result := Result{Skipped: skipped}

	ingredients, err := im.stock.List(ctx)
	if err != nil {
		return Result{}, err
	}

	for _, line := range lines {
		ing := matchIngredient(ingredients, line.Name)
		if ing == nil {
			result.Rejected = append(result.Rejected, Rejected{Line: line, Reason: "unknown ingredient"})
			continue
		}
		if !SameUnit(line.Unit, ing.Unit) {
			result.Rejected = append(result.Rejected, Rejected{Line: line, Reason: "unit " + line.Unit + " does not match " + ing.Unit})
			continue
		}

		updated, err := im.stock.Add(ctx, ing.ID, line.Quantity)
		if err != nil {
			return Result{}, err
		}
		result.Applied = append(result.Applied, Applied{
			Line:         line,
			IngredientID: updated.ID,
			Ingredient:   updated.Name,
			CurrentStock: updated.CurrentStock,
		})
	}

	applog.Info(ctx, "delivery note imported",
		"applied", len(result.Applied),
		"rejected", len(result.Rejected),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// ImportTx books a delivery note in a single transaction: either every
// accepted line lands or none does.
func ImportTx(ctx context.Context, db *gorm.DB, text string) (Result, error) {
	var result Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = NewImporter(inventory.NewLedger(tx)).Import(ctx, text)
		return err
	})
	return result, err
}

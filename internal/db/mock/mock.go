package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakeline/internal/db"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// OperatorPIN is the sign-in PIN of every seeded operator.
const OperatorPIN = "1234"

// NewEmpty returns a migrated in-memory sqlite database with no rows. Each
// call gets its own database.
func NewEmpty(ctx context.Context) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:bakeline-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(database.WithContext(ctx)); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with a small bakery.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := NewEmpty(ctx)
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func qty(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	pin, err := bcrypt.GenerateFromPassword([]byte(OperatorPIN), bcrypt.MinCost)
	if err != nil {
		return err
	}

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredients := []*models.Ingredient{
			{Name: "Harina", CurrentStock: qty("15"), Unit: "kg", MinStock: qty("5"), AlertPercentage: 10},
			{Name: "Agua", CurrentStock: qty("50"), Unit: "L", MinStock: qty("10"), AlertPercentage: 20},
			{Name: "Sal", CurrentStock: qty("2"), Unit: "kg", MinStock: qty("0.5"), AlertPercentage: 50},
			{Name: "Levadura", CurrentStock: qty("0.8"), Unit: "kg", MinStock: qty("1"), AlertPercentage: 10},
			{Name: "Azúcar", CurrentStock: qty("21"), Unit: "kg", MinStock: qty("20"), AlertPercentage: 10},
			{Name: "Mantequilla", CurrentStock: qty("8"), Unit: "kg", MinStock: qty("2"), AlertPercentage: 25},
		}
		byName := make(map[string]uint, len(ingredients))
		for _, ingredient := range ingredients {
			if err := tx.Create(ingredient).Error; err != nil {
				return err
			}
			byName[ingredient.Name] = ingredient.ID
		}

		panBlanco := models.Recipe{
			Name:          "Pan Blanco",
			Category:      "Panes",
			BaseQuantity:  qty("10"),
			BaseUnit:      "kg",
			EstimatedTime: 180,
			Active:        true,
		}
		croissant := models.Recipe{
			Name:          "Croissant",
			Category:      "Bollería",
			BaseQuantity:  qty("5"),
			BaseUnit:      "kg",
			EstimatedTime: 240,
			Active:        true,
		}
		for _, recipe := range []*models.Recipe{&panBlanco, &croissant} {
			if err := tx.Create(recipe).Error; err != nil {
				return err
			}
		}

		lines := []models.RecipeIngredient{
			{RecipeID: panBlanco.ID, IngredientID: byName["Harina"], Quantity: qty("6"), Unit: "kg"},
			{RecipeID: panBlanco.ID, IngredientID: byName["Agua"], Quantity: qty("3.5"), Unit: "L"},
			{RecipeID: panBlanco.ID, IngredientID: byName["Sal"], Quantity: qty("0.2"), Unit: "kg"},
			{RecipeID: panBlanco.ID, IngredientID: byName["Levadura"], Quantity: qty("0.1"), Unit: "kg"},
			{RecipeID: croissant.ID, IngredientID: byName["Harina"], Quantity: qty("2.5"), Unit: "kg"},
			{RecipeID: croissant.ID, IngredientID: byName["Mantequilla"], Quantity: qty("1.5"), Unit: "kg"},
			{RecipeID: croissant.ID, IngredientID: byName["Azúcar"], Quantity: qty("0.3"), Unit: "kg"},
			{RecipeID: croissant.ID, IngredientID: byName["Levadura"], Quantity: qty("0.05"), Unit: "kg"},
		}
		for i := range lines {
			if err := tx.Create(&lines[i]).Error; err != nil {
				return err
			}
		}

		steps := []models.ProcessStep{
			{RecipeID: panBlanco.ID, StepNumber: 1, Title: "Amasado", Description: "Mezclar harina, agua, sal y levadura.", EstimatedTime: 20},
			{RecipeID: panBlanco.ID, StepNumber: 2, Title: "Fermentación", Description: "Reposo en cámara a 28 °C.", EstimatedTime: 90},
			{RecipeID: panBlanco.ID, StepNumber: 3, Title: "Horneado", Description: "Horno a 220 °C.", EstimatedTime: 40},
		}
		for i := range steps {
			if err := tx.Create(&steps[i]).Error; err != nil {
				return err
			}
		}

		operators := []models.Operator{
			{Name: "María López", Active: true, PinHash: string(pin)},
			{Name: "Juan Pérez", Active: true, PinHash: string(pin)},
		}
		for i := range operators {
			if err := tx.Create(&operators[i]).Error; err != nil {
				return err
			}
		}

		productionLines := []models.ProductionLine{
			{Name: "Línea 1 - Hornos", Active: true},
			{Name: "Línea 2 - Laminado", Active: true},
		}
		for i := range productionLines {
			if err := tx.Create(&productionLines[i]).Error; err != nil {
				return err
			}
		}

		applog.Debug(ctx, "mock database seeded",
			"ingredients", len(ingredients),
			"recipes", 2,
			"operators", len(operators),
		)
		return nil
	})
}

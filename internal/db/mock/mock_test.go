package mock

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"bakeline/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		t.Fatalf("query ingredients: %v", err)
	}
	if len(ingredients) != 6 {
		t.Fatalf("expected 6 seeded ingredients, got %d", len(ingredients))
	}

	var recipe models.Recipe
	if err := db.WithContext(ctx).Preload("Ingredients").Where("name = ?", "Pan Blanco").First(&recipe).Error; err != nil {
		t.Fatalf("query recipe: %v", err)
	}
	if len(recipe.Ingredients) != 4 {
		t.Fatalf("expected Pan Blanco to have 4 ingredients, got %d", len(recipe.Ingredients))
	}

	var operator models.Operator
	if err := db.WithContext(ctx).First(&operator).Error; err != nil {
		t.Fatalf("query operator: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PinHash), []byte(OperatorPIN)); err != nil {
		t.Fatalf("unexpected pin hash: %v", err)
	}
}

func TestEachCallIsIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := New(ctx)
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	second, err := NewEmpty(ctx)
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}

	var count int64
	if err := second.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected an empty database, found %d ingredients", count)
	}

	if err := first.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count == 0 {
		t.Fatal("seeded database lost its rows")
	}
}

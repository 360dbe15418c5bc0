package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Recipe struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	Name          string             `gorm:"size:100;not null" json:"name"`
	Category      string             `gorm:"size:50" json:"category"`
	BaseQuantity  decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"base_quantity"`
	BaseUnit      string             `gorm:"size:10;not null" json:"base_unit"`
	EstimatedTime int                `gorm:"not null;default:0" json:"estimated_time"`
	Active        bool               `gorm:"not null" json:"active"`
	Ingredients   []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`
	Steps         []ProcessStep      `gorm:"foreignKey:RecipeID" json:"steps,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// RecipeIngredient is the quantity of one ingredient needed to produce the
// recipe's base quantity. The composite key forbids listing an ingredient twice.
type RecipeIngredient struct {
	RecipeID     uint            `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	IngredientID uint            `gorm:"primaryKey;autoIncrement:false;index" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Unit         string          `gorm:"size:10;not null" json:"unit"`
	Ingredient   *Ingredient     `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

// ProcessStep is one ordered instruction of a recipe.
type ProcessStep struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	RecipeID      uint   `gorm:"index;not null" json:"recipe_id"`
	StepNumber    int    `gorm:"not null" json:"step_number"`
	Title         string `gorm:"size:100;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	EstimatedTime int    `json:"estimated_time"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionProcess is one batch: a recipe run at a requested quantity.
// It exclusively owns its ingredient lines, events and quality checks.
type ProductionProcess struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	BatchNumber      string              `gorm:"size:40;uniqueIndex;not null" json:"batch_number"`
	RecipeID         uint                `gorm:"index" json:"recipe_id"`
	OperatorID       uint                `gorm:"index" json:"operator_id"`
	LineID           uint                `gorm:"index" json:"line_id"`
	Quantity         decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Unit             string              `gorm:"size:10;not null" json:"unit"`
	StartTime        time.Time           `gorm:"index" json:"start_time"`
	EstimatedEndTime *time.Time          `json:"estimated_end_time,omitempty"`
	ActualEndTime    *time.Time          `json:"actual_end_time,omitempty"`
	Status           ProcessStatus       `gorm:"size:20;not null;index" json:"status"`
	Progress         int                 `gorm:"not null;default:0" json:"progress"`
	Priority         Priority            `gorm:"size:20;not null" json:"priority"`
	Temperature      decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"temperature"`
	Humidity         decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"humidity"`
	CreatedAt        time.Time           `json:"created_at"`

	Recipe        *Recipe             `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
	Ingredients   []ProcessIngredient `gorm:"foreignKey:ProcessID" json:"ingredients,omitempty"`
	Events        []ProcessEvent      `gorm:"foreignKey:ProcessID" json:"events,omitempty"`
	QualityChecks []QualityCheck      `gorm:"foreignKey:ProcessID" json:"quality_checks,omitempty"`
}

// ProcessIngredient records what a batch requires and, once started, what it used.
type ProcessIngredient struct {
	ProcessID        uint                    `gorm:"primaryKey;autoIncrement:false" json:"process_id"`
	IngredientID     uint                    `gorm:"primaryKey;autoIncrement:false;index" json:"ingredient_id"`
	RequiredQuantity decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"required_quantity"`
	UsedQuantity     decimal.NullDecimal     `gorm:"type:decimal(10,2)" json:"used_quantity"`
	Unit             string                  `gorm:"size:10;not null" json:"unit"`
	Status           ProcessIngredientStatus `gorm:"size:20;not null" json:"status"`
	Ingredient       *Ingredient             `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

type ProcessEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProcessID   uint      `gorm:"index;not null" json:"process_id"`
	EventTime   time.Time `gorm:"not null" json:"event_time"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:20;not null" json:"status"`
}

type QualityCheck struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProcessID uint      `gorm:"index;not null" json:"process_id"`
	Parameter string    `gorm:"size:100;not null" json:"parameter"`
	Value     string    `gorm:"size:50;not null" json:"value"`
	Unit      string    `gorm:"size:20" json:"unit"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	CheckTime time.Time `gorm:"not null" json:"check_time"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a stocked raw material. CurrentStock is only ever changed
// through the inventory ledger.
type Ingredient struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CurrentStock    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"current_stock"`
	Unit            string          `gorm:"size:10;not null" json:"unit"`
	MinStock        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_stock"`
	AlertPercentage int             `gorm:"not null;default:0" json:"alert_percentage"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LowStockThreshold returns min_stock * (1 + alert_percentage/100).
func (i Ingredient) LowStockThreshold() decimal.Decimal {
	factor := decimal.NewFromInt(100 + int64(i.AlertPercentage)).Div(decimal.NewFromInt(100))
	return i.MinStock.Mul(factor)
}

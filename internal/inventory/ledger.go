// Package inventory owns ingredient stock: the ledger that mutates it, the
// availability check that reads it and the low-stock scan that watches it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// Op is a stock adjustment kind.
type Op string

const (
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
	OpSet      Op = "set"
)

// ParseOp accepts add, subtract or set, case-insensitive.
func ParseOp(value string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(value))); op {
	case OpAdd, OpSubtract, OpSet:
		return op, nil
	}
	return "", fmt.Errorf("unknown stock operation %q", value)
}

// lowStockCondition keeps both clauses of the alert rule so that a negative
// alert percentage still flags stock at or below the minimum.
const lowStockCondition = "current_stock <= min_stock OR current_stock <= min_stock * (100 + alert_percentage) / 100.0"

// Ledger is the only writer of ingredients.current_stock. Every mutation is a
// single UPDATE evaluated by the database followed by a read, in one
// transaction.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a Ledger that runs inside tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) Get(ctx context.Context, id uint) (models.Ingredient, error) {
	var ing models.Ingredient
	if err := l.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return models.Ingredient{}, apperrors.Lookup("ingredient", id, err)
	}
	return ing, nil
}

// List returns every ingredient ordered by name.
func (l *Ledger) List(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := l.db.WithContext(ctx).Order("name").Find(&ingredients).Error; err != nil {
		return nil, apperrors.Persistence("list ingredients", err)
	}
	return ingredients, nil
}

// FindByName looks an ingredient up by its exact name.
func (l *Ledger) FindByName(ctx context.Context, name string) (models.Ingredient, error) {
	var ing models.Ingredient
	if err := l.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&ing).Error; err != nil {
		return models.Ingredient{}, apperrors.Lookup("ingredient", name, err)
	}
	return ing, nil
}

// Snapshot reads the given ingredients with one query.
func (l *Ledger) Snapshot(ctx context.Context, ids []uint) (Snapshot, error) {
	snap := make(Snapshot, len(ids))
	if len(ids) == 0 {
		return snap, nil
	}

	var ingredients []models.Ingredient
	if err := l.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, apperrors.Persistence("snapshot stock", err)
	}
	for _, ing := range ingredients {
		snap[ing.ID] = ing
	}
	return snap, nil
}

func (l *Ledger) Add(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error) {
	if err := requireNonNegative(amount); err != nil {
		return models.Ingredient{}, err
	}
	return l.update(ctx, OpAdd, id, gorm.Expr("ROUND(current_stock + ?, 2)", amount.Round(2)))
}

// Subtract lowers stock. The result may go negative.
func (l *Ledger) Subtract(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error) {
	if err := requireNonNegative(amount); err != nil {
		return models.Ingredient{}, err
	}
	return l.update(ctx, OpSubtract, id, gorm.Expr("ROUND(current_stock - ?, 2)", amount.Round(2)))
}

// Set overwrites stock with an absolute amount.
func (l *Ledger) Set(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error) {
	if err := requireNonNegative(amount); err != nil {
		return models.Ingredient{}, err
	}
	return l.update(ctx, OpSet, id, amount.Round(2))
}

// Apply dispatches to Add, Subtract or Set.
func (l *Ledger) Apply(ctx context.Context, id uint, amount decimal.Decimal, op Op) (models.Ingredient, error) {
	switch op {
	case OpAdd:
		return l.Add(ctx, id, amount)
	case OpSubtract:
		return l.Subtract(ctx, id, amount)
	case OpSet:
		return l.Set(ctx, id, amount)
	}
	return models.Ingredient{}, &apperrors.InvalidQuantityError{Field: "op", Value: string(op), Reason: "must be add, subtract or set"}
}

func (l *Ledger) update(ctx context.Context, op Op, id uint, value any) (models.Ingredient, error) {
	var ing models.Ingredient
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Ingredient{}).Where("id = ?", id).Update("current_stock", value)
		if result.Error != nil {
			return apperrors.Persistence(string(op)+" stock", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "ingredient", ID: id}
		}
		if err := tx.First(&ing, id).Error; err != nil {
			return apperrors.Lookup("ingredient", id, err)
		}
		return nil
	})
	if err != nil {
		return models.Ingredient{}, err
	}

	applog.Debug(ctx, "stock adjusted", "ingredient_id", id, "op", string(op), "current_stock", ing.CurrentStock.String())
	return ing, nil
}

// LowStock returns ingredients at or below their alert threshold, by name.
func (l *Ledger) LowStock(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := l.db.WithContext(ctx).Where(lowStockCondition).Order("name").Find(&ingredients).Error; err != nil {
		return nil, apperrors.Persistence("query low stock", err)
	}
	return ingredients, nil
}

// Create registers a new ingredient. Names are unique and opening stock must
// not be negative.
func (l *Ledger) Create(ctx context.Context, ing *models.Ingredient) error {
	if err := validateIngredient(ing); err != nil {
		return err
	}
	if ing.CurrentStock.IsNegative() {
		return &apperrors.InvalidQuantityError{Field: "current_stock", Value: ing.CurrentStock.String(), Reason: "must not be negative"}
	}
	ing.CurrentStock = ing.CurrentStock.Round(2)

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, ing.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(ing).Error; err != nil {
			return apperrors.Persistence("create ingredient", err)
		}
		applog.Debug(ctx, "ingredient created", "ingredient_id", ing.ID, "name", ing.Name)
		return nil
	})
}

// Update changes the descriptive columns of an ingredient. Stock is left
// untouched.
func (l *Ledger) Update(ctx context.Context, ing models.Ingredient) (models.Ingredient, error) {
	if err := validateIngredient(&ing); err != nil {
		return models.Ingredient{}, err
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, ing.Name, ing.ID); err != nil {
			return err
		}
		result := tx.Model(&models.Ingredient{}).Where("id = ?", ing.ID).
			Select("name", "unit", "min_stock", "alert_percentage").
			Updates(&ing)
		if result.Error != nil {
			return apperrors.Persistence("update ingredient", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "ingredient", ID: ing.ID}
		}
		return tx.First(&ing, ing.ID).Error
	})
	if err != nil {
		return models.Ingredient{}, apperrors.Persistence("update ingredient", err)
	}
	return ing, nil
}

// Delete removes an ingredient that no recipe or batch refers to.
func (l *Ledger) Delete(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model any
			what  string
		}{
			{&models.RecipeIngredient{}, "used by recipes"},
			{&models.ProcessIngredient{}, "used by production batches"},
		} {
			var count int64
			if err := tx.Model(ref.model).Where("ingredient_id = ?", id).Count(&count).Error; err != nil {
				return apperrors.Persistence("count ingredient references", err)
			}
			if count > 0 {
				return &apperrors.ConflictError{Entity: "ingredient", Key: ref.what}
			}
		}

		result := tx.Delete(&models.Ingredient{}, id)
		if result.Error != nil {
			return apperrors.Persistence("delete ingredient", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "ingredient", ID: id}
		}
		return nil
	})
}

func ensureNameFree(tx *gorm.DB, name string, selfID uint) error {
	var existing models.Ingredient
	err := tx.Where("name = ?", name).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return apperrors.Persistence("load ingredient", err)
	case existing.ID != selfID:
		return &apperrors.ConflictError{Entity: "ingredient", Key: name}
	}
	return nil
}

func validateIngredient(ing *models.Ingredient) error {
	ing.Name = strings.TrimSpace(ing.Name)
	ing.Unit = strings.TrimSpace(ing.Unit)
	if ing.Name == "" {
		return &apperrors.InvalidQuantityError{Field: "name", Value: ing.Name, Reason: "is required"}
	}
	if ing.Unit == "" {
		return &apperrors.InvalidQuantityError{Field: "unit", Value: ing.Unit, Reason: "is required"}
	}
	if ing.MinStock.IsNegative() {
		return &apperrors.InvalidQuantityError{Field: "min_stock", Value: ing.MinStock.String(), Reason: "must not be negative"}
	}
	if ing.AlertPercentage < 0 || ing.AlertPercentage > 100 {
		return &apperrors.InvalidQuantityError{Field: "alert_percentage", Value: fmt.Sprint(ing.AlertPercentage), Reason: "must be between 0 and 100"}
	}
	return nil
}

func requireNonNegative(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &apperrors.InvalidQuantityError{Field: "amount", Value: amount.String(), Reason: "must not be negative"}
	}
	return nil
}

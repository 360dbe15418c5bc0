// Package apperrors defines the error kinds surfaced by the production engine.
// Every kind is a distinct type so callers can branch with errors.As.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvalidRecipeError reports a recipe that cannot be scaled.
type InvalidRecipeError struct {
	RecipeID uint
	Reason   string
}

func (e *InvalidRecipeError) Error() string {
	return fmt.Sprintf("invalid recipe %d: %s", e.RecipeID, e.Reason)
}

// InvalidQuantityError reports a malformed amount, quantity or progress value.
type InvalidQuantityError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Shortfall is one ingredient whose stock does not cover its requirement.
type Shortfall struct {
	IngredientID uint            `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required_quantity"`
	Current      decimal.Decimal `json:"current_stock"`
	Unit         string          `json:"unit"`
}

// Missing is the amount that would have to be restocked.
func (s Shortfall) Missing() decimal.Decimal {
	return s.Required.Sub(s.Current)
}

// InsufficientStockError is returned when a batch cannot be covered by stock.
type InsufficientStockError struct {
	Lines []Shortfall
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Lines))
	for _, line := range e.Lines {
		names = append(names, fmt.Sprintf("%s (required %s%s, available %s%s)",
			line.Name, line.Required.String(), line.Unit, line.Current.String(), line.Unit))
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

// InvalidTransitionError reports an event that the batch's current status does not accept.
type InvalidTransitionError struct {
	From  string
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a batch in status %s", e.Event, e.From)
}

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ConflictError reports a unique key that is already taken.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

// PersistenceError wraps an opaque failure from the storage boundary.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError unless it is nil or already one
// of the kinds above.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Lookup translates a gorm lookup error into NotFoundError or PersistenceError.
func Lookup(entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return Persistence("load "+entity, err)
}

// Classified reports whether err already carries one of the engine's error kinds.
func Classified(err error) bool {
	var (
		invalidRecipe *InvalidRecipeError
		invalidQty    *InvalidQuantityError
		insufficient  *InsufficientStockError
		transition    *InvalidTransitionError
		notFound      *NotFoundError
		conflict      *ConflictError
		persistence   *PersistenceError
	)
	return errors.As(err, &invalidRecipe) ||
		errors.As(err, &invalidQty) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &transition) ||
		errors.As(err, &notFound) ||
		errors.As(err, &conflict) ||
		errors.As(err, &persistence)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

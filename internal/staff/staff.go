// Package staff manages operators, their floor PINs and production lines.
package staff

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// ErrInvalidCredentials is returned when an operator cannot sign in.
var ErrInvalidCredentials = errors.New("invalid operator or pin")

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListOperators(ctx context.Context) ([]models.Operator, error) {
	var operators []models.Operator
	if err := s.db.WithContext(ctx).Order("name").Find(&operators).Error; err != nil {
		return nil, apperrors.Persistence("list operators", err)
	}
	return operators, nil
}

func (s *Store) GetOperator(ctx context.Context, id uint) (models.Operator, error) {
	var operator models.Operator
	if err := s.db.WithContext(ctx).First(&operator, id).Error; err != nil {
		return models.Operator{}, apperrors.Lookup("operator", id, err)
	}
	return operator, nil
}

// CreateOperator stores a new active operator. An empty pin leaves the
// operator unable to sign in.
func (s *Store) CreateOperator(ctx context.Context, name, pin string) (models.Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Operator{}, &apperrors.InvalidQuantityError{Field: "name", Value: name, Reason: "is required"}
	}

	operator := models.Operator{Name: name, Active: true}
	if pin != "" {
		hash, err := hashPIN(pin)
		if err != nil {
			return models.Operator{}, err
		}
		operator.PinHash = hash
	}

	if err := s.db.WithContext(ctx).Create(&operator).Error; err != nil {
		return models.Operator{}, apperrors.Persistence("create operator", err)
	}
	applog.Info(ctx, "operator created", "operator_id", operator.ID)
	return operator, nil
}

// OperatorUpdate carries the fields to change. Nil fields are left alone.
type OperatorUpdate struct {
	Name   *string `json:"name"`
	PIN    *string `json:"pin"`
	Active *bool   `json:"active"`
}

// UpdateOperator renames, re-keys or toggles an operator. An empty pin clears
// it, which leaves the operator unable to sign in.
func (s *Store) UpdateOperator(ctx context.Context, id uint, update OperatorUpdate) (models.Operator, error) {
	changes := map[string]any{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Operator{}, &apperrors.InvalidQuantityError{Field: "name", Value: name, Reason: "is required"}
		}
		changes["name"] = name
	}
	if update.PIN != nil {
		hash := ""
		if *update.PIN != "" {
			var err error
			if hash, err = hashPIN(*update.PIN); err != nil {
				return models.Operator{}, err
			}
		}
		changes["pin_hash"] = hash
	}
	if update.Active != nil {
		changes["active"] = *update.Active
	}
	if len(changes) == 0 {
		return s.GetOperator(ctx, id)
	}

	result := s.db.WithContext(ctx).Model(&models.Operator{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return models.Operator{}, apperrors.Persistence("update operator", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Operator{}, &apperrors.NotFoundError{Entity: "operator", ID: id}
	}
	return s.GetOperator(ctx, id)
}

// DeleteOperator removes an operator that no batch refers to. Operators with
// history should be deactivated instead.
func (s *Store) DeleteOperator(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var operator models.Operator
		if err := tx.First(&operator, id).Error; err != nil {
			return apperrors.Lookup("operator", id, err)
		}
		if err := refuseIfReferenced(tx, "operator_id", id, "operator", operator.Name); err != nil {
			return err
		}
		if err := tx.Delete(&operator).Error; err != nil {
			return apperrors.Persistence("delete operator", err)
		}
		applog.Info(ctx, "operator deleted", "operator_id", id)
		return nil
	})
}

// Authenticate checks an operator's PIN. Unknown, inactive and PIN-less
// operators all fail with ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, id uint, pin string) (models.Operator, error) {
	operator, err := s.GetOperator(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return models.Operator{}, ErrInvalidCredentials
		}
		return models.Operator{}, err
	}
	if !operator.Active || operator.PinHash == "" {
		return models.Operator{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PinHash), []byte(pin)); err != nil {
		return models.Operator{}, ErrInvalidCredentials
	}
	return operator, nil
}

func (s *Store) ListLines(ctx context.Context) ([]models.ProductionLine, error) {
	var lines []models.ProductionLine
	if err := s.db.WithContext(ctx).Order("name").Find(&lines).Error; err != nil {
		return nil, apperrors.Persistence("list production lines", err)
	}
	return lines, nil
}

func (s *Store) CreateLine(ctx context.Context, name string) (models.ProductionLine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ProductionLine{}, &apperrors.InvalidQuantityError{Field: "name", Value: name, Reason: "is required"}
	}

	line := models.ProductionLine{Name: name, Active: true}
	if err := s.db.WithContext(ctx).Create(&line).Error; err != nil {
		return models.ProductionLine{}, apperrors.Persistence("create production line", err)
	}
	return line, nil
}

// LineUpdate carries the fields to change. Nil fields are left alone.
type LineUpdate struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func (s *Store) UpdateLine(ctx context.Context, id uint, update LineUpdate) (models.ProductionLine, error) {
	var line models.ProductionLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&line, id).Error; err != nil {
			return apperrors.Lookup("production line", id, err)
		}
		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			if name == "" {
				return &apperrors.InvalidQuantityError{Field: "name", Value: name, Reason: "is required"}
			}
			line.Name = name
		}
		if update.Active != nil {
			line.Active = *update.Active
		}
		if err := tx.Save(&line).Error; err != nil {
			return apperrors.Persistence("update production line", err)
		}
		return nil
	})
	if err != nil {
		return models.ProductionLine{}, err
	}
	return line, nil
}

// DeleteLine removes a production line that no batch refers to.
func (s *Store) DeleteLine(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line models.ProductionLine
		if err := tx.First(&line, id).Error; err != nil {
			return apperrors.Lookup("production line", id, err)
		}
		if err := refuseIfReferenced(tx, "line_id", id, "production line", line.Name); err != nil {
			return err
		}
		if err := tx.Delete(&line).Error; err != nil {
			return apperrors.Persistence("delete production line", err)
		}
		return nil
	})
}

func refuseIfReferenced(tx *gorm.DB, column string, id uint, entity, key string) error {
	var batches int64
	if err := tx.Model(&models.ProductionProcess{}).Where(column+" = ?", id).Count(&batches).Error; err != nil {
		return apperrors.Persistence("count batches", err)
	}
	if batches > 0 {
		return &apperrors.ConflictError{Entity: entity, Key: key}
	}
	return nil
}

func hashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", &apperrors.InvalidQuantityError{Field: "pin", Value: "****", Reason: "must have at least 4 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

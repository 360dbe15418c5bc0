package production

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	"bakeline/models"
)

// GetBatch loads a batch with its recipe, ingredient lines, events (most
// recent first) and quality checks.
func (s *Service) GetBatch(ctx context.Context, batchID uint) (models.ProductionProcess, error) {
	var p models.ProductionProcess
	err := s.db.WithContext(ctx).
		Preload("Recipe").
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("ingredient_id") }).
		Preload("Ingredients.Ingredient").
		Preload("Events", func(tx *gorm.DB) *gorm.DB { return tx.Order("event_time DESC").Order("id DESC") }).
		Preload("QualityChecks", func(tx *gorm.DB) *gorm.DB { return tx.Order("check_time DESC").Order("id DESC") }).
		First(&p, batchID).Error
	if err != nil {
		return models.ProductionProcess{}, apperrors.Lookup("batch", batchID, err)
	}
	return p, nil
}

// BatchFilter narrows ListBatches. Zero values leave a dimension unfiltered.
type BatchFilter struct {
	Statuses []models.ProcessStatus
	From     time.Time
	To       time.Time
}

// ListBatches returns batches ordered by start time, newest first.
func (s *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]models.ProductionProcess, error) {
	query := s.db.WithContext(ctx).Preload("Recipe").Order("start_time DESC").Order("id DESC")
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if !filter.From.IsZero() {
		query = query.Where("start_time >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("start_time <= ?", filter.To.UTC())
	}

	var batches []models.ProductionProcess
	if err := query.Find(&batches).Error; err != nil {
		return nil, apperrors.Persistence("list batches", err)
	}
	return batches, nil
}

// ActiveBatches returns batches that have not reached a terminal status.
func (s *Service) ActiveBatches(ctx context.Context) ([]models.ProductionProcess, error) {
	return s.ListBatches(ctx, BatchFilter{Statuses: models.ActiveStatuses()})
}

// BatchesBetween returns batches whose start time falls within [from, to].
func (s *Service) BatchesBetween(ctx context.Context, from, to time.Time) ([]models.ProductionProcess, error) {
	if to.Before(from) {
		return nil, &apperrors.InvalidQuantityError{Field: "to", Value: to.Format(time.RFC3339), Reason: "must not be before from"}
	}
	return s.ListBatches(ctx, BatchFilter{From: from, To: to})
}

// BatchIngredients returns a batch's ingredient lines.
func (s *Service) BatchIngredients(ctx context.Context, batchID uint) ([]models.ProcessIngredient, error) {
	if err := requireRow(s.db.WithContext(ctx), &models.ProductionProcess{}, "batch", batchID); err != nil {
		return nil, err
	}

	var lines []models.ProcessIngredient
	err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("process_id = ?", batchID).
		Order("ingredient_id").
		Find(&lines).Error
	if err != nil {
		return nil, apperrors.Persistence("list batch ingredients", err)
	}
	return lines, nil
}

func (s *Service) batchIngredientIDs(ctx context.Context, batchID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.ProcessIngredient{}).
		Where("process_id = ?", batchID).
		Order("ingredient_id").
		Pluck("ingredient_id", &ids).Error
	if err != nil {
		return nil, apperrors.Persistence("list batch ingredient ids", err)
	}
	return ids, nil
}

// RecordIngredientUsage overrides the used quantity of one batch line, for
// corrections after weighing. Only batches that have started may be corrected.
// Stock is not touched.
func (s *Service) RecordIngredientUsage(ctx context.Context, batchID, ingredientID uint, used decimal.Decimal) (models.ProcessIngredient, error) {
	if used.IsNegative() {
		return models.ProcessIngredient{}, &apperrors.InvalidQuantityError{Field: "used_quantity", Value: used.String(), Reason: "must not be negative"}
	}

	var line models.ProcessIngredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.ProductionProcess
		if err := tx.Select("id", "status").First(&p, batchID).Error; err != nil {
			return apperrors.Lookup("batch", batchID, err)
		}
		if !usageRecordable(p.Status) {
			return &apperrors.InvalidTransitionError{From: string(p.Status), Event: "record usage"}
		}

		result := tx.Model(&models.ProcessIngredient{}).
			Where("process_id = ? AND ingredient_id = ?", batchID, ingredientID).
			Updates(map[string]any{
				"used_quantity": decimal.NewNullDecimal(used.Round(2)),
				"status":        models.IngredientCompleted,
			})
		if result.Error != nil {
			return apperrors.Persistence("record ingredient usage", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "batch ingredient", ID: ingredientID}
		}

		err := tx.Preload("Ingredient").
			Where("process_id = ? AND ingredient_id = ?", batchID, ingredientID).
			First(&line).Error
		return apperrors.Lookup("batch ingredient", ingredientID, err)
	})
	if err != nil {
		return models.ProcessIngredient{}, err
	}
	return line, nil
}

// usageRecordable reports whether stock has been drawn for a batch in status.
func usageRecordable(status models.ProcessStatus) bool {
	switch status {
	case models.StatusInProgress, models.StatusPaused, models.StatusCompleted:
		return true
	}
	return false
}

// UsageRecord is one batch's consumption of an ingredient.
type UsageRecord struct {
	ProcessID    uint                `json:"process_id"`
	BatchNumber  string              `json:"batch_number"`
	StartTime    time.Time           `json:"start_time"`
	UsedQuantity decimal.NullDecimal `json:"used_quantity"`
	Unit         string              `json:"unit"`
	RecipeName   string              `json:"recipe_name"`
}

// IngredientUsage lists batches that started within [from, to] and drew on
// an ingredient, newest first.
func (s *Service) IngredientUsage(ctx context.Context, ingredientID uint, from, to time.Time) ([]UsageRecord, error) {
	if _, err := s.ledger.Get(ctx, ingredientID); err != nil {
		return nil, err
	}

	var records []UsageRecord
	err := s.db.WithContext(ctx).
		Table("process_ingredients AS pi").
		Select("p.id AS process_id, p.batch_number, p.start_time, pi.used_quantity, pi.unit, r.name AS recipe_name").
		Joins("JOIN production_processes p ON pi.process_id = p.id").
		Joins("JOIN recipes r ON p.recipe_id = r.id").
		Where("pi.ingredient_id = ? AND p.start_time BETWEEN ? AND ?", ingredientID, from.UTC(), to.UTC()).
		Order("p.start_time DESC").
		Scan(&records).Error
	if err != nil {
		return nil, apperrors.Persistence("query ingredient usage", err)
	}
	return records, nil
}

// Dashboard is the floor summary shown on the kiosk.
type Dashboard struct {
	ActiveProcesses int64 `json:"active_processes"`
	CompletedToday  int64 `json:"completed_today"`
	PendingOrders   int64 `json:"pending_orders"`
	StockAlerts     int   `json:"stock_alerts"`
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var summary Dashboard
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.ProductionProcess{}).Where("status IN ?", models.ActiveStatuses()).Count(&summary.ActiveProcesses).Error; err != nil {
		return Dashboard{}, apperrors.Persistence("count active batches", err)
	}

	midnight := s.now().Truncate(24 * time.Hour)
	if err := db.Model(&models.ProductionProcess{}).
		Where("status = ? AND actual_end_time >= ?", models.StatusCompleted, midnight).
		Count(&summary.CompletedToday).Error; err != nil {
		return Dashboard{}, apperrors.Persistence("count completed batches", err)
	}

	if err := db.Model(&models.ProductionProcess{}).Where("status = ?", models.StatusPending).Count(&summary.PendingOrders).Error; err != nil {
		return Dashboard{}, apperrors.Persistence("count pending batches", err)
	}

	low, err := s.ledger.LowStock(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	summary.StockAlerts = len(low)
	return summary, nil
}

// AddNote appends a free-form event to a batch's audit trail. The event
// carries the batch's current status.
func (s *Service) AddNote(ctx context.Context, batchID uint, description string) (models.ProcessEvent, error) {
	var p models.ProductionProcess
	if err := s.db.WithContext(ctx).Select("id", "status").First(&p, batchID).Error; err != nil {
		return models.ProcessEvent{}, apperrors.Lookup("batch", batchID, err)
	}
	if description == "" {
		return models.ProcessEvent{}, &apperrors.InvalidQuantityError{Field: "description", Value: description, Reason: "is required"}
	}
	return s.trail.AppendEvent(ctx, batchID, s.now(), description, string(p.Status))
}

// Events lists a batch's audit events, most recent first.
func (s *Service) Events(ctx context.Context, batchID uint) ([]models.ProcessEvent, error) {
	if err := requireRow(s.db.WithContext(ctx), &models.ProductionProcess{}, "batch", batchID); err != nil {
		return nil, err
	}
	return s.trail.ListEvents(ctx, batchID)
}

// DeleteEvent removes one audit event from a batch.
func (s *Service) DeleteEvent(ctx context.Context, batchID, eventID uint) error {
	if err := requireRow(s.db.WithContext(ctx), &models.ProductionProcess{}, "batch", batchID); err != nil {
		return err
	}
	return s.trail.DeleteEvent(ctx, batchID, eventID)
}

// AddQualityCheck records a measurement against an existing batch.
func (s *Service) AddQualityCheck(ctx context.Context, batchID uint, parameter, value, unit, status string) (models.QualityCheck, error) {
	if err := requireRow(s.db.WithContext(ctx), &models.ProductionProcess{}, "batch", batchID); err != nil {
		return models.QualityCheck{}, err
	}
	return s.trail.AppendQualityCheck(ctx, batchID, parameter, value, unit, status)
}

// QualityChecks lists a batch's checks, most recent first.
func (s *Service) QualityChecks(ctx context.Context, batchID uint) ([]models.QualityCheck, error) {
	if err := requireRow(s.db.WithContext(ctx), &models.ProductionProcess{}, "batch", batchID); err != nil {
		return nil, err
	}
	return s.trail.ListQualityChecks(ctx, batchID)
}

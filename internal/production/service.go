package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bakeline/internal/apperrors"
	"bakeline/internal/audit"
	"bakeline/internal/inventory"
	applog "bakeline/internal/log"
	"bakeline/internal/recipe"
	"bakeline/models"
)

// Options tunes the lifecycle.
type Options struct {
	// RecheckOnStart re-verifies stock against a fresh snapshot inside the
	// start transaction before consuming it.
	RecheckOnStart bool
	BatchPrefix    string
	Now            func() time.Time
}

// Service is the entry point for every production operation. It owns no
// state besides the database handle and the start locks.
type Service struct {
	db      *gorm.DB
	recipes *recipe.Store
	ledger  *inventory.Ledger
	trail   *audit.Trail
	opts    Options
	locks   *keyedMutex
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BatchPrefix == "" {
		opts.BatchPrefix = "BATCH"
	}
	return &Service{
		db:      db,
		recipes: recipe.NewStore(db),
		ledger:  inventory.NewLedger(db),
		trail:   audit.NewTrail(db),
		opts:    opts,
		locks:   newKeyedMutex(),
	}
}

func (s *Service) Recipes() *recipe.Store     { return s.recipes }
func (s *Service) Ledger() *inventory.Ledger { return s.ledger }
func (s *Service) Trail() *audit.Trail       { return s.trail }

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// ScaleRecipe returns the absolute ingredient requirements for producing
// quantity of a recipe.
func (s *Service) ScaleRecipe(ctx context.Context, recipeID uint, quantity decimal.Decimal) ([]recipe.ScaledRequirement, error) {
	_, reqs, err := scaleWith(ctx, s.recipes, recipeID, quantity)
	return reqs, err
}

// CheckAvailability scales a recipe and compares it to one stock snapshot.
func (s *Service) CheckAvailability(ctx context.Context, recipeID uint, quantity decimal.Decimal) (inventory.AvailabilityReport, error) {
	_, reqs, err := scaleWith(ctx, s.recipes, recipeID, quantity)
	if err != nil {
		return inventory.AvailabilityReport{}, err
	}
	snap, err := s.ledger.Snapshot(ctx, inventory.RequirementIDs(reqs))
	if err != nil {
		return inventory.AvailabilityReport{}, err
	}
	return inventory.Check(reqs, snap), nil
}

func scaleWith(ctx context.Context, store *recipe.Store, recipeID uint, quantity decimal.Decimal) (models.Recipe, []recipe.ScaledRequirement, error) {
	r, err := store.Get(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, nil, err
	}
	reqs, err := recipe.Scale(r, r.Ingredients, quantity)
	if err != nil {
		return models.Recipe{}, nil, err
	}
	return r, reqs, nil
}

// CreateBatchRequest describes a batch to be planned.
type CreateBatchRequest struct {
	RecipeID    uint                `json:"recipe_id"`
	OperatorID  uint                `json:"operator_id"`
	LineID      uint                `json:"line_id"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Priority    string              `json:"priority"`
	Temperature decimal.NullDecimal `json:"temperature"`
	Humidity    decimal.NullDecimal `json:"humidity"`
	StartTime   time.Time           `json:"start_time"`
	// EstimatedMinutes overrides the recipe's estimated time when positive.
	EstimatedMinutes int    `json:"estimated_time"`
	BatchNumber      string `json:"batch_number"`
	// Notes, when set, are recorded as a second event next to "created".
	Notes string `json:"notes"`
}

// CreateBatch checks availability and, only when every line is covered,
// persists a pending batch with its ingredient lines and a "created" event.
func (s *Service) CreateBatch(ctx context.Context, req CreateBatchRequest) (models.ProductionProcess, error) {
	priority, ok := models.NormalizePriority(req.Priority)
	if !ok {
		return models.ProductionProcess{}, &apperrors.InvalidQuantityError{Field: "priority", Value: req.Priority, Reason: "must be low, normal, high or urgent"}
	}

	var batchID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, reqs, err := scaleWith(ctx, s.recipes.WithTx(tx), req.RecipeID, req.Quantity)
		if err != nil {
			return err
		}
		if err := requireRow(tx, &models.Operator{}, "operator", req.OperatorID); err != nil {
			return err
		}
		if err := requireRow(tx, &models.ProductionLine{}, "production line", req.LineID); err != nil {
			return err
		}

		snap, err := s.ledger.WithTx(tx).Snapshot(ctx, inventory.RequirementIDs(reqs))
		if err != nil {
			return err
		}
		if err := inventory.Check(reqs, snap).Err(); err != nil {
			return err
		}

		now := s.now()
		start := req.StartTime
		if start.IsZero() {
			start = now
		}
		start = start.UTC()

		minutes := req.EstimatedMinutes
		if minutes <= 0 {
			minutes = r.EstimatedTime
		}
		var eta *time.Time
		if minutes > 0 {
			end := start.Add(time.Duration(minutes) * time.Minute)
			eta = &end
		}

		number, err := reserveBatchNumber(tx, req.BatchNumber, s.opts.BatchPrefix, now)
		if err != nil {
			return err
		}

		process := models.ProductionProcess{
			BatchNumber:      number,
			RecipeID:         r.ID,
			OperatorID:       req.OperatorID,
			LineID:           req.LineID,
			Quantity:         req.Quantity,
			Unit:             r.BaseUnit,
			StartTime:        start,
			EstimatedEndTime: eta,
			Status:           models.StatusPending,
			Priority:         priority,
			Temperature:      req.Temperature,
			Humidity:         req.Humidity,
		}
		if err := tx.Omit(clause.Associations).Create(&process).Error; err != nil {
			return apperrors.Persistence("create batch", err)
		}

		if len(reqs) > 0 {
			lines := make([]models.ProcessIngredient, 0, len(reqs))
			for _, req := range reqs {
				lines = append(lines, models.ProcessIngredient{
					ProcessID:        process.ID,
					IngredientID:     req.IngredientID,
					RequiredQuantity: req.Required,
					Unit:             req.Unit,
					Status:           models.IngredientPending,
				})
			}
			if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
				return apperrors.Persistence("create batch ingredients", err)
			}
		}

		trail := s.trail.WithTx(tx)
		if _, err := trail.AppendEvent(ctx, process.ID, now, DescriptionCreated, string(models.StatusPending)); err != nil {
			return err
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			if _, err := trail.AppendEvent(ctx, process.ID, now, notes, string(models.StatusPending)); err != nil {
				return err
			}
		}
		batchID = process.ID
		return nil
	})
	if err != nil {
		return models.ProductionProcess{}, err
	}

	applog.Info(ctx, "batch created", "batch_id", batchID, "recipe_id", req.RecipeID, "quantity", req.Quantity.String())
	return s.GetBatch(ctx, batchID)
}

// Transition applies ev to a batch. The status change, any stock consumption
// and the audit event commit together or not at all.
func (s *Service) Transition(ctx context.Context, batchID uint, ev Event) (models.ProductionProcess, error) {
	keys := []string{batchKey(batchID)}
	if ev == EventStart {
		ids, err := s.batchIngredientIDs(ctx, batchID)
		if err != nil {
			return models.ProductionProcess{}, err
		}
		for _, id := range ids {
			keys = append(keys, ingredientKey(id))
		}
	}
	unlock := s.locks.LockAll(keys...)
	defer unlock()

	var from, to models.ProcessStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.ProductionProcess
		if err := tx.First(&p, batchID).Error; err != nil {
			return apperrors.Lookup("batch", batchID, err)
		}
		from = p.Status

		next, err := Next(p.Status, ev)
		if err != nil {
			return err
		}
		to = next

		now := s.now()
		updates := map[string]any{"status": next}
		switch ev {
		case EventStart:
			updates["progress"] = 0
		case EventComplete:
			updates["progress"] = 100
			updates["actual_end_time"] = now
		}
		if err := compareAndSetStatus(tx, p, ev, updates); err != nil {
			return err
		}

		if ev == EventStart {
			if err := s.consumeStock(ctx, tx, p.ID); err != nil {
				return err
			}
		}

		_, err = s.trail.WithTx(tx).AppendEvent(ctx, p.ID, now, ev.Description(), string(next))
		return err
	})
	if err != nil {
		return models.ProductionProcess{}, err
	}

	applog.Info(ctx, "batch transitioned", "batch_id", batchID, "event", string(ev), "from", string(from), "to", string(to))
	return s.GetBatch(ctx, batchID)
}

// compareAndSetStatus writes updates only while the row still carries the
// status it was read with.
func compareAndSetStatus(tx *gorm.DB, p models.ProductionProcess, ev Event, updates map[string]any) error {
	result := tx.Model(&models.ProductionProcess{}).
		Where("id = ? AND status = ?", p.ID, p.Status).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Persistence("update batch status", result.Error)
	}
	if result.RowsAffected == 0 {
		var current models.ProductionProcess
		if err := tx.Select("status").First(&current, p.ID).Error; err != nil {
			return apperrors.Lookup("batch", p.ID, err)
		}
		return &apperrors.InvalidTransitionError{From: string(current.Status), Event: string(ev)}
	}
	return nil
}

func (s *Service) consumeStock(ctx context.Context, tx *gorm.DB, processID uint) error {
	var lines []models.ProcessIngredient
	if err := tx.Preload("Ingredient").Where("process_id = ?", processID).Order("ingredient_id").Find(&lines).Error; err != nil {
		return apperrors.Persistence("load batch ingredients", err)
	}

	ledger := s.ledger.WithTx(tx)
	if s.opts.RecheckOnStart {
		reqs := make([]recipe.ScaledRequirement, 0, len(lines))
		for _, line := range lines {
			req := recipe.ScaledRequirement{IngredientID: line.IngredientID, Required: line.RequiredQuantity, Unit: line.Unit}
			if line.Ingredient != nil {
				req.IngredientName = line.Ingredient.Name
			}
			reqs = append(reqs, req)
		}
		snap, err := ledger.Snapshot(ctx, inventory.RequirementIDs(reqs))
		if err != nil {
			return err
		}
		if err := inventory.Check(reqs, snap).Err(); err != nil {
			return err
		}
	}

	for _, line := range lines {
		if _, err := ledger.Subtract(ctx, line.IngredientID, line.RequiredQuantity); err != nil {
			return err
		}
	}

	err := tx.Model(&models.ProcessIngredient{}).Where("process_id = ?", processID).
		Updates(map[string]any{
			"status":        models.IngredientCompleted,
			"used_quantity": gorm.Expr("required_quantity"),
		}).Error
	return apperrors.Persistence("mark batch ingredients used", err)
}

// SetProgress records progress on a running batch. Progress stays within
// 0..100 and never decreases.
func (s *Service) SetProgress(ctx context.Context, batchID uint, progress int) (models.ProductionProcess, error) {
	if progress < 0 || progress > 100 {
		return models.ProductionProcess{}, &apperrors.InvalidQuantityError{Field: "progress", Value: fmt.Sprint(progress), Reason: "must be between 0 and 100"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.ProductionProcess
		if err := tx.First(&p, batchID).Error; err != nil {
			return apperrors.Lookup("batch", batchID, err)
		}
		if p.Status != models.StatusInProgress {
			return &apperrors.InvalidTransitionError{From: string(p.Status), Event: "progress"}
		}
		if progress < p.Progress {
			return &apperrors.InvalidQuantityError{Field: "progress", Value: fmt.Sprint(progress), Reason: fmt.Sprintf("must not go below %d", p.Progress)}
		}

		result := tx.Model(&models.ProductionProcess{}).
			Where("id = ? AND status = ? AND progress <= ?", batchID, models.StatusInProgress, progress).
			Update("progress", progress)
		if result.Error != nil {
			return apperrors.Persistence("update batch progress", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.InvalidTransitionError{From: string(p.Status), Event: "progress"}
		}
		return nil
	})
	if err != nil {
		return models.ProductionProcess{}, err
	}
	return s.GetBatch(ctx, batchID)
}

// RecordConditions stores the latest temperature and humidity readings.
func (s *Service) RecordConditions(ctx context.Context, batchID uint, temperature, humidity decimal.NullDecimal) (models.ProductionProcess, error) {
	result := s.db.WithContext(ctx).Model(&models.ProductionProcess{}).Where("id = ?", batchID).
		Updates(map[string]any{"temperature": temperature, "humidity": humidity})
	if result.Error != nil {
		return models.ProductionProcess{}, apperrors.Persistence("update batch conditions", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ProductionProcess{}, &apperrors.NotFoundError{Entity: "batch", ID: batchID}
	}
	return s.GetBatch(ctx, batchID)
}

// DeleteBatch removes a batch and everything it owns.
func (s *Service) DeleteBatch(ctx context.Context, batchID uint) error {
	unlock := s.locks.LockAll(batchKey(batchID))
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []any{&models.ProcessIngredient{}, &models.ProcessEvent{}, &models.QualityCheck{}} {
			if err := tx.Where("process_id = ?", batchID).Delete(owned).Error; err != nil {
				return apperrors.Persistence("delete batch children", err)
			}
		}
		result := tx.Delete(&models.ProductionProcess{}, batchID)
		if result.Error != nil {
			return apperrors.Persistence("delete batch", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "batch", ID: batchID}
		}
		return nil
	})
	if err != nil {
		return err
	}

	applog.Info(ctx, "batch deleted", "batch_id", batchID)
	return nil
}

// AdjustStock applies a manual stock correction.
func (s *Service) AdjustStock(ctx context.Context, ingredientID uint, amount decimal.Decimal, op inventory.Op) (models.Ingredient, error) {
	ing, err := s.ledger.Apply(ctx, ingredientID, amount, op)
	if err != nil {
		return models.Ingredient{}, err
	}
	applog.Info(ctx, "stock adjusted", "ingredient_id", ingredientID, "op", string(op), "amount", amount.String(), "current_stock", ing.CurrentStock.String())
	return ing, nil
}

// LowStockReport lists ingredients at or below their alert threshold.
func (s *Service) LowStockReport(ctx context.Context) ([]models.Ingredient, error) {
	return s.ledger.LowStock(ctx)
}

func requireRow(tx *gorm.DB, model any, entity string, id uint) error {
	if err := tx.Select("id").First(model, id).Error; err != nil {
		return apperrors.Lookup(entity, id, err)
	}
	return nil
}

func batchKey(id uint) string      { return fmt.Sprintf("batch:%d", id) }
func ingredientKey(id uint) string { return fmt.Sprintf("ingredient:%d", id) }

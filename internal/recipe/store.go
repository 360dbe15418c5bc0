package recipe

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// Store persists recipes together with their ingredient lines and steps.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// List returns recipes ordered by name, optionally only the active ones.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, apperrors.Persistence("list recipes", err)
	}
	return recipes, nil
}

// Get loads a recipe with its ingredient lines and ordered steps.
func (s *Store) Get(ctx context.Context, id uint) (models.Recipe, error) {
	var r models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("ingredient_id") }).
		Preload("Ingredients.Ingredient").
		Preload("Steps", func(tx *gorm.DB) *gorm.DB { return tx.Order("step_number") }).
		First(&r, id).Error
	if err != nil {
		return models.Recipe{}, apperrors.Lookup("recipe", id, err)
	}
	return r, nil
}

// Create validates and inserts a recipe. Nested ingredient lines are inserted
// in the same transaction.
func (s *Store) Create(ctx context.Context, r *models.Recipe) error {
	if err := validateRecipe(r); err != nil {
		return err
	}
	for _, line := range r.Ingredients {
		if !line.Quantity.IsPositive() {
			return &apperrors.InvalidQuantityError{Field: "quantity", Value: line.Quantity.String(), Reason: "must be greater than zero"}
		}
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperrors.Persistence("create recipe", err)
	}
	applog.Debug(ctx, "recipe created", "recipe_id", r.ID, "name", r.Name)
	return nil
}

// Update overwrites the editable columns of an existing recipe.
func (s *Store) Update(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	if err := validateRecipe(&r); err != nil {
		return models.Recipe{}, err
	}
	r.Ingredients, r.Steps = nil, nil

	result := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", r.ID).
		Select("name", "category", "base_quantity", "base_unit", "estimated_time", "active").
		Updates(&r)
	if result.Error != nil {
		return models.Recipe{}, apperrors.Persistence("update recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Recipe{}, &apperrors.NotFoundError{Entity: "recipe", ID: r.ID}
	}
	return s.Get(ctx, r.ID)
}

// Delete removes a recipe and its lines and steps. Recipes referenced by a
// batch cannot be deleted.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batches int64
		if err := tx.Model(&models.ProductionProcess{}).Where("recipe_id = ?", id).Count(&batches).Error; err != nil {
			return apperrors.Persistence("count recipe batches", err)
		}
		if batches > 0 {
			return &apperrors.ConflictError{Entity: "recipe", Key: "referenced by production batches"}
		}

		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return apperrors.Persistence("delete recipe ingredients", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.ProcessStep{}).Error; err != nil {
			return apperrors.Persistence("delete recipe steps", err)
		}
		result := tx.Delete(&models.Recipe{}, id)
		if result.Error != nil {
			return apperrors.Persistence("delete recipe", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "recipe", ID: id}
		}
		return nil
	})
}

// Ingredients returns the ingredient lines of a recipe.
func (s *Store) Ingredients(ctx context.Context, recipeID uint) ([]models.RecipeIngredient, error) {
	var lines []models.RecipeIngredient
	err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("recipe_id = ?", recipeID).
		Order("ingredient_id").
		Find(&lines).Error
	if err != nil {
		return nil, apperrors.Persistence("list recipe ingredients", err)
	}
	return lines, nil
}

// AddIngredient attaches an ingredient to a recipe. A blank unit takes the
// ingredient's stock unit. Each ingredient may appear once per recipe.
func (s *Store) AddIngredient(ctx context.Context, line models.RecipeIngredient) (models.RecipeIngredient, error) {
	if !line.Quantity.IsPositive() {
		return models.RecipeIngredient{}, &apperrors.InvalidQuantityError{Field: "quantity", Value: line.Quantity.String(), Reason: "must be greater than zero"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Recipe{}, line.RecipeID).Error; err != nil {
			return apperrors.Lookup("recipe", line.RecipeID, err)
		}

		var ingredient models.Ingredient
		if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
			return apperrors.Lookup("ingredient", line.IngredientID, err)
		}

		var existing models.RecipeIngredient
		err := tx.Where("recipe_id = ? AND ingredient_id = ?", line.RecipeID, line.IngredientID).First(&existing).Error
		if err == nil {
			return &apperrors.ConflictError{Entity: "recipe ingredient", Key: ingredient.Name}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Persistence("load recipe ingredient", err)
		}

		if strings.TrimSpace(line.Unit) == "" {
			line.Unit = ingredient.Unit
		}
		line.Ingredient = nil
		if err := tx.Create(&line).Error; err != nil {
			return apperrors.Persistence("create recipe ingredient", err)
		}
		line.Ingredient = &ingredient
		return nil
	})
	if err != nil {
		return models.RecipeIngredient{}, err
	}
	return line, nil
}

// UpdateIngredient changes the quantity of a recipe line. A blank unit keeps
// the current one.
func (s *Store) UpdateIngredient(ctx context.Context, recipeID, ingredientID uint, quantity decimal.Decimal, unit string) (models.RecipeIngredient, error) {
	if !quantity.IsPositive() {
		return models.RecipeIngredient{}, &apperrors.InvalidQuantityError{Field: "quantity", Value: quantity.String(), Reason: "must be greater than zero"}
	}

	updates := map[string]any{"quantity": quantity}
	if unit = strings.TrimSpace(unit); unit != "" {
		updates["unit"] = unit
	}

	var line models.RecipeIngredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RecipeIngredient{}).
			Where("recipe_id = ? AND ingredient_id = ?", recipeID, ingredientID).
			Updates(updates)
		if result.Error != nil {
			return apperrors.Persistence("update recipe ingredient", result.Error)
		}
		if result.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "recipe ingredient", ID: ingredientID}
		}
		err := tx.Preload("Ingredient").
			Where("recipe_id = ? AND ingredient_id = ?", recipeID, ingredientID).
			First(&line).Error
		return apperrors.Lookup("recipe ingredient", ingredientID, err)
	})
	if err != nil {
		return models.RecipeIngredient{}, err
	}
	return line, nil
}

// RemoveIngredient detaches an ingredient from a recipe.
func (s *Store) RemoveIngredient(ctx context.Context, recipeID, ingredientID uint) error {
	result := s.db.WithContext(ctx).
		Where("recipe_id = ? AND ingredient_id = ?", recipeID, ingredientID).
		Delete(&models.RecipeIngredient{})
	if result.Error != nil {
		return apperrors.Persistence("delete recipe ingredient", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.NotFoundError{Entity: "recipe ingredient", ID: ingredientID}
	}
	return nil
}

// Steps returns the process steps of a recipe ordered by step number.
func (s *Store) Steps(ctx context.Context, recipeID uint) ([]models.ProcessStep, error) {
	var steps []models.ProcessStep
	if err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Order("step_number").Find(&steps).Error; err != nil {
		return nil, apperrors.Persistence("list recipe steps", err)
	}
	return steps, nil
}

// AddStep appends a step. A zero step number places it after the last one.
func (s *Store) AddStep(ctx context.Context, step models.ProcessStep) (models.ProcessStep, error) {
	if strings.TrimSpace(step.Title) == "" {
		return models.ProcessStep{}, &apperrors.InvalidRecipeError{RecipeID: step.RecipeID, Reason: "step title is required"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Recipe{}, step.RecipeID).Error; err != nil {
			return apperrors.Lookup("recipe", step.RecipeID, err)
		}
		if step.StepNumber <= 0 {
			var last int
			if err := tx.Model(&models.ProcessStep{}).Where("recipe_id = ?", step.RecipeID).
				Select("COALESCE(MAX(step_number), 0)").Scan(&last).Error; err != nil {
				return apperrors.Persistence("number recipe step", err)
			}
			step.StepNumber = last + 1
		}
		if err := tx.Create(&step).Error; err != nil {
			return apperrors.Persistence("create recipe step", err)
		}
		return nil
	})
	if err != nil {
		return models.ProcessStep{}, err
	}
	return step, nil
}

// UpdateStep rewrites a step of a recipe. A zero step number keeps the
// current position.
func (s *Store) UpdateStep(ctx context.Context, step models.ProcessStep) (models.ProcessStep, error) {
	if strings.TrimSpace(step.Title) == "" {
		return models.ProcessStep{}, &apperrors.InvalidRecipeError{RecipeID: step.RecipeID, Reason: "step title is required"}
	}

	var current models.ProcessStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", step.RecipeID).First(&current, step.ID).Error; err != nil {
			return apperrors.Lookup("recipe step", step.ID, err)
		}
		current.Title = step.Title
		current.Description = step.Description
		current.EstimatedTime = step.EstimatedTime
		if step.StepNumber > 0 {
			current.StepNumber = step.StepNumber
		}
		if err := tx.Save(&current).Error; err != nil {
			return apperrors.Persistence("update recipe step", err)
		}
		return nil
	})
	if err != nil {
		return models.ProcessStep{}, err
	}
	return current, nil
}

// DeleteStep removes a step from a recipe. Remaining steps keep their numbers.
func (s *Store) DeleteStep(ctx context.Context, recipeID, stepID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND recipe_id = ?", stepID, recipeID).
		Delete(&models.ProcessStep{})
	if result.Error != nil {
		return apperrors.Persistence("delete recipe step", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.NotFoundError{Entity: "recipe step", ID: stepID}
	}
	return nil
}

// UsingIngredient lists the recipes that call for an ingredient.
func (s *Store) UsingIngredient(ctx context.Context, ingredientID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	sub := s.db.Model(&models.RecipeIngredient{}).Select("recipe_id").Where("ingredient_id = ?", ingredientID)
	if err := s.db.WithContext(ctx).Where("id IN (?)", sub).Order("name").Find(&recipes).Error; err != nil {
		return nil, apperrors.Persistence("list recipes by ingredient", err)
	}
	return recipes, nil
}

func validateRecipe(r *models.Recipe) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return &apperrors.InvalidRecipeError{RecipeID: r.ID, Reason: "name is required"}
	}
	if !r.BaseQuantity.IsPositive() {
		return &apperrors.InvalidRecipeError{RecipeID: r.ID, Reason: "base quantity must be greater than zero"}
	}
	if strings.TrimSpace(r.BaseUnit) == "" {
		return &apperrors.InvalidRecipeError{RecipeID: r.ID, Reason: "base unit is required"}
	}
	return nil
}

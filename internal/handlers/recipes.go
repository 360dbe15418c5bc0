package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"bakeline/models"
)

type recipeRequest struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	BaseQuantity  decimal.Decimal `json:"base_quantity"`
	BaseUnit      string          `json:"base_unit"`
	EstimatedTime int             `json:"estimated_time"`
	Active        *bool           `json:"active"`
}

func (req recipeRequest) model() models.Recipe {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return models.Recipe{
		Name:          req.Name,
		Category:      req.Category,
		BaseQuantity:  req.BaseQuantity,
		BaseUnit:      req.BaseUnit,
		EstimatedTime: req.EstimatedTime,
		Active:        active,
	}
}

type recipeIngredientRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

type stepRequest struct {
	StepNumber    int    `json:"step_number"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimated_time"`
}

// ListRecipes returns active recipes unless ?all=true.
func (a *API) ListRecipes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	recipes, err := a.production.Recipes().List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (a *API) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipe := req.model()
	if err := a.production.Recipes().Create(r.Context(), &recipe); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (a *API) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recipe, err := a.production.Recipes().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (a *API) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipe := req.model()
	recipe.ID = id
	updated, err := a.production.Recipes().Update(r.Context(), recipe)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.Recipes().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) RecipeIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lines, err := a.production.Recipes().Ingredients(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (a *API) AddRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recipeIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	line, err := a.production.Recipes().AddIngredient(r.Context(), models.RecipeIngredient{
		RecipeID:     id,
		IngredientID: req.IngredientID,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (a *API) UpdateRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ingredientID, err := pathID(r, "ingredientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recipeIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	line, err := a.production.Recipes().UpdateIngredient(r.Context(), id, ingredientID, req.Quantity, req.Unit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (a *API) RemoveRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ingredientID, err := pathID(r, "ingredientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.Recipes().RemoveIngredient(r.Context(), id, ingredientID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) RecipeSteps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	steps, err := a.production.Recipes().Steps(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func (a *API) AddRecipeStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	step, err := a.production.Recipes().AddStep(r.Context(), models.ProcessStep{
		RecipeID:      id,
		StepNumber:    req.StepNumber,
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (a *API) UpdateRecipeStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stepID, err := pathID(r, "stepID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	step, err := a.production.Recipes().UpdateStep(r.Context(), models.ProcessStep{
		ID:            stepID,
		RecipeID:      id,
		StepNumber:    req.StepNumber,
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (a *API) DeleteRecipeStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stepID, err := pathID(r, "stepID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.Recipes().DeleteStep(r.Context(), id, stepID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) ScaleRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quantity, err := queryDecimal(r, "quantity")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reqs, err := a.production.ScaleRecipe(r.Context(), id, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// RecipeAvailability always answers 200; shortfalls are part of the report.
func (a *API) RecipeAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quantity, err := queryDecimal(r, "quantity")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := a.production.CheckAvailability(r.Context(), id, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

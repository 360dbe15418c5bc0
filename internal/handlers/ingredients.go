package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bakeline/internal/inventory"
	"bakeline/models"
)

type ingredientRequest struct {
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	MinStock        decimal.Decimal `json:"min_stock"`
	AlertPercentage int             `json:"alert_percentage"`
}

func (req ingredientRequest) model() models.Ingredient {
	return models.Ingredient{
		Name:            req.Name,
		Unit:            req.Unit,
		CurrentStock:    req.CurrentStock,
		MinStock:        req.MinStock,
		AlertPercentage: req.AlertPercentage,
	}
}

type stockRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Op     string          `json:"op"`
}

func (a *API) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := a.production.Ledger().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (a *API) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ing := req.model()
	if err := a.production.Ledger().Create(r.Context(), &ing); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ing)
}

func (a *API) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ing, err := a.production.Ledger().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

// UpdateIngredient changes descriptive fields only. Stock moves go through
// AdjustStock.
func (a *API) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ing := req.model()
	ing.ID = id
	updated, err := a.production.Ledger().Update(r.Context(), ing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.Ledger().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	op, err := inventory.ParseOp(req.Op)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ing, err := a.production.AdjustStock(r.Context(), id, req.Amount, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

func (a *API) LowStock(w http.ResponseWriter, r *http.Request) {
	ingredients, err := a.production.LowStockReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// IngredientUsage defaults to the last 30 days.
func (a *API) IngredientUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := queryRange(r, 30*24*time.Hour)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := a.production.IngredientUsage(r.Context(), id, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) IngredientRecipes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.production.Ledger().Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	recipes, err := a.production.Recipes().UsingIngredient(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

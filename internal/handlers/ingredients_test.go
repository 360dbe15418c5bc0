package handlers

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"bakeline/internal/production"
	"bakeline/models"
)

func TestIngredientCRUD(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("POST /api/ingredients", env.api.CreateIngredient)
	env.handle("GET /api/ingredients/{id}", env.api.GetIngredient)
	env.handle("PUT /api/ingredients/{id}", env.api.UpdateIngredient)
	env.handle("DELETE /api/ingredients/{id}", env.api.DeleteIngredient)

	w := env.do(t, http.MethodPost, "/api/ingredients", map[string]any{
		"name": "Huevos", "unit": "ud", "current_stock": "120", "min_stock": "30", "alert_percentage": 20,
	})
	expectStatus(t, w, http.StatusCreated)
	var created models.Ingredient
	decodeBody(t, w, &created)
	if created.ID == 0 || !created.CurrentStock.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("created = %+v", created)
	}

	w = env.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "Harina", "unit": "kg"})
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "Nata", "unit": "L", "current_stock": "-2"})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPut, "/api/ingredients/7", map[string]any{
		"name": "Huevos camperos", "unit": "ud", "current_stock": "0", "min_stock": "40", "alert_percentage": 10,
	})
	expectStatus(t, w, http.StatusOK)
	var updated models.Ingredient
	decodeBody(t, w, &updated)
	if updated.Name != "Huevos camperos" || !updated.CurrentStock.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("update must not touch stock: %+v", updated)
	}

	w = env.do(t, http.MethodDelete, "/api/ingredients/1", nil)
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodDelete, "/api/ingredients/7", nil)
	expectStatus(t, w, http.StatusNoContent)

	w = env.do(t, http.MethodGet, "/api/ingredients/7", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("POST /api/ingredients/{id}/stock", env.api.AdjustStock)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		want   string
	}{
		{"add", map[string]any{"amount": "2.5", "op": "add"}, http.StatusOK, "17.5"},
		{"subtract", map[string]any{"amount": 0.25, "op": "SUBTRACT"}, http.StatusOK, "17.25"},
		{"set", map[string]any{"amount": "40", "op": "set"}, http.StatusOK, "40"},
		{"negative", map[string]any{"amount": "-1", "op": "add"}, http.StatusBadRequest, ""},
		{"unknown op", map[string]any{"amount": "1", "op": "multiply"}, http.StatusBadRequest, ""},
	}

	// Cases share one ingredient and run in order.
	for _, tt := range tests {
		w := env.do(t, http.MethodPost, "/api/ingredients/1/stock", tt.body)
		expectStatus(t, w, tt.status)
		if tt.want == "" {
			continue
		}
		var ing models.Ingredient
		decodeBody(t, w, &ing)
		if !ing.CurrentStock.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("%s: current_stock = %s, want %s", tt.name, ing.CurrentStock, tt.want)
		}
	}

	w := env.do(t, http.MethodPost, "/api/ingredients/99/stock", map[string]any{"amount": "1", "op": "add"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestLowStock(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("GET /api/ingredients/low-stock", env.api.LowStock)

	w := env.do(t, http.MethodGet, "/api/ingredients/low-stock", nil)
	expectStatus(t, w, http.StatusOK)

	var low []models.Ingredient
	decodeBody(t, w, &low)
	if len(low) != 2 || low[0].Name != "Azúcar" || low[1].Name != "Levadura" {
		t.Fatalf("low stock = %+v", low)
	}
}

func TestIngredientUsageAndRecipes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("GET /api/ingredients/{id}/usage", env.api.IngredientUsage)
	env.handle("GET /api/ingredients/{id}/recipes", env.api.IngredientRecipes)

	ctx := t.Context()
	svc := production.NewService(env.db, production.Options{RecheckOnStart: true})
	batch, err := svc.CreateBatch(ctx, production.CreateBatchRequest{
		RecipeID: 1, OperatorID: 1, LineID: 1, Quantity: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if _, err := svc.Transition(ctx, batch.ID, production.EventStart); err != nil {
		t.Fatalf("Transition(start) error = %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/ingredients/1/usage", nil)
	expectStatus(t, w, http.StatusOK)
	var usage []production.UsageRecord
	decodeBody(t, w, &usage)
	if len(usage) != 1 || usage[0].BatchNumber != batch.BatchNumber || !usage[0].UsedQuantity.Decimal.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("usage = %+v", usage)
	}

	w = env.do(t, http.MethodGet, "/api/ingredients/1/usage?from=2000-01-01&to=2000-01-02", nil)
	expectStatus(t, w, http.StatusOK)
	decodeBody(t, w, &usage)
	if len(usage) != 0 {
		t.Fatalf("usage outside range = %+v", usage)
	}

	w = env.do(t, http.MethodGet, "/api/ingredients/1/usage?from=not-a-date", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodGet, "/api/ingredients/4/recipes", nil)
	expectStatus(t, w, http.StatusOK)
	var recipes []models.Recipe
	decodeBody(t, w, &recipes)
	if len(recipes) != 2 {
		t.Fatalf("recipes using Levadura = %d, want 2", len(recipes))
	}

	w = env.do(t, http.MethodGet, "/api/ingredients/42/recipes", nil)
	expectStatus(t, w, http.StatusNotFound)
}

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bakeline/internal/handlers"
	applog "bakeline/internal/log"
)

const requestIDHeader = "X-Request-ID"

type route struct {
	pattern   string
	handler   http.HandlerFunc
	protected bool
}

// newRouter registers the JSON API. Reads are open so the floor displays can
// poll without signing in; every write needs an operator session.
func newRouter(api *handlers.API) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	routes := []route{
		{pattern: "GET /healthz", handler: handlers.Health},
		{pattern: "POST /login", handler: api.Login},
		{pattern: "POST /logout", handler: api.Logout},
		{pattern: "GET /me", handler: api.Me},

		{pattern: "GET /api/dashboard", handler: api.Dashboard},

		{pattern: "GET /api/ingredients", handler: api.ListIngredients},
		{pattern: "POST /api/ingredients", handler: api.CreateIngredient, protected: true},
		{pattern: "GET /api/ingredients/low-stock", handler: api.LowStock},
		{pattern: "GET /api/ingredients/{id}", handler: api.GetIngredient},
		{pattern: "PUT /api/ingredients/{id}", handler: api.UpdateIngredient, protected: true},
		{pattern: "DELETE /api/ingredients/{id}", handler: api.DeleteIngredient, protected: true},
		{pattern: "POST /api/ingredients/{id}/stock", handler: api.AdjustStock, protected: true},
		{pattern: "GET /api/ingredients/{id}/usage", handler: api.IngredientUsage},
		{pattern: "GET /api/ingredients/{id}/recipes", handler: api.IngredientRecipes},

		{pattern: "GET /api/recipes", handler: api.ListRecipes},
		{pattern: "POST /api/recipes", handler: api.CreateRecipe, protected: true},
		{pattern: "GET /api/recipes/{id}", handler: api.GetRecipe},
		{pattern: "PUT /api/recipes/{id}", handler: api.UpdateRecipe, protected: true},
		{pattern: "DELETE /api/recipes/{id}", handler: api.DeleteRecipe, protected: true},
		{pattern: "GET /api/recipes/{id}/ingredients", handler: api.RecipeIngredients},
		{pattern: "POST /api/recipes/{id}/ingredients", handler: api.AddRecipeIngredient, protected: true},
		{pattern: "PUT /api/recipes/{id}/ingredients/{ingredientID}", handler: api.UpdateRecipeIngredient, protected: true},
		{pattern: "DELETE /api/recipes/{id}/ingredients/{ingredientID}", handler: api.RemoveRecipeIngredient, protected: true},
		{pattern: "GET /api/recipes/{id}/steps", handler: api.RecipeSteps},
		{pattern: "POST /api/recipes/{id}/steps", handler: api.AddRecipeStep, protected: true},
		{pattern: "PUT /api/recipes/{id}/steps/{stepID}", handler: api.UpdateRecipeStep, protected: true},
		{pattern: "DELETE /api/recipes/{id}/steps/{stepID}", handler: api.DeleteRecipeStep, protected: true},
		{pattern: "GET /api/recipes/{id}/scale", handler: api.ScaleRecipe},
		{pattern: "GET /api/recipes/{id}/availability", handler: api.RecipeAvailability},

		{pattern: "GET /api/operators", handler: api.ListOperators},
		{pattern: "POST /api/operators", handler: api.CreateOperator, protected: true},
		{pattern: "PUT /api/operators/{id}", handler: api.UpdateOperator, protected: true},
		{pattern: "DELETE /api/operators/{id}", handler: api.DeleteOperator, protected: true},
		{pattern: "GET /api/lines", handler: api.ListLines},
		{pattern: "POST /api/lines", handler: api.CreateLine, protected: true},
		{pattern: "PUT /api/lines/{id}", handler: api.UpdateLine, protected: true},
		{pattern: "DELETE /api/lines/{id}", handler: api.DeleteLine, protected: true},

		{pattern: "GET /api/batches", handler: api.ListBatches},
		{pattern: "POST /api/batches", handler: api.CreateBatch, protected: true},
		{pattern: "GET /api/batches/{id}", handler: api.GetBatch},
		{pattern: "DELETE /api/batches/{id}", handler: api.DeleteBatch, protected: true},
		{pattern: "POST /api/batches/{id}/transitions", handler: api.TransitionBatch, protected: true},
		{pattern: "POST /api/batches/{id}/progress", handler: api.SetBatchProgress, protected: true},
		{pattern: "PUT /api/batches/{id}/conditions", handler: api.RecordBatchConditions, protected: true},
		{pattern: "GET /api/batches/{id}/events", handler: api.BatchEvents},
		{pattern: "POST /api/batches/{id}/events", handler: api.AddBatchNote, protected: true},
		{pattern: "DELETE /api/batches/{id}/events/{eventID}", handler: api.DeleteBatchEvent, protected: true},
		{pattern: "GET /api/batches/{id}/quality-checks", handler: api.BatchQualityChecks},
		{pattern: "POST /api/batches/{id}/quality-checks", handler: api.AddBatchQualityCheck, protected: true},
		{pattern: "GET /api/batches/{id}/ingredients", handler: api.BatchIngredients},
		{pattern: "PUT /api/batches/{id}/ingredients/{ingredientID}", handler: api.RecordBatchIngredientUsage, protected: true},

		{pattern: "POST /api/restock/import", handler: api.ImportRestock, protected: true},
	}

	for _, rt := range routes {
		var h http.Handler = rt.handler
		if rt.protected {
			h = api.RequireOperator(h)
		}
		mux.Handle(rt.pattern, h)
		applog.Debug(context.Background(), "route registered", "pattern", rt.pattern, "protected", rt.protected)
	}
	return mux
}

// withRequestID tags each request with an id, reusing the caller's
// X-Request-ID when present.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := applog.WithRequestID(r.Context(), id)
		applog.Debug(ctx, "request received", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakeline/internal/apperrors"
	"bakeline/internal/db/mock"
	"bakeline/models"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newLedger(t *testing.T, ingredients ...*models.Ingredient) *Ledger {
	t.Helper()

	database, err := mock.NewEmpty(context.Background())
	require.NoError(t, err)

	ledger := NewLedger(database)
	for _, ing := range ingredients {
		require.NoError(t, ledger.Create(context.Background(), ing))
	}
	return ledger
}

func TestParseOp(t *testing.T) {
	for input, want := range map[string]Op{"add": OpAdd, " Subtract ": OpSubtract, "SET": OpSet} {
		got, err := ParseOp(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseOp("multiply")
	assert.Error(t, err)
}

func TestLedgerAddSubtractSet(t *testing.T) {
	harina := &models.Ingredient{Name: "Harina", CurrentStock: d("15"), Unit: "kg", MinStock: d("5")}
	ledger := newLedger(t, harina)
	ctx := context.Background()

	ing, err := ledger.Subtract(ctx, harina.ID, d("12"))
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(d("3")), "got %s", ing.CurrentStock)

	ing, err = ledger.Add(ctx, harina.ID, d("0.1"))
	require.NoError(t, err)
	ing, err = ledger.Add(ctx, harina.ID, d("0.2"))
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(d("3.3")), "got %s", ing.CurrentStock)

	ing, err = ledger.Set(ctx, harina.ID, d("42.5"))
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(d("42.5")), "got %s", ing.CurrentStock)

	reloaded, err := ledger.Get(ctx, harina.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CurrentStock.Equal(d("42.5")), "got %s", reloaded.CurrentStock)
}

func TestLedgerSubtractMayGoNegative(t *testing.T) {
	sal := &models.Ingredient{Name: "Sal", CurrentStock: d("1"), Unit: "kg"}
	ledger := newLedger(t, sal)

	ing, err := ledger.Subtract(context.Background(), sal.ID, d("2.5"))
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(d("-1.5")), "got %s", ing.CurrentStock)
	assert.True(t, IsLow(ing))
}

func TestLedgerRejectsBadInput(t *testing.T) {
	sal := &models.Ingredient{Name: "Sal", CurrentStock: d("1"), Unit: "kg"}
	ledger := newLedger(t, sal)
	ctx := context.Background()

	_, err := ledger.Add(ctx, sal.ID, d("-1"))
	var qty *apperrors.InvalidQuantityError
	require.True(t, errors.As(err, &qty), "got %v", err)

	_, err = ledger.Apply(ctx, sal.ID, d("1"), Op("divide"))
	require.True(t, errors.As(err, &qty), "got %v", err)

	for _, op := range []Op{OpAdd, OpSubtract, OpSet} {
		_, err = ledger.Apply(ctx, 9999, d("1"), op)
		assert.True(t, apperrors.IsNotFound(err), "%s: got %v", op, err)
	}
}

func TestLedgerConcurrentAddsAreNotLost(t *testing.T) {
	azucar := &models.Ingredient{Name: "Azúcar", CurrentStock: d("0"), Unit: "kg"}
	ledger := newLedger(t, azucar)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Add(ctx, azucar.ID, d("0.5"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ing, err := ledger.Get(ctx, azucar.ID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(d("10")), "got %s", ing.CurrentStock)
}

func TestLedgerSnapshotReadsRequestedRows(t *testing.T) {
	harina := &models.Ingredient{Name: "Harina", CurrentStock: d("15"), Unit: "kg"}
	agua := &models.Ingredient{Name: "Agua", CurrentStock: d("50"), Unit: "L"}
	ledger := newLedger(t, harina, agua)

	snap, err := ledger.Snapshot(context.Background(), []uint{harina.ID, 9999})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "Harina", snap[harina.ID].Name)

	empty, err := ledger.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerCatalogOperations(t *testing.T) {
	harina := &models.Ingredient{Name: "Harina", CurrentStock: d("15"), Unit: "kg"}
	ledger := newLedger(t, harina)
	ctx := context.Background()

	err := ledger.Create(ctx, &models.Ingredient{Name: " Harina ", Unit: "kg"})
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)

	err = ledger.Create(ctx, &models.Ingredient{Name: "Miel", Unit: "kg", AlertPercentage: 150})
	var qty *apperrors.InvalidQuantityError
	require.True(t, errors.As(err, &qty), "got %v", err)

	err = ledger.Create(ctx, &models.Ingredient{Name: "Miel", Unit: "kg", CurrentStock: d("-5")})
	require.True(t, errors.As(err, &qty), "got %v", err)
	assert.Equal(t, "current_stock", qty.Field)
	_, err = ledger.FindByName(ctx, "Miel")
	assert.True(t, apperrors.IsNotFound(err), "rejected ingredient must not be stored, got %v", err)

	updated, err := ledger.Update(ctx, models.Ingredient{ID: harina.ID, Name: "Harina 000", Unit: "kg", MinStock: d("4"), AlertPercentage: 25, CurrentStock: d("999")})
	require.NoError(t, err)
	assert.Equal(t, "Harina 000", updated.Name)
	assert.True(t, updated.CurrentStock.Equal(d("15")), "update must not touch stock, got %s", updated.CurrentStock)

	found, err := ledger.FindByName(ctx, "Harina 000")
	require.NoError(t, err)
	assert.Equal(t, harina.ID, found.ID)

	_, err = ledger.Update(ctx, models.Ingredient{ID: 9999, Name: "Nada", Unit: "kg"})
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	require.NoError(t, ledger.Delete(ctx, harina.ID))
	assert.True(t, apperrors.IsNotFound(ledger.Delete(ctx, harina.ID)))
}

func TestLedgerDeleteRefusesReferencedIngredient(t *testing.T) {
	harina := &models.Ingredient{Name: "Harina", CurrentStock: d("15"), Unit: "kg"}
	ledger := newLedger(t, harina)
	ctx := context.Background()

	r := models.Recipe{Name: "Pan", BaseQuantity: d("10"), BaseUnit: "kg", Active: true,
		Ingredients: []models.RecipeIngredient{{IngredientID: harina.ID, Quantity: d("6"), Unit: "kg"}}}
	require.NoError(t, ledger.db.Create(&r).Error)

	err := ledger.Delete(ctx, harina.ID)
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
}

func TestLedgerLowStockScenario(t *testing.T) {
	ledger := newLedger(t,
		&models.Ingredient{Name: "Azúcar", CurrentStock: d("21"), Unit: "kg", MinStock: d("20"), AlertPercentage: 10},
		&models.Ingredient{Name: "Harina", CurrentStock: d("23"), Unit: "kg", MinStock: d("20"), AlertPercentage: 10},
		&models.Ingredient{Name: "Agua", CurrentStock: d("22"), Unit: "L", MinStock: d("20"), AlertPercentage: 10},
		&models.Ingredient{Name: "Sal", CurrentStock: d("0.5"), Unit: "kg", MinStock: d("0.5"), AlertPercentage: 0},
	)

	low, err := ledger.LowStock(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(low))
	for _, ing := range low {
		names = append(names, ing.Name)
	}
	assert.Equal(t, []string{"Agua", "Azúcar", "Sal"}, names)

	all, err := ledger.List(context.Background())
	require.NoError(t, err)
	scanned := ScanLowStock(all)
	require.Len(t, scanned, len(low))
	for i := range low {
		assert.Equal(t, low[i].ID, scanned[i].ID)
	}
}

package production

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bakeline/internal/db/mock"
	"bakeline/models"
)

var fixedNow = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	harina   models.Ingredient
	agua     models.Ingredient
	pan      models.Recipe
	operator models.Operator
	line     models.ProductionLine
}

// newFixture builds Pan Blanco (base 10 kg: Harina 6 kg, Agua 3.5 L) with the
// given flour stock and plenty of water.
func newFixture(t *testing.T, harinaStock string, opts Options) *fixture {
	t.Helper()

	database, err := mock.NewEmpty(context.Background())
	require.NoError(t, err)

	f := &fixture{db: database}
	f.harina = models.Ingredient{Name: "Harina", CurrentStock: d(harinaStock), Unit: "kg", MinStock: d("5"), AlertPercentage: 10}
	f.agua = models.Ingredient{Name: "Agua", CurrentStock: d("100"), Unit: "L", MinStock: d("10"), AlertPercentage: 10}
	require.NoError(t, database.Create(&f.harina).Error)
	require.NoError(t, database.Create(&f.agua).Error)

	f.pan = models.Recipe{
		Name: "Pan Blanco", BaseQuantity: d("10"), BaseUnit: "kg", EstimatedTime: 180, Active: true,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: f.harina.ID, Quantity: d("6"), Unit: "kg"},
			{IngredientID: f.agua.ID, Quantity: d("3.5"), Unit: "L"},
		},
	}
	require.NoError(t, database.Create(&f.pan).Error)

	f.operator = models.Operator{Name: "María López", Active: true}
	require.NoError(t, database.Create(&f.operator).Error)
	f.line = models.ProductionLine{Name: "Línea 1", Active: true}
	require.NoError(t, database.Create(&f.line).Error)

	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	f.svc = NewService(database, opts)
	return f
}

func (f *fixture) request(quantity string) CreateBatchRequest {
	return CreateBatchRequest{
		RecipeID:   f.pan.ID,
		OperatorID: f.operator.ID,
		LineID:     f.line.ID,
		Quantity:   d(quantity),
	}
}

func (f *fixture) stock(t *testing.T, id uint) decimal.Decimal {
	t.Helper()

	ing, err := f.svc.Ledger().Get(context.Background(), id)
	require.NoError(t, err)
	return ing.CurrentStock
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakeline/internal/config"
	"bakeline/internal/db"
	"bakeline/models"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCommandOutput(t *testing.T) {
	tests := []struct {
		golden string
		args   []string
	}{
		{"scale_text", []string{"--mock", "scale", "1", "20"}},
		{"scale_json", []string{"--mock", "--format", "json", "scale", "1", "20"}},
		{"check_available_json", []string{"--mock", "--format", "json", "check", "2", "5"}},
		{"lowstock_text", []string{"--mock", "lowstock"}},
		{"lowstock_json", []string{"--mock", "--format", "json", "lowstock"}},
		{"stock_add_text", []string{"--mock", "stock", "4", "add", "2.5"}},
		{"stock_subtract_text", []string{"--mock", "stock", "1", "subtract", "9.5"}},
	}

	g := newGoldie(t)
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			g.Assert(t, tt.golden, []byte(out))
		})
	}
}

func TestCheckUnavailableExitsWithFailure(t *testing.T) {
	out, err := execute(t, "--mock", "check", "1", "100")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.EqualError(t, err, "insufficient stock")

	newGoldie(t).Assert(t, "check_unavailable_text", []byte(out))
}

func TestSeedFixture(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "bakery.db")
	g := newGoldie(t)

	out, err := execute(t, "--db", url, "seed", "testdata/bakery.yaml")
	require.NoError(t, err)
	g.Assert(t, "seed_text", []byte(out))

	out, err = execute(t, "--db", url, "lowstock")
	require.NoError(t, err)
	g.Assert(t, "seeded_lowstock_text", []byte(out))

	out, err = execute(t, "--db", url, "check", "1", "10")
	require.NoError(t, err)
	g.Assert(t, "seeded_check_text", []byte(out))
}

func TestSeedRollsBackOnError(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "bakery.db")

	_, err := execute(t, "--db", url, "seed", "testdata/bakery.yaml")
	require.NoError(t, err)

	// The ingredient names already exist, so nothing from the second run lands.
	_, err = execute(t, "--db", url, "seed", "testdata/bakery.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "--db", url, "--format", "json", "lowstock")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"id":2,"name":"Mantequilla","current_stock":"1.00","threshold":"2.50","unit":"kg"}]}`+"\n", out)
}

func TestSeedRejectsMissingFile(t *testing.T) {
	_, err := execute(t, "--mock", "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

// seedBatches loads the fixture and adds three batches on consecutive days.
func seedBatches(t *testing.T) string {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "bakery.db")

	_, err := execute(t, "--db", url, "seed", "testdata/bakery.yaml")
	require.NoError(t, err)

	database, err := db.Configure(config.DatabaseConfig{URL: url})
	require.NoError(t, err)
	defer db.Close(database)

	for _, b := range []struct {
		number   string
		status   models.ProcessStatus
		quantity string
		start    time.Time
	}{
		{"B-0001", models.StatusPending, "10", time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)},
		{"B-0002", models.StatusCompleted, "5", time.Date(2024, 3, 2, 7, 30, 0, 0, time.UTC)},
		{"B-0003", models.StatusInProgress, "7.5", time.Date(2024, 3, 3, 5, 15, 0, 0, time.UTC)},
	} {
		batch := models.ProductionProcess{
			BatchNumber: b.number,
			RecipeID:    1,
			OperatorID:  1,
			LineID:      1,
			Quantity:    decimal.RequireFromString(b.quantity),
			Unit:        "kg",
			StartTime:   b.start,
			Status:      b.status,
			Priority:    models.PriorityNormal,
		}
		require.NoError(t, database.Create(&batch).Error)
	}
	return url
}

func TestBatchesCommand(t *testing.T) {
	url := seedBatches(t)
	g := newGoldie(t)

	out, err := execute(t, "--db", url, "batches")
	require.NoError(t, err)
	g.Assert(t, "batches_text", []byte(out))

	out, err = execute(t, "--db", url, "batches", "--active")
	require.NoError(t, err)
	g.Assert(t, "batches_active_text", []byte(out))

	out, err = execute(t, "--db", url, "--format", "json", "batches", "--from", "2024-03-01", "--to", "2024-03-02")
	require.NoError(t, err)
	g.Assert(t, "batches_range_json", []byte(out))

	out, err = execute(t, "--db", url, "batches", "--from", "2024-04-01", "--to", "2024-04-30")
	require.NoError(t, err)
	assert.Equal(t, "no batches\n", out)
}

func TestBatchesCommandRejectsBadRanges(t *testing.T) {
	for _, args := range [][]string{
		{"--mock", "batches", "--active", "--from", "2024-03-01", "--to", "2024-03-02"},
		{"--mock", "batches", "--from", "2024-03-01"},
		{"--mock", "batches", "--from", "01/03/2024", "--to", "2024-03-02"},
		{"--mock", "batches", "--from", "2024-03-02", "--to", "2024-03-01"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitCommandError, GetExitCode(err), "%v", args)
	}
}

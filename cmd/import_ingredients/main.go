package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	"bakeline/internal/config"
	"bakeline/internal/db"
	"bakeline/internal/inventory"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// headerAliases maps accepted column titles onto canonical keys.
var headerAliases = map[string]string{
	"name":              "name",
	"nombre":            "name",
	"ingrediente":       "name",
	"unit":              "unit",
	"unidad":            "unit",
	"current_stock":     "current_stock",
	"stock":             "current_stock",
	"stock_actual":      "current_stock",
	"min_stock":         "min_stock",
	"stock_minimo":      "min_stock",
	"stock_mínimo":      "min_stock",
	"alert_percentage":  "alert_percentage",
	"alerta":            "alert_percentage",
	"porcentaje_alerta": "alert_percentage",
}

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(database)

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	created, updated, err := importRecords(context.Background(), database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients (%d new, %d updated) from %s\n",
		created+updated, created, updated, filepath.Base(csvPath))
	return nil
}

// importRecords upserts each row by ingredient name, one transaction per
// row. An existing ingredient keeps its id; its stock is set to the file's
// value.
func importRecords(ctx context.Context, database *gorm.DB, records []map[string]string) (int, int, error) {
	created, updated := 0, 0
	for idx, record := range records {
		ing, err := buildIngredient(record)
		if err != nil {
			return created, updated, fmt.Errorf("row %d: %w", idx+2, err)
		}

		isNew := false
		err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ledger := inventory.NewLedger(tx)

			existing, err := ledger.FindByName(ctx, ing.Name)
			if apperrors.IsNotFound(err) {
				isNew = true
				return ledger.Create(ctx, &ing)
			}
			if err != nil {
				return err
			}

			ing.ID = existing.ID
			if _, err := ledger.Update(ctx, ing); err != nil {
				return err
			}
			_, err = ledger.Set(ctx, existing.ID, ing.CurrentStock)
			return err
		})
		if err != nil {
			return created, updated, fmt.Errorf("import ingredient %q (row %d): %w", ing.Name, idx+2, err)
		}

		if isNew {
			created++
		} else {
			updated++
		}
		applog.Debug(ctx, "ingredient imported", "name", ing.Name, "new", isNew)
	}
	return created, updated, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, title := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "_")
		if canonical, ok := headerAliases[key]; ok {
			key = canonical
		}
		header[idx] = key
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		if record["name"] == "" {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func buildIngredient(row map[string]string) (models.Ingredient, error) {
	ing := models.Ingredient{
		Name: strings.TrimSpace(row["name"]),
		Unit: strings.TrimSpace(row["unit"]),
	}
	if ing.Unit == "" {
		return models.Ingredient{}, fmt.Errorf("ingredient %q has no unit", ing.Name)
	}

	var err error
	if ing.CurrentStock, err = parseQuantity(row["current_stock"]); err != nil {
		return models.Ingredient{}, fmt.Errorf("current_stock: %w", err)
	}
	if ing.MinStock, err = parseQuantity(row["min_stock"]); err != nil {
		return models.Ingredient{}, fmt.Errorf("min_stock: %w", err)
	}
	if raw := strings.TrimSuffix(strings.TrimSpace(row["alert_percentage"]), "%"); raw != "" {
		if ing.AlertPercentage, err = strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return models.Ingredient{}, fmt.Errorf("alert_percentage: %w", err)
		}
	}
	return ing, nil
}

// parseQuantity accepts "12.5" or "12,5"; blank is zero.
func parseQuantity(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	qty, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Round(2), nil
}

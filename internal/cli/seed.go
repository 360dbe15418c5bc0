package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"bakeline/internal/inventory"
	"bakeline/internal/recipe"
	"bakeline/internal/staff"
	"bakeline/models"
)

// Fixture is the YAML layout accepted by the seed command. Recipe lines
// refer to ingredients by name.
type Fixture struct {
	Ingredients []struct {
		Name            string  `yaml:"name"`
		Unit            string  `yaml:"unit"`
		Stock           float64 `yaml:"stock"`
		MinStock        float64 `yaml:"min_stock"`
		AlertPercentage int     `yaml:"alert_percentage"`
	} `yaml:"ingredients"`
	Recipes []struct {
		Name          string  `yaml:"name"`
		Category      string  `yaml:"category"`
		BaseQuantity  float64 `yaml:"base_quantity"`
		BaseUnit      string  `yaml:"base_unit"`
		EstimatedTime int     `yaml:"estimated_time"`
		Ingredients   []struct {
			Name     string  `yaml:"name"`
			Quantity float64 `yaml:"quantity"`
			Unit     string  `yaml:"unit"`
		} `yaml:"ingredients"`
		Steps []struct {
			Title         string `yaml:"title"`
			Description   string `yaml:"description"`
			EstimatedTime int    `yaml:"estimated_time"`
		} `yaml:"steps"`
	} `yaml:"recipes"`
	Operators []struct {
		Name string `yaml:"name"`
		PIN  string `yaml:"pin"`
	} `yaml:"operators"`
	Lines []string `yaml:"lines"`
}

type seedView struct {
	Ingredients int `json:"ingredients"`
	Recipes     int `json:"recipes"`
	Operators   int `json:"operators"`
	Lines       int `json:"lines"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load ingredients, recipes, operators and lines from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read fixture", err)
			}
			var fixture Fixture
			if err := yaml.Unmarshal(data, &fixture); err != nil {
				return WrapExitError(ExitCommandError, "parse fixture", err)
			}

			ctx := cmd.Context()
			database, release, err := opts.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer release()

			view, err := applyFixture(ctx, database, fixture)
			if err != nil {
				return WrapExitError(ExitCommandError, "seed", err)
			}

			return opts.formatter(cmd).Success(view, func(w io.Writer) {
				fmt.Fprintf(w, "seeded %d ingredients, %d recipes, %d operators, %d lines\n",
					view.Ingredients, view.Recipes, view.Operators, view.Lines)
			})
		},
	}
}

// applyFixture inserts the whole fixture in one transaction.
func applyFixture(ctx context.Context, database *gorm.DB, fixture Fixture) (seedView, error) {
	var view seedView
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := inventory.NewLedger(tx)
		recipes := recipe.NewStore(tx)
		people := staff.NewStore(tx)

		byName := make(map[string]uint, len(fixture.Ingredients))
		for _, item := range fixture.Ingredients {
			ing := models.Ingredient{
				Name:            item.Name,
				Unit:            item.Unit,
				CurrentStock:    amount(item.Stock),
				MinStock:        amount(item.MinStock),
				AlertPercentage: item.AlertPercentage,
			}
			if err := ledger.Create(ctx, &ing); err != nil {
				return fmt.Errorf("ingredient %q: %w", item.Name, err)
			}
			byName[ing.Name] = ing.ID
			view.Ingredients++
		}

		for _, item := range fixture.Recipes {
			r := models.Recipe{
				Name:          item.Name,
				Category:      item.Category,
				BaseQuantity:  amount(item.BaseQuantity),
				BaseUnit:      item.BaseUnit,
				EstimatedTime: item.EstimatedTime,
				Active:        true,
			}
			if err := recipes.Create(ctx, &r); err != nil {
				return fmt.Errorf("recipe %q: %w", item.Name, err)
			}
			for _, line := range item.Ingredients {
				ingredientID, ok := byName[line.Name]
				if !ok {
					existing, err := ledger.FindByName(ctx, line.Name)
					if err != nil {
						return fmt.Errorf("recipe %q: %w", item.Name, err)
					}
					ingredientID = existing.ID
				}
				if _, err := recipes.AddIngredient(ctx, models.RecipeIngredient{
					RecipeID:     r.ID,
					IngredientID: ingredientID,
					Quantity:     amount(line.Quantity),
					Unit:         line.Unit,
				}); err != nil {
					return fmt.Errorf("recipe %q: %w", item.Name, err)
				}
			}
			for _, step := range item.Steps {
				if _, err := recipes.AddStep(ctx, models.ProcessStep{
					RecipeID:      r.ID,
					Title:         step.Title,
					Description:   step.Description,
					EstimatedTime: step.EstimatedTime,
				}); err != nil {
					return fmt.Errorf("recipe %q: %w", item.Name, err)
				}
			}
			view.Recipes++
		}

		for _, item := range fixture.Operators {
			if _, err := people.CreateOperator(ctx, item.Name, item.PIN); err != nil {
				return fmt.Errorf("operator %q: %w", item.Name, err)
			}
			view.Operators++
		}

		for _, name := range fixture.Lines {
			if _, err := people.CreateLine(ctx, name); err != nil {
				return fmt.Errorf("line %q: %w", name, err)
			}
			view.Lines++
		}
		return nil
	})
	if err != nil {
		return seedView{}, err
	}
	return view, nil
}

func amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

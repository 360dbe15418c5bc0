package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bakeline/internal/recipe"
)

type requirementView struct {
	IngredientID uint   `json:"ingredient_id"`
	Ingredient   string `json:"ingredient"`
	Required     string `json:"required"`
	Unit         string `json:"unit"`
}

type scaleView struct {
	RecipeID uint              `json:"recipe_id"`
	Recipe   string            `json:"recipe"`
	Quantity string            `json:"quantity"`
	Unit     string            `json:"unit"`
	Factor   string            `json:"factor"`
	Lines    []requirementView `json:"lines"`
}

// NewScaleCommand creates the scale command.
func NewScaleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scale <recipe-id> <quantity>",
		Short: "Print the ingredients a batch of the given size needs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, release, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer release()

			r, err := svc.Recipes().Get(ctx, recipeID)
			if err != nil {
				return WrapExitError(ExitCommandError, "scale recipe", err)
			}
			factor, err := recipe.Factor(r, quantity)
			if err != nil {
				return WrapExitError(ExitCommandError, "scale recipe", err)
			}
			reqs, err := recipe.Scale(r, r.Ingredients, quantity)
			if err != nil {
				return WrapExitError(ExitCommandError, "scale recipe", err)
			}

			view := scaleView{
				RecipeID: r.ID,
				Recipe:   r.Name,
				Quantity: fixed(quantity),
				Unit:     r.BaseUnit,
				Factor:   fixed(factor),
				Lines:    make([]requirementView, 0, len(reqs)),
			}
			for _, req := range reqs {
				view.Lines = append(view.Lines, requirementView{
					IngredientID: req.IngredientID,
					Ingredient:   req.IngredientName,
					Required:     fixed(req.Required),
					Unit:         req.Unit,
				})
			}

			return opts.formatter(cmd).Success(view, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s %s (factor %s)\n", view.Recipe, view.Quantity, view.Unit, view.Factor)
				for _, line := range view.Lines {
					row(w, "  %-14s %10s %s", line.Ingredient, line.Required, line.Unit)
				}
			})
		},
	}
}

type availabilityLineView struct {
	IngredientID uint   `json:"ingredient_id"`
	Ingredient   string `json:"ingredient"`
	Required     string `json:"required"`
	InStock      string `json:"in_stock"`
	Unit         string `json:"unit"`
	Available    bool   `json:"available"`
	Short        string `json:"short,omitempty"`
}

type availabilityView struct {
	RecipeID  uint                   `json:"recipe_id"`
	Recipe    string                 `json:"recipe"`
	Quantity  string                 `json:"quantity"`
	Unit      string                 `json:"unit"`
	Available bool                   `json:"available"`
	Lines     []availabilityLineView `json:"lines"`
}

// NewCheckCommand creates the check command. It exits with ExitFailure when
// stock does not cover the batch.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <recipe-id> <quantity>",
		Short: "Check whether current stock covers a batch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, release, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer release()

			r, err := svc.Recipes().Get(ctx, recipeID)
			if err != nil {
				return WrapExitError(ExitCommandError, "check availability", err)
			}
			report, err := svc.CheckAvailability(ctx, recipeID, quantity)
			if err != nil {
				return WrapExitError(ExitCommandError, "check availability", err)
			}

			view := availabilityView{
				RecipeID:  r.ID,
				Recipe:    r.Name,
				Quantity:  fixed(quantity),
				Unit:      r.BaseUnit,
				Available: report.Available,
				Lines:     make([]availabilityLineView, 0, len(report.Lines)),
			}
			for _, line := range report.Lines {
				lv := availabilityLineView{
					IngredientID: line.IngredientID,
					Ingredient:   line.Name,
					Required:     fixed(line.Required),
					InStock:      fixed(line.Current),
					Unit:         line.Unit,
					Available:    line.Available,
				}
				if !line.Available {
					lv.Short = fixed(line.Required.Sub(line.Current))
				}
				view.Lines = append(view.Lines, lv)
			}

			err = opts.formatter(cmd).Success(view, func(w io.Writer) {
				verdict := "available"
				if !view.Available {
					verdict = "NOT AVAILABLE"
				}
				fmt.Fprintf(w, "%s %s %s: %s\n", view.Recipe, view.Quantity, view.Unit, verdict)
				row(w, "  %-14s %10s %10s %s", "INGREDIENT", "REQUIRED", "IN STOCK", "UNIT")
				for _, line := range view.Lines {
					short := ""
					if line.Short != "" {
						short = "short " + line.Short
					}
					row(w, "  %-14s %10s %10s %-4s %s", line.Ingredient, line.Required, line.InStock, line.Unit, short)
				}
			})
			if err != nil {
				return err
			}
			if !view.Available {
				return NewExitError(ExitFailure, "insufficient stock")
			}
			return nil
		},
	}
}

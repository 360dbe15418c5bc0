package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bakeline/internal/inventory"
)

type stockView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	CurrentStock string `json:"current_stock"`
	Threshold    string `json:"threshold"`
	Unit         string `json:"unit"`
}

// NewLowStockCommand creates the lowstock command.
func NewLowStockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lowstock",
		Short: "List ingredients at or below their alert threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, release, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer release()

			all, err := svc.Ledger().List(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "low stock report", err)
			}
			low := inventory.ScanLowStock(all)

			views := make([]stockView, 0, len(low))
			for _, ing := range low {
				views = append(views, stockView{
					ID:           ing.ID,
					Name:         ing.Name,
					CurrentStock: fixed(ing.CurrentStock),
					Threshold:    fixed(ing.LowStockThreshold()),
					Unit:         ing.Unit,
				})
			}

			return opts.formatter(cmd).Success(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no ingredients below their alert threshold")
					return
				}
				row(w, "  %-14s %10s %10s %s", "INGREDIENT", "STOCK", "THRESHOLD", "UNIT")
				for _, v := range views {
					row(w, "  %-14s %10s %10s %s", v.Name, v.CurrentStock, v.Threshold, v.Unit)
				}
			})
		},
	}
}

// NewStockCommand creates the stock command for manual corrections.
func NewStockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <ingredient-id> <add|subtract|set> <amount>",
		Short: "Adjust the stock of an ingredient",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			op, err := inventory.ParseOp(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "adjust stock", err)
			}
			amount, err := parseQuantity(args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, release, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer release()

			ing, err := svc.AdjustStock(ctx, id, amount, op)
			if err != nil {
				return WrapExitError(ExitCommandError, "adjust stock", err)
			}

			view := stockView{
				ID:           ing.ID,
				Name:         ing.Name,
				CurrentStock: fixed(ing.CurrentStock),
				Threshold:    fixed(ing.LowStockThreshold()),
				Unit:         ing.Unit,
			}
			return opts.formatter(cmd).Success(view, func(w io.Writer) {
				line := fmt.Sprintf("%s: %s %s", view.Name, view.CurrentStock, view.Unit)
				if inventory.IsLow(ing) {
					line += " (low)"
				}
				fmt.Fprintln(w, line)
			})
		},
	}
}

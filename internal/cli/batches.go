package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"bakeline/internal/production"
	"bakeline/models"
)

const dayLayout = "2006-01-02"

type batchView struct {
	ID          uint   `json:"id"`
	BatchNumber string `json:"batch_number"`
	Recipe      string `json:"recipe"`
	Status      string `json:"status"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	StartTime   string `json:"start_time"`
}

// NewBatchesCommand creates the batches command.
func NewBatchesCommand(opts *RootOptions) *cobra.Command {
	var (
		active   bool
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List production batches, newest first",
		Long:  "List production batches. --active keeps unfinished ones; --from and --to (YYYY-MM-DD, UTC, inclusive) pick a start date range.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if active && (from != "" || to != "") {
				return NewExitError(ExitCommandError, "--active cannot be combined with --from/--to")
			}
			if (from == "") != (to == "") {
				return NewExitError(ExitCommandError, "--from and --to must be given together")
			}

			var start, end time.Time
			if from != "" {
				var err error
				if start, err = time.ParseInLocation(dayLayout, from, time.UTC); err != nil {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid --from %q: want YYYY-MM-DD", from))
				}
				if end, err = time.ParseInLocation(dayLayout, to, time.UTC); err != nil {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid --to %q: want YYYY-MM-DD", to))
				}
				end = end.Add(24*time.Hour - time.Nanosecond)
			}

			ctx := cmd.Context()
			svc, release, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer release()

			var batches []models.ProductionProcess
			switch {
			case active:
				batches, err = svc.ActiveBatches(ctx)
			case from != "":
				batches, err = svc.BatchesBetween(ctx, start, end)
			default:
				batches, err = svc.ListBatches(ctx, production.BatchFilter{})
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "list batches", err)
			}

			views := make([]batchView, 0, len(batches))
			for _, b := range batches {
				view := batchView{
					ID:          b.ID,
					BatchNumber: b.BatchNumber,
					Status:      string(b.Status),
					Quantity:    fixed(b.Quantity),
					Unit:        b.Unit,
					StartTime:   b.StartTime.UTC().Format("2006-01-02 15:04"),
				}
				if b.Recipe != nil {
					view.Recipe = b.Recipe.Name
				}
				views = append(views, view)
			}

			return opts.formatter(cmd).Success(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no batches")
					return
				}
				row(w, "  %-12s %-12s %-12s %10s %-4s %s", "BATCH", "RECIPE", "STATUS", "QUANTITY", "UNIT", "START")
				for _, v := range views {
					row(w, "  %-12s %-12s %-12s %10s %-4s %s", v.BatchNumber, v.Recipe, v.Status, v.Quantity, v.Unit, v.StartTime)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "only batches that are pending, in progress or paused")
	cmd.Flags().StringVar(&from, "from", "", "first start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last start date (YYYY-MM-DD)")
	return cmd
}

// Package cli implements bakectl, the command line companion to the
// production server.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"bakeline/internal/config"
	"bakeline/internal/db"
	"bakeline/internal/db/mock"
	applog "bakeline/internal/log"
	"bakeline/internal/production"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	DatabaseURL string
	Mock        bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for bakectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "bakectl",
		Short:         "Bakery production toolkit",
		Long:          "Scale recipes, check ingredient availability and manage stock from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			return applog.SetLevel(level)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", os.Getenv("DATABASE_URL"), "database URL (postgres://, sqlite:// or file:)")
	cmd.PersistentFlags().BoolVar(&opts.Mock, "mock", false, "use a seeded in-memory database")

	cmd.AddCommand(NewScaleCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewLowStockCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewBatchesCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// openDatabase returns the selected database and a function releasing it.
func (o *RootOptions) openDatabase(ctx context.Context) (*gorm.DB, func(), error) {
	var (
		database *gorm.DB
		err      error
	)
	switch {
	case o.Mock:
		database, err = mock.New(ctx)
	case strings.TrimSpace(o.DatabaseURL) != "":
		database, err = db.Configure(config.DatabaseConfig{URL: o.DatabaseURL})
	default:
		return nil, nil, NewExitError(ExitCommandError, "no database configured: pass --db or --mock")
	}
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}

	release := func() {
		if err := db.Close(database); err != nil {
			applog.Warn(ctx, "failed to close database", "error", err)
		}
	}
	return database, release, nil
}

func (o *RootOptions) service(ctx context.Context) (*production.Service, func(), error) {
	database, release, err := o.openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}
	return production.NewService(database, production.Options{RecheckOnStart: true}), release, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

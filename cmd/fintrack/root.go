package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// runtime carries what PersistentPreRunE prepared for the subcommands.
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
}

var errVolatileBackend = errors.New("DATA_BACKEND=memory does not keep data between commands; set DATA_BACKEND=sqlite to use this command")

// openLedger opens the configured ledger for a one-shot command. Such a
// command runs against a fresh process, so the memory backend is refused.
func (rt *runtime) openLedger(ctx context.Context, opts cli.Options) (*cli.App, error) {
	if !rt.cfg.Persistent() {
		return nil, errVolatileBackend
	}
	return cli.Open(ctx, rt.cfg, rt.logger, opts)
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance ledger",
		Long:          `fintrack records income and expenses, imports CSV and JSON files with per-row validation, and exports the ledger as CSV, JSON backups or to Google Sheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = cli.SetupLogger(cfg).WithComponent(log.ComponentCLI)
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newImportCmd(rt),
		newExportCmd(rt),
		newSummaryCmd(rt),
		newCategoriesCmd(rt),
		newEventsCmd(rt),
	)
	return root
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// formatFromPath infers the import format from the file extension.
func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return services.FormatCSV, nil
	case ".json":
		return services.FormatJSON, nil
	default:
		return "", fmt.Errorf("cannot infer format of %q, use --format csv|json", path)
	}
}

func newImportCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a CSV file or a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				f, err := formatFromPath(path)
				if err != nil {
					return err
				}
				format = f
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()

			ctx := log.NewContext(cmd.Context(), rt.logger)
			app, err := rt.openLedger(ctx, cli.Options{Publisher: true})
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Transfer.Import(ctx, format, file)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Message(rt.cfg.ErrorPreview))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (csv or json); inferred from the extension when empty")
	return cmd
}

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as CSV, a JSON backup, or to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.openLedger(ctx, cli.Options{Sheets: format == services.FormatSheets})
			if err != nil {
				return err
			}
			defer app.Close()

			var buf bytes.Buffer
			switch format {
			case services.FormatCSV:
				err = app.Transfer.ExportCSV(ctx, &buf)
				if errors.Is(err, services.ErrNothingToExport) {
					fmt.Fprintln(cmd.ErrOrStderr(), "No transactions to export.")
					return nil
				}
			case services.FormatJSON:
				err = app.Transfer.ExportJSON(ctx, &buf)
			case services.FormatSheets:
				updated, err := app.Transfer.ExportSheets(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported transactions to %s\n", updated)
				return nil
			default:
				return fmt.Errorf("%w: %q", services.ErrUnknownFormat, format)
			}
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", services.FormatJSON, "Output format: csv, json or sheets")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout when empty)")
	return cmd
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

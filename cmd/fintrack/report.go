package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
)

func newSummaryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print income, expense and balance with the expense breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.openLedger(ctx, cli.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			sum, err := app.Ledger.Summary(ctx)
			if err != nil {
				return err
			}
			breakdown, err := app.Ledger.Breakdown(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Income\t%.2f\n", sum.Income)
			fmt.Fprintf(w, "Expense\t%.2f\n", sum.Expense)
			fmt.Fprintf(w, "Balance\t%.2f\n", sum.Balance)
			if len(breakdown) > 0 {
				fmt.Fprintln(w)
				for _, b := range breakdown {
					fmt.Fprintf(w, "%s\t%.2f\n", b.Name, b.Value)
				}
			}
			return w.Flush()
		},
	}
}

func newCategoriesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.openLedger(ctx, cli.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			cats, err := app.Ledger.Categories(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLOR\tICON")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Color, c.Glyph())
			}
			return w.Flush()
		},
	}
}

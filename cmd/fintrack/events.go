package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func newEventsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow import-completed events from the message broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rt.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}

			ctx, stop := cli.SignalContext(cmd.Context(), rt.logger)
			defer stop()

			client, err := amqp.NewClient(rt.cfg.AMQPURL, rt.cfg.AMQPExchange, rt.cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			logger := rt.logger.WithComponent(log.ComponentAMQP)
			err = client.ConsumeImportCompleted(ctx, func(msg *amqp.ImportCompletedMessage) error {
				logger.InfoContext(ctx, "Import completed",
					log.NewFields().
						WithImport(msg.Format, msg.TransactionsImported, msg.CategoriesImported,
							msg.CategoriesSkipped, msg.UnresolvedCategoryRefs, msg.ErrorCount).
						ToSlice()...)
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-4s  %d transactions, %d categories, %d errors\n",
					msg.Timestamp.Format("2006-01-02 15:04:05"), msg.ImportID, msg.Format,
					msg.TransactionsImported, msg.CategoriesImported, msg.ErrorCount)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

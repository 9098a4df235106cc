package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IgorGrieder/encurtador-links/internal/events"
	"github.com/IgorGrieder/encurtador-links/internal/messaging/kafka"
)

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect link lifecycle events",
	}

	var (
		groupID string
		filter  string
	)

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print link events from Kafka as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if groupID == "" {
				groupID = c.cfg.Kafka.GroupID
			}

			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers: c.cfg.Kafka.Brokers,
				Topic:   c.cfg.Kafka.Topic,
				GroupID: groupID,
			})
			if err != nil {
				return err
			}
			defer func() { _ = consumer.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return consumer.Run(ctx, printEvents(json.NewEncoder(cmd.OutOrStdout()), filter))
		},
	}

	tail.Flags().StringVar(&groupID, "group", "", "consumer group id (defaults to KAFKA_GROUP_ID)")
	tail.Flags().StringVar(&filter, "type", "", fmt.Sprintf("only print events of this type (%s, %s, %s, %s)",
		events.TypeLinkCreated, events.TypeLinkUpdated, events.TypeLinkDeleted, events.TypeLinksExpired))

	cmd.AddCommand(tail)
	return cmd
}

func printEvents(enc *json.Encoder, filter string) kafka.Handler {
	return func(_ context.Context, ev events.LinkEvent) error {
		if filter != "" && ev.Type != filter {
			return nil
		}
		return enc.Encode(ev)
	}
}

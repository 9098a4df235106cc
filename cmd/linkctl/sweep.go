package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/messaging/kafka"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/storage/backend"
	redisStorage "github.com/IgorGrieder/encurtador-links/internal/storage/redis"
)

func (c *cli) sweepCmd() *cobra.Command {
	var useLock bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired links once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := backend.Open(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := links.SweeperOptions{
				Interval: c.cfg.Sweeper.Interval,
				Timeout:  c.cfg.Sweeper.Timeout,
			}

			if useLock && c.cfg.Redis.Enabled {
				client, err := redisStorage.New(ctx, redisStorage.ConfigFrom(c.cfg.Redis))
				if err != nil {
					return fmt.Errorf("connect redis: %w", err)
				}
				defer func() { _ = client.Close() }()
				opts.Locker = redisStorage.NewSweepLock(client, c.cfg.Sweeper.LockKey, c.cfg.Sweeper.InstanceID)
			}

			if c.cfg.Kafka.Enabled {
				pub, err := kafka.NewPublisher(kafka.PublisherConfigFrom(c.cfg.Kafka))
				if err != nil {
					return fmt.Errorf("init kafka publisher: %w", err)
				}
				defer func() {
					if err := pub.Close(); err != nil {
						logger.Warn("Failed to close kafka publisher", zap.Error(err))
					}
				}()
				opts.Publisher = pub
			}

			deleted, err := links.NewSweeper(store.Repo, opts).SweepOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired links\n", deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useLock, "lock", true, "take the shared sweep lock when REDIS_ENABLED is set")

	return cmd
}

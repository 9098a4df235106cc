package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/messaging/kafka"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	redisStorage "github.com/IgorGrieder/encurtador-links/internal/storage/redis"
)

// dependencies holds the optional collaborators enabled through config.
// Nil fields mean the feature is off.
type dependencies struct {
	redis     *redisStorage.Client
	lock      *redisStorage.SweepLock
	publisher *kafka.Publisher
}

func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	d := &dependencies{}

	if cfg.Redis.Enabled {
		client, err := redisStorage.New(ctx, redisStorage.ConfigFrom(cfg.Redis))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.redis = client
		d.lock = redisStorage.NewSweepLock(client, cfg.Sweeper.LockKey, cfg.Sweeper.InstanceID)
		logger.Info("Sweep lock enabled", zap.String("key", cfg.Sweeper.LockKey), zap.String("owner", d.lock.Owner()))
	}

	if cfg.Kafka.Enabled {
		pub, err := kafka.NewPublisher(kafka.PublisherConfigFrom(cfg.Kafka))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		d.publisher = pub
		logger.Info("Link events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	return d, nil
}

func (d *dependencies) sweeperOptions(cfg *config.Config) links.SweeperOptions {
	opts := links.SweeperOptions{
		Interval: cfg.Sweeper.Interval,
		Timeout:  cfg.Sweeper.Timeout,
	}
	if d.lock != nil {
		opts.Locker = d.lock
	}
	if d.publisher != nil {
		opts.Publisher = d.publisher
	}
	return opts
}

func (d *dependencies) Close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			logger.Warn("Failed to close kafka publisher", zap.Error(err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}

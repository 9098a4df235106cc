package links

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/events"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/metrics"
)

const (
	DefaultSweepInterval = 100 * time.Second
	DefaultSweepTimeout  = 30 * time.Second
)

type SweeperOptions struct {
	Interval  time.Duration
	Timeout   time.Duration
	Locker    SweepLocker
	Publisher EventPublisher
}

// Sweeper periodically purges links whose expiry has passed.
type Sweeper struct {
	repo      ExpiredPurger
	interval  time.Duration
	timeout   time.Duration
	locker    SweepLocker
	publisher EventPublisher
	now       func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewSweeper(repo ExpiredPurger, opts SweeperOptions) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSweepInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSweepTimeout
	}

	return &Sweeper{
		repo:      repo,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		locker:    opts.Locker,
		publisher: opts.Publisher,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.startOnce.Do(func() { go s.loop() })
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
// Calling it on a sweeper that was never started returns immediately.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.startOnce.Do(func() { close(s.doneCh) })

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-s.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()
			_, _ = s.SweepOnce(ctx)
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// SweepOnce runs a single purge. It returns the number of deleted links;
// zero with a nil error means nothing expired or another instance holds the lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("links").Start(ctx, "links.sweep_expired")
	defer span.End()

	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, s.interval)
		if err != nil {
			logger.Warn("Sweep lock unavailable, sweeping without it", zap.Error(err))
		} else if !acquired {
			metrics.SweepSkipped.Inc()
			span.SetAttributes(attribute.Bool("sweep.skipped", true))
			logger.Debug("Sweep lock held elsewhere, skipping")
			return 0, nil
		}
	}

	start := time.Now()
	now := s.now().UTC()

	sweepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	deleted, err := s.repo.DeleteExpired(sweepCtx, now)
	cancel()

	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		err = WrapStorage("delete expired", err)
		metrics.SweepFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Failed to sweep expired links", zap.Error(err))
		return 0, err
	}

	span.SetAttributes(attribute.Int64("sweep.deleted", deleted))

	if deleted > 0 {
		metrics.ExpiredLinksPurged.Add(float64(deleted))
		logger.Info("Expired links purged", zap.Int64("deleted", deleted))
		s.publishExpired(ctx, deleted, now)
	}

	return deleted, nil
}

func (s *Sweeper) publishExpired(ctx context.Context, count int64, at time.Time) {
	if s.publisher == nil {
		return
	}

	ev := NewLinkEvent(events.TypeLinksExpired, nil, count, at)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish expiry event", zap.Int64("count", count), zap.Error(err))
	}
}

package links

import (
	"context"
	"time"

	"github.com/IgorGrieder/encurtador-links/internal/events"
)

type LinkRepository interface {
	Save(ctx context.Context, link *Link) error
	FindByCode(ctx context.Context, code string) (*Link, error)
	FindByAlias(ctx context.Context, alias string) (*Link, error)
	FindByOriginalURL(ctx context.Context, url string) (*Link, error)
	IncrementVisit(ctx context.Context, code string, at time.Time) error
	UpdateURL(ctx context.Context, code, newURL string) (*Link, error)
	DeleteByCode(ctx context.Context, code string) (bool, error)
	DeleteByAlias(ctx context.Context, alias string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiredPurger is the slice of LinkRepository the sweeper depends on.
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CodeGenerator interface {
	Generate(url string) string
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.LinkEvent) error
}

// SweepLocker grants the right to run one sweep. Acquire returns false when
// another process holds the lock for the current interval.
type SweepLocker interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
}

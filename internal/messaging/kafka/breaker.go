package kafka

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// ErrPublisherUnavailable is returned without touching the broker while the
// breaker is open.
var ErrPublisherUnavailable = errors.New("kafka publisher unavailable: circuit open")

type breakerState int

const (
	stateClosed breakerState = iota + 1
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// breaker stops publish attempts after maxFailures consecutive write errors
// and lets a single probe through once cooldown has elapsed.
type breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	maxFailures int
	openSince   time.Time
	cooldown    time.Duration
	now         func() time.Time
}

func newBreaker(maxFailures int, cooldown time.Duration) *breaker {
	if maxFailures <= 0 {
		maxFailures = defaultBreakerFailures
	}
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return &breaker{
		state:       stateClosed,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openSince) >= b.cooldown {
			b.transition(stateHalfOpen)
			return nil
		}
		return ErrPublisherUnavailable
	case stateHalfOpen:
		return ErrPublisherUnavailable
	}
	return nil
}

func (b *breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == stateHalfOpen {
		b.transition(stateClosed)
	}
}

func (b *breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateHalfOpen:
		b.open()
	case stateClosed:
		b.failures++
		if b.failures >= b.maxFailures {
			b.open()
		}
	}
}

func (b *breaker) open() {
	b.openSince = b.now()
	b.transition(stateOpen)
}

// transition must be called with mu held.
func (b *breaker) transition(to breakerState) {
	logger.Warn("Kafka publisher breaker state change",
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("failures", b.failures),
	)
	b.state = to
}

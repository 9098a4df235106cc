package redis

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const DefaultSweepLockKey = "links:sweep:lock"

// SweepLock elects one sweeper per interval across replicas. The key is never
// released explicitly; it expires after the TTL so the next tick can claim it.
type SweepLock struct {
	client *Client
	key    string
	owner  string
}

// NewSweepLock builds a lock on key held under owner. Empty values fall back
// to DefaultSweepLockKey and a host/pid based owner id.
func NewSweepLock(client *Client, key, owner string) *SweepLock {
	if key == "" {
		key = DefaultSweepLockKey
	}
	if owner == "" {
		owner = lockOwner()
	}
	return &SweepLock{
		client: client,
		key:    key,
		owner:  owner,
	}
}

func (l *SweepLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return l.client.rdb.SetNX(ctx, l.key, l.owner, ttl).Result()
}

// Holder returns the owner id stored under the lock key, or "" when free.
func (l *SweepLock) Holder(ctx context.Context) (string, error) {
	v, err := l.client.rdb.Get(ctx, l.key).Result()
	if isNil(err) {
		return "", nil
	}
	return v, err
}

func (l *SweepLock) Owner() string { return l.owner }

func lockOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + strconv.Itoa(os.Getpid()) + "-" + uuid.NewString()[:8]
}

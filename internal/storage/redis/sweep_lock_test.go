package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *Client {
	t.Helper()

	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run redis integration tests")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := New(ctx, Config{Addr: endpoint})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestSweepLock_OneHolderPerInterval(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	a := NewSweepLock(client, "test:sweep", "")
	b := NewSweepLock(client, "test:sweep", "")

	ok, err := a.Acquire(ctx, 300*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first acquire: got (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = b.Acquire(ctx, 300*time.Millisecond)
	if err != nil || ok {
		t.Fatalf("second acquire: got (%v, %v), want (false, nil)", ok, err)
	}

	holder, err := b.Holder(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if holder != a.Owner() {
		t.Errorf("got holder %q, want %q", holder, a.Owner())
	}

	time.Sleep(400 * time.Millisecond)

	ok, err = b.Acquire(ctx, 300*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("acquire after expiry: got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestSweepLock_HolderWhenFree(t *testing.T) {
	client := setupRedis(t)

	holder, err := NewSweepLock(client, "test:free", "").Holder(context.Background())
	if err != nil || holder != "" {
		t.Errorf("got (%q, %v), want (\"\", nil)", holder, err)
	}
}

func TestNewSweepLock_Defaults(t *testing.T) {
	l := NewSweepLock(nil, "", "")
	if l.key != DefaultSweepLockKey {
		t.Errorf("got key %q, want %q", l.key, DefaultSweepLockKey)
	}
	if l.Owner() == "" || strings.Count(l.Owner(), "-") < 2 {
		t.Errorf("unexpected owner id %q", l.Owner())
	}
	if other := NewSweepLock(nil, "", ""); other.Owner() == l.Owner() {
		t.Error("owner ids should be unique per lock")
	}
	if named := NewSweepLock(nil, "k", "api-1"); named.Owner() != "api-1" {
		t.Errorf("got owner %q, want api-1", named.Owner())
	}
}

func TestConfigOptions_Defaults(t *testing.T) {
	opts := Config{}.options()

	if opts.Addr != "localhost:6379" || opts.PoolSize != 4 || opts.DialTimeout != 2*time.Second {
		t.Errorf("unexpected defaults: addr=%s pool=%d dial=%v", opts.Addr, opts.PoolSize, opts.DialTimeout)
	}

	opts = Config{Addr: "cache:6380", DB: 2, PoolSize: 8}.options()
	if opts.Addr != "cache:6380" || opts.DB != 2 || opts.PoolSize != 8 {
		t.Errorf("overrides lost: %+v", opts)
	}
}

package links

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IgorGrieder/encurtador-links/internal/events"
)

type mockPurger struct {
	calls atomic.Int32
	fn    func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockPurger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.calls.Add(1)
	return m.fn(ctx, now)
}

type mockLocker struct {
	acquired bool
	err      error
	ttl      time.Duration
}

func (m *mockLocker) Acquire(_ context.Context, ttl time.Duration) (bool, error) {
	m.ttl = ttl
	return m.acquired, m.err
}

func TestSweepOnce_DeletesAndPublishes(t *testing.T) {
	var gotNow time.Time
	repo := &mockPurger{fn: func(_ context.Context, now time.Time) (int64, error) {
		gotNow = now
		return 3, nil
	}}
	pub := &recordingPublisher{}

	s := NewSweeper(repo, SweeperOptions{Publisher: pub})
	s.now = func() time.Time { return testNow }

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("got %d deleted, want 3", n)
	}
	if !gotNow.Equal(testNow) {
		t.Errorf("got cutoff %v, want %v", gotNow, testNow)
	}

	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != events.TypeLinksExpired || ev.Count != 3 || ev.ShortCode != "" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSweepOnce_NothingExpired(t *testing.T) {
	repo := &mockPurger{fn: func(context.Context, time.Time) (int64, error) { return 0, nil }}
	pub := &recordingPublisher{}

	s := NewSweeper(repo, SweeperOptions{Publisher: pub})

	n, err := s.SweepOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("got (%d, %v), want (0, nil)", n, err)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestSweepOnce_StorageError(t *testing.T) {
	boom := errors.New("db unavailable")
	repo := &mockPurger{fn: func(context.Context, time.Time) (int64, error) { return 0, boom }}

	s := NewSweeper(repo, SweeperOptions{})

	_, err := s.SweepOnce(context.Background())
	if !IsStorageError(err) || !errors.Is(err, boom) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
}

func TestSweepOnce_AppliesTimeout(t *testing.T) {
	repo := &mockPurger{fn: func(ctx context.Context, _ time.Time) (int64, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected sweep context to carry a deadline")
		}
		return 0, nil
	}}

	s := NewSweeper(repo, SweeperOptions{Timeout: time.Second})
	if _, err := s.SweepOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSweepOnce_Locking(t *testing.T) {
	tests := []struct {
		name      string
		locker    *mockLocker
		wantCalls int32
	}{
		{"lock acquired", &mockLocker{acquired: true}, 1},
		{"lock held elsewhere", &mockLocker{acquired: false}, 0},
		{"lock error fails open", &mockLocker{err: errors.New("redis down")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPurger{fn: func(context.Context, time.Time) (int64, error) { return 1, nil }}
			s := NewSweeper(repo, SweeperOptions{Interval: time.Minute, Locker: tt.locker})

			if _, err := s.SweepOnce(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := repo.calls.Load(); got != tt.wantCalls {
				t.Errorf("got %d purge calls, want %d", got, tt.wantCalls)
			}
			if tt.locker.ttl != time.Minute {
				t.Errorf("got lock ttl %v, want the sweep interval", tt.locker.ttl)
			}
		})
	}
}

func TestSweeper_LoopRunsAndStops(t *testing.T) {
	repo := &mockPurger{fn: func(context.Context, time.Time) (int64, error) { return 0, nil }}
	s := NewSweeper(repo, SweeperOptions{Interval: 10 * time.Millisecond})

	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for repo.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if repo.calls.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", repo.calls.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	after := repo.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if repo.calls.Load() != after {
		t.Error("sweeper kept running after shutdown")
	}
}

func TestSweeper_LoopSurvivesErrors(t *testing.T) {
	repo := &mockPurger{fn: func(context.Context, time.Time) (int64, error) { return 0, errors.New("boom") }}
	s := NewSweeper(repo, SweeperOptions{Interval: 10 * time.Millisecond})

	s.Start()
	defer func() { _ = s.Shutdown(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for repo.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if repo.calls.Load() < 3 {
		t.Fatalf("expected the loop to keep ticking after failures, got %d sweeps", repo.calls.Load())
	}
}

func TestSweeper_ShutdownWithoutStart(t *testing.T) {
	s := NewSweeper(&mockPurger{}, SweeperOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(_ context.Context) error { return errors.New("downstream failed") }

func succeeding(_ context.Context) error { return nil }

func newTestBreaker(opts BreakerOpts) (*Breaker, *time.Time) {
	b := NewBreaker(opts)
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_StaysClosedOnSuccess(t *testing.T) {
	b, _ := newTestBreaker(BreakerOpts{FailThreshold: 2})
	for i := 0; i < 5; i++ {
		if err := b.Call(context.Background(), succeeding); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerOpts{FailThreshold: 3})

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), failing); err == nil {
			t.Fatal("expected error")
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	// Open breaker rejects without invoking f.
	invoked := false
	err := b.Call(context.Background(), func(context.Context) error {
		invoked = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Fatal("open breaker must not invoke f")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(BreakerOpts{FailThreshold: 2})

	_ = b.Call(context.Background(), failing)
	_ = b.Call(context.Background(), succeeding)
	_ = b.Call(context.Background(), failing)

	if b.State() != StateClosed {
		t.Fatalf("expected closed after interleaved success, got %v", b.State())
	}
}

func TestBreaker_HalfOpenProbeRecovers(t *testing.T) {
	b, now := newTestBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})

	_ = b.Call(context.Background(), failing)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	*now = now.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}

	if err := b.Call(context.Background(), succeeding); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe success, got %v", b.State())
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b, now := newTestBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})

	_ = b.Call(context.Background(), failing)
	*now = now.Add(11 * time.Second)

	if err := b.Call(context.Background(), failing); err == nil {
		t.Fatal("expected probe failure")
	}
	if b.State() != StateOpen {
		t.Fatalf("expected reopened, got %v", b.State())
	}
}

func TestBreaker_HalfOpenLimitsProbes(t *testing.T) {
	b, now := newTestBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Second, HalfOpenMax: 1})

	_ = b.Call(context.Background(), failing)
	*now = now.Add(2 * time.Second)

	entered := make(chan struct{})
	block := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Call(context.Background(), func(context.Context) error {
			close(entered)
			<-block
			return nil
		})
	}()

	// While the probe is in flight a second call must be rejected.
	<-entered
	err := b.Call(context.Background(), succeeding)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen for second probe, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("probe failed: %v", err)
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(99):     "unknown",
	}
	for st, want := range cases {
		if st.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", st, st.String(), want)
		}
	}
}

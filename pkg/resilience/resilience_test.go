package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VoyagentAI/voyagent-mvp/pkg/fn"
)

var errFail = errors.New("downstream failed")

func failN(n int) func(context.Context) error {
	calls := 0
	return func(context.Context) error {
		calls++
		if calls <= n {
			return errFail
		}
		return nil
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	f := func(context.Context) error { return errFail }

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), f); !errors.Is(err, errFail) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(context.Background(), f); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker must reject, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	b.Call(context.Background(), func(context.Context) error { return errFail })
	b.Call(context.Background(), func(context.Context) error { return nil })
	b.Call(context.Background(), func(context.Context) error { return errFail })
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after interleaved success", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), func(context.Context) error { return errFail })
	if b.State() != StateOpen {
		t.Fatalf("state = %v", b.State())
	}

	clock = clock.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after timeout", b.State())
	}

	// A successful probe closes the breaker.
	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), func(context.Context) error { return errFail })
	clock = clock.Add(11 * time.Second)
	b.Call(context.Background(), func(context.Context) error { return errFail })
	if b.State() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", b.State())
	}
}

func TestBreakerStage(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	stage := BreakerStage(b, fn.Stage[int, int](func(_ context.Context, _ int) fn.Result[int] {
		return fn.Err[int](errFail)
	}))

	stage(context.Background(), 1)
	stage(context.Background(), 1)
	r := stage(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens must be available")
	}
	if l.Allow() {
		t.Error("third immediate call must be limited")
	}
}

func TestLimiterRefill(t *testing.T) {
	clock := time.Now()
	l := NewLimiter(LimiterOpts{Rate: 10, Burst: 1})
	l.now = func() time.Time { return clock }

	if !l.Allow() {
		t.Fatal("first token")
	}
	if l.Allow() {
		t.Fatal("bucket must be empty")
	}
	clock = clock.Add(200 * time.Millisecond)
	if !l.Allow() {
		t.Error("token must refill after elapsed time")
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}

func TestLimiterStageWait(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1000, Burst: 1})
	stage := LimiterStageWait(l, fn.Stage[int, int](func(_ context.Context, n int) fn.Result[int] {
		return fn.Ok(n * 2)
	}))
	r := stage(context.Background(), 4)
	if v, err := r.Unwrap(); err != nil || v != 8 {
		t.Errorf("stage = (%d, %v)", v, err)
	}
}

package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)
	if l.rate != 10.0 {
		t.Errorf("rate = %f, want 10.0", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}
}

func TestPerMinute(t *testing.T) {
	tests := []struct {
		n         int
		wantRate  float64
		wantBurst int
	}{
		{120, 2.0, 12},
		{60, 1.0, 6},
		{5, 5.0 / 60.0, 1},
	}

	for _, tt := range tests {
		l := PerMinute(tt.n)
		if l.rate != tt.wantRate {
			t.Errorf("PerMinute(%d) rate = %f, want %f", tt.n, l.rate, tt.wantRate)
		}
		if l.burst != tt.wantBurst {
			t.Errorf("PerMinute(%d) burst = %d, want %d", tt.n, l.burst, tt.wantBurst)
		}
	}
}

func TestAllow(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		rate  float64
		burst int
		// steps alternate between advancing the clock and calling Allow.
		steps []struct {
			advance time.Duration
			want    bool
		}
	}{
		{
			name:  "within burst",
			rate:  1.0,
			burst: 3,
			steps: []struct {
				advance time.Duration
				want    bool
			}{{0, true}, {0, true}, {0, true}, {0, false}},
		},
		{
			name:  "refill after wait",
			rate:  10.0,
			burst: 2,
			steps: []struct {
				advance time.Duration
				want    bool
			}{{0, true}, {0, true}, {0, false}, {200 * time.Millisecond, true}, {0, true}, {0, false}},
		},
		{
			name:  "refill capped at burst",
			rate:  100.0,
			burst: 2,
			steps: []struct {
				advance time.Duration
				want    bool
			}{{0, true}, {0, true}, {10 * time.Second, true}, {0, true}, {0, false}},
		},
		{
			name:  "partial refill",
			rate:  2.0,
			burst: 1,
			steps: []struct {
				advance time.Duration
				want    bool
			}{{0, true}, {250 * time.Millisecond, false}, {250 * time.Millisecond, true}},
		},
		{
			name:  "zero rate never refills",
			rate:  0,
			burst: 1,
			steps: []struct {
				advance time.Duration
				want    bool
			}{{0, true}, {time.Hour, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := start
			l := NewLimiter(tt.rate, tt.burst)
			l.nowFunc = func() time.Time { return now }

			for i, step := range tt.steps {
				now = now.Add(step.advance)
				if got := l.Allow("key"); got != step.want {
					t.Errorf("step %d: Allow() = %v, want %v", i, got, step.want)
				}
			}
		})
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)

	l.Allow("update")
	if l.Allow("update") {
		t.Error("update should be exhausted")
	}
	if !l.Allow("history") {
		t.Error("history should be allowed (independent bucket)")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1000.0, 100)
	l.nowFunc = func() time.Time { return now }

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != 100 {
		t.Errorf("allowed %d requests, want 100 (burst with a frozen clock)", count)
	}
}

func TestNewLimits(t *testing.T) {
	limits := NewLimits(120)
	for _, op := range []string{OpUpdate, OpStats, OpHistory} {
		if _, ok := limits[op]; !ok {
			t.Errorf("missing limiter for %s", op)
		}
	}
	if got := limits[OpUpdate].burst; got != 12 {
		t.Errorf("update burst = %d, want 12", got)
	}

	if _, ok := NewLimits(0)[OpUpdate]; ok {
		t.Error("NewLimits(0) should leave updates unlimited")
	}
}

func TestLimits_Check(t *testing.T) {
	limits := Limits{OpUpdate: NewLimiter(0, 1)}

	if err := limits.Check(OpUpdate); err != nil {
		t.Fatalf("first Check() error = %v", err)
	}
	err := limits.Check(OpUpdate)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Check() error = %v, want ErrRateLimited", err)
	}

	if err := limits.Check("unknown"); err != nil {
		t.Errorf("Check(unknown) error = %v, want nil", err)
	}

	var none Limits
	if err := none.Check(OpUpdate); err != nil {
		t.Errorf("nil Limits Check() error = %v, want nil", err)
	}
}

package exchange

import (
	"context"
	"errors"
	"testing"
	"time"
)

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var pauses []time.Duration
	orig := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &pauses
}

func TestRetryStopsAtBudget(t *testing.T) {
	pauses := stubSleep(t)

	calls := 0
	err := Retry(context.Background(), "balances", 3, func() error {
		calls++
		return Transient("balances", errors.New("connection reset"))
	})

	if calls != 3 {
		t.Fatalf("fn called %d times, expected exactly 3", calls)
	}
	if !IsFatal(err) {
		t.Fatalf("expected fatal error after budget spent, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Attempts != 3 {
		t.Fatalf("expected attempt count 3 in error, got %+v", apiErr)
	}
	// Exponential backoff: 2^1, 2^2 seconds; no pause after the last attempt.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*pauses) != len(want) {
		t.Fatalf("paused %d times, expected %d", len(*pauses), len(want))
	}
	for i, p := range *pauses {
		if p != want[i] {
			t.Fatalf("pause %d = %s, expected %s", i, p, want[i])
		}
	}
}

func TestRetryFatalSurfacesImmediately(t *testing.T) {
	stubSleep(t)

	calls := 0
	err := Retry(context.Background(), "order", 3, func() error {
		calls++
		return Fatal("order", errors.New("insufficient balance"))
	})

	if calls != 1 {
		t.Fatalf("fn called %d times, expected 1 for a fatal error", calls)
	}
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestRetryRecoversWithinBudget(t *testing.T) {
	stubSleep(t)

	calls := 0
	err := Retry(context.Background(), "price", 3, func() error {
		calls++
		if calls < 3 {
			return Transient("price", errors.New("504"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success on 3rd attempt, got %v", err)
	}
}

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   int
		want   ErrorKind
	}{
		{"server error", 502, 0, KindTransient},
		{"rate limited", 429, 0, KindTransient},
		{"weight ban", 418, 0, KindTransient},
		{"binance too many requests", 400, -1003, KindTransient},
		{"bad request", 400, -1013, KindFatal},
		{"unauthorized", 401, 0, KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyHTTP(tt.status, tt.code); got != tt.want {
				t.Fatalf("ClassifyHTTP(%d,%d)=%v, expected %v", tt.status, tt.code, got, tt.want)
			}
		})
	}
}

package exchange

import (
	"log"
	"strconv"
	"sync"
	"time"
)

// WeightTracker follows the request-weight budget a venue reports back in
// response headers (Binance: X-MBX-USED-WEIGHT-1M, 1200/min for spot).
type WeightTracker struct {
	used      int
	limit     int
	window    time.Duration
	lastReset time.Time
	mu        sync.Mutex
}

// NewWeightTracker creates a tracker for the given weight budget per window.
func NewWeightTracker(limit int, window time.Duration) *WeightTracker {
	return &WeightTracker{limit: limit, window: window, lastReset: time.Now()}
}

// Observe records the used weight reported by a response header.
func (w *WeightTracker) Observe(headerValue string) {
	if headerValue == "" {
		return
	}
	used, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastReset) >= w.window {
		w.lastReset = time.Now()
	}
	w.used = used

	pct := float64(w.used) / float64(w.limit) * 100
	if pct >= 90 {
		log.Printf("request weight at %d/%d (%.0f%%), approaching ban threshold", w.used, w.limit, pct)
	}
}

// NearLimit reports whether the next call should be deferred to the next
// cycle rather than risk a weight ban.
func (w *WeightTracker) NearLimit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastReset) >= w.window {
		return false
	}
	return float64(w.used) >= float64(w.limit)*0.9
}

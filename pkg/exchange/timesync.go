package exchange

import (
	"sync"
	"time"
)

// TimeSync corrects the local clock against the venue's server time so that
// signed requests stay within the recvWindow. The engine is cycle-driven, so
// the offset is refreshed lazily when stale instead of by a background loop.
type TimeSync struct {
	fetch    func() (int64, error)
	offset   int64 // server - local, milliseconds
	syncedAt time.Time
	maxAge   time.Duration
	mu       sync.Mutex
}

// NewTimeSync creates a lazy time synchronizer around a server-time fetch.
func NewTimeSync(fetch func() (int64, error)) *TimeSync {
	return &TimeSync{fetch: fetch, maxAge: 30 * time.Minute}
}

// Now returns the current venue timestamp in milliseconds, refreshing the
// offset when it has gone stale. A failed refresh falls back to the local
// clock; the request may still land inside the recvWindow.
func (ts *TimeSync) Now() int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if time.Since(ts.syncedAt) > ts.maxAge {
		before := time.Now().UnixMilli()
		if server, err := ts.fetch(); err == nil {
			after := time.Now().UnixMilli()
			// Assume symmetric network latency.
			ts.offset = server - (before+after)/2
			ts.syncedAt = time.Now()
		}
	}
	return time.Now().UnixMilli() + ts.offset
}

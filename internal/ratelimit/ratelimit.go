package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrQuotaExceeded = errors.New("request quota exceeded")

// Quota counts upstream requests inside a rolling window (daily by
// default). It is passed explicitly to whoever issues requests.
type Quota struct {
	mu      sync.Mutex
	limit   int // 0 = unlimited
	used    int
	denied  int
	window  time.Duration
	resetAt time.Time
	now     func() time.Time
	log     *slog.Logger
}

// NewQuota creates a quota of limit requests per window.
func NewQuota(limit int, window time.Duration, log *slog.Logger) *Quota {
	return NewQuotaWithClock(limit, window, log, time.Now)
}

func NewQuotaWithClock(limit int, window time.Duration, log *slog.Logger, now func() time.Time) *Quota {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Quota{
		limit:   limit,
		window:  window,
		resetAt: now().Add(window),
		now:     now,
		log:     log,
	}
}

// Use consumes one request or returns ErrQuotaExceeded.
func (q *Quota) Use() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()

	if q.limit > 0 && q.used >= q.limit {
		q.denied++
		q.log.Warn("request quota reached", "used", q.used, "limit", q.limit, "reset_at", q.resetAt)
		return fmt.Errorf("%w (%d/%d, resets %s)", ErrQuotaExceeded, q.used, q.limit, q.resetAt.Format(time.RFC3339))
	}

	q.used++
	q.log.Debug("request quota used", "used", q.used, "limit", q.limit)
	return nil
}

// Remaining returns the requests left in the current window, or -1 when
// the quota is unlimited.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()
	if q.limit <= 0 {
		return -1
	}
	return q.limit - q.used
}

// GetStats returns current quota statistics
func (q *Quota) GetStats() map[string]interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()
	return map[string]interface{}{
		"used":       q.used,
		"limit":      q.limit,
		"denied":     q.denied,
		"reset_time": q.resetAt.Format(time.RFC3339),
	}
}

// checkReset resets counters if reset time has passed
func (q *Quota) checkReset() {
	now := q.now()
	if now.Before(q.resetAt) {
		return
	}
	q.log.Info("resetting request quota", "used", q.used, "denied", q.denied)
	q.used = 0
	q.denied = 0
	q.resetAt = now.Add(q.window)
}

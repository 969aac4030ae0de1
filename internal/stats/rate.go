package stats

import (
	"sync"
	"time"
)

// minElapsed is the floor applied to the time between two samples. It
// covers the first call, clock-resolution ties, and backward clock steps:
// any elapsed below the floor is treated as the floor, so a rate is always
// finite and non-negative.
const minElapsed = time.Millisecond

// RateEstimator derives an instantaneous rate from successive samples of a
// monotonic total. Safe for use from the exporter's own timer goroutine.
type RateEstimator struct {
	mu        sync.Mutex
	prevTotal uint64
	prevTime  time.Time
	now       func() time.Time
}

// NewRateEstimator seeds the previous timestamp so the first sample yields
// a finite value.
func NewRateEstimator() *RateEstimator {
	return newRateEstimator(time.Now)
}

func newRateEstimator(now func() time.Time) *RateEstimator {
	return &RateEstimator{prevTime: now(), now: now}
}

// Sample computes the rate of change since the previous call and records
// the current total and timestamp for the next one. Increments landing
// between calls are reflected in the next sample, never lost.
func (r *RateEstimator) Sample(currentTotal uint64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(r.prevTime)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	var delta uint64
	if currentTotal > r.prevTotal {
		delta = currentTotal - r.prevTotal
	}
	rate := float64(delta) / elapsed.Seconds()

	r.prevTotal = currentTotal
	r.prevTime = now
	return rate
}

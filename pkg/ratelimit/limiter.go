package ratelimit

import (
	"sync"
	"time"
)

// Limiter paces asset fetches.
type Limiter interface {
	// Allow reports whether a fetch may proceed right now.
	Allow() bool
	// Wait blocks until a fetch may proceed.
	Wait()
	// Reset clears the limiter state.
	Reset()
}

// TokenBucket allows bursts up to size, then blocks until the bucket
// refills after refillEvery.
type TokenBucket struct {
	size        int
	remaining   int
	refillEvery time.Duration
	refilledAt  time.Time
	mu          sync.Mutex
}

// NewTokenBucket creates a token bucket holding size tokens that
// refills in full every refillEvery.
func NewTokenBucket(size int, refillEvery time.Duration) *TokenBucket {
	return &TokenBucket{
		size:        size,
		remaining:   size,
		refillEvery: refillEvery,
		refilledAt:  time.Now(),
	}
}

// Allow takes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.remaining > 0 {
		tb.remaining--
		return true
	}
	return false
}

// Wait blocks until a token is available.
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		untilRefill := tb.refillEvery - time.Since(tb.refilledAt)
		tb.mu.Unlock()

		if untilRefill > 0 {
			time.Sleep(untilRefill)
		} else {
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Reset refills the bucket.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.remaining = tb.size
	tb.refilledAt = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.refilledAt) >= tb.refillEvery {
		tb.remaining = tb.size
		tb.refilledAt = now
	}
}

// SlidingWindow allows at most limit fetches inside any window-sized
// span, smoothing bursts instead of gating them on refill boundaries.
type SlidingWindow struct {
	window time.Duration
	limit  int
	stamps []time.Time
	mu     sync.Mutex
}

// NewSlidingWindow creates a sliding window admitting limit fetches
// per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  limit,
		stamps: make([]time.Time, 0, limit),
	}
}

// Allow records the fetch if the window has room.
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.expire(now)

	if len(sw.stamps) < sw.limit {
		sw.stamps = append(sw.stamps, now)
		return true
	}
	return false
}

// Wait blocks until the window has room.
func (sw *SlidingWindow) Wait() {
	for !sw.Allow() {
		sw.mu.Lock()
		if len(sw.stamps) > 0 {
			oldest := sw.stamps[0]
			sw.mu.Unlock()

			if wait := sw.window - time.Since(oldest); wait > 0 {
				time.Sleep(wait)
			}
		} else {
			sw.mu.Unlock()
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Reset forgets all recorded fetches.
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.stamps = sw.stamps[:0]
}

// expire drops stamps that have aged out of the window.
func (sw *SlidingWindow) expire(now time.Time) {
	cutoff := now.Add(-sw.window)

	i := 0
	for i < len(sw.stamps) && sw.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.stamps, sw.stamps[i:])
		sw.stamps = sw.stamps[:len(sw.stamps)-i]
	}
}

// Package ratelimit provides rate limiting for bulk asset downloads.
//
// This package implements multiple rate limiting algorithms to keep
// CDN fetch bursts polite without slowing small downloads.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation used by the downloader
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//   - Better for consistent request patterns
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Token bucket: 50 requests per hour
//	limiter := ratelimit.NewTokenBucket(50, time.Hour)
//
//	if limiter.Allow() {
//	    // Proceed with request
//	} else {
//	    // Wait for rate limit to reset
//	    limiter.Wait()
//	}
//
//	// Sliding window: 100 requests per 15 minutes
//	limiter := ratelimit.NewSlidingWindow(100, 15*time.Minute)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
package ratelimit

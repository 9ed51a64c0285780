// Package retry provides exponential backoff and retry logic for
// transient failures in data API calls.
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		return client.FetchProfile(ctx, username)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// Rate-limit, server and network errors retry; not-found, unauthorized
// and malformed-response errors do not.
package retry

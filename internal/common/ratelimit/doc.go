// Package ratelimit paces outbound API requests.
//
// Battle.net enforces a per-client quota. A local limiter paces a single process with
// golang.org/x/time/rate; a distributed limiter shares one sliding window in Redis between
// every process that uses the same client id.
//
//	limiter, err := ratelimit.New(ratelimit.Config{
//		Enabled:           true,
//		RequestsPerSecond: 100,
//		BurstSize:         100,
//	})
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit

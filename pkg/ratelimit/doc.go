// Package ratelimit provides request throttling for the feed downloader.
//
// The token bucket has a fixed capacity that refills after a specified
// period. Both the feed traversal and the download workers draw from the
// same bucket so the portal sees one aggregate request rate.
//
// Usage:
//
//	// 120 requests per minute
//	limiter := ratelimit.NewTokenBucket(120, time.Minute)
//
//	if !limiter.Allow() {
//	    limiter.Wait()
//	}
//	// Proceed with request
package ratelimit

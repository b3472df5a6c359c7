package utils

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------

// SleepContext waits for d and reports false when ctx ended first.
func SleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// -----------------------------------------------------------------------------

// MaskToken shortens a bearer token for logs, keeping only its tail.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-6:]
}

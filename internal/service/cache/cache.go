package cache

import (
	"context"
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LatestKey is the cache key for the most recent observation of a term.
func LatestKey(termYears int) string {
	return fmt.Sprintf("rates:latest:%d", termYears)
}

// AnalyticsKey is the cache key for one broker's analytics snapshot.
func AnalyticsKey(brokerID string) string {
	return "analytics:" + brokerID
}

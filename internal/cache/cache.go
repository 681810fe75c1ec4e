// Package cache stores recently fetched prices with an expiry.
package cache

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is a key/value price cache. A miss is reported as ok == false with
// a nil error.
type Store interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error
}

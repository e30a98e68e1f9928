package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warchest/models"
)

// StaticOracle serves prices from an in-memory map. Used in tests and
// local development where no keeper is posting quotes.
type StaticOracle struct {
	mu     sync.RWMutex
	prices map[string]int64
}

// NewStaticOracle creates an oracle preloaded with the given prices
func NewStaticOracle(prices map[string]int64) *StaticOracle {
	cp := make(map[string]int64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &StaticOracle{prices: cp}
}

// Set updates the price for a feed
func (o *StaticOracle) Set(feedRef string, price int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[feedRef] = price
}

// Read returns the configured price, stamped with the current time so it
// is never stale.
func (o *StaticOracle) Read(ctx context.Context, feedRef string, maxStaleness time.Duration) (int64, time.Time, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	price, ok := o.prices[feedRef]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("feed %s: %w", feedRef, models.ErrOraclePriceMissing)
	}
	return price, time.Now(), nil
}

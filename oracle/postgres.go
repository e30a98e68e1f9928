// Package oracle provides price feed readers for battle pricing.
package oracle

import (
	"context"
	"fmt"
	"time"

	"warchest/database"
	"warchest/models"
	"warchest/repository"
)

// PostgresOracle reads the freshest keeper-posted quote for a feed from
// the price_quotes table and enforces a staleness bound on it.
type PostgresOracle struct {
	prices *repository.PriceRepository
}

// NewPostgresOracle creates an oracle backed by the quote store
func NewPostgresOracle(db *database.DB) *PostgresOracle {
	return &PostgresOracle{prices: repository.NewPriceRepository(db)}
}

// Read returns the latest price for feedRef, rejecting feeds with no
// quotes and quotes older than maxStaleness.
func (o *PostgresOracle) Read(ctx context.Context, feedRef string, maxStaleness time.Duration) (int64, time.Time, error) {
	quote, err := o.prices.GetLatest(ctx, feedRef)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read feed %s: %w", feedRef, err)
	}
	if quote == nil {
		return 0, time.Time{}, fmt.Errorf("feed %s: %w", feedRef, models.ErrOraclePriceMissing)
	}
	if age := time.Since(quote.PublishedAt); age > maxStaleness {
		return 0, time.Time{}, fmt.Errorf("feed %s is %s old: %w", feedRef, age.Round(time.Second), models.ErrStalePrice)
	}
	return quote.Price, quote.PublishedAt, nil
}

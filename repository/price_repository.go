package repository

import (
	"context"
	"fmt"

	"warchest/database"
	"warchest/models"
	"warchest/service"

	"github.com/jackc/pgx/v5"
)

// PriceRepository implements the service.PriceRepository interface
type PriceRepository struct {
	q queryable
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *database.DB) *PriceRepository {
	return &PriceRepository{q: db.Pool}
}

// newPriceRepositoryWithTx creates a new price repository with a transaction
func newPriceRepositoryWithTx(tx queryable) service.PriceRepository {
	return &PriceRepository{q: tx}
}

// Insert stores a new price quote
func (r *PriceRepository) Insert(ctx context.Context, quote *models.PriceQuote) error {
	query := `
		INSERT INTO price_quotes (feed_ref, price, published_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		quote.FeedRef,
		quote.Price,
		quote.PublishedAt,
	).Scan(&quote.ID, &quote.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert price quote: %w", err)
	}

	return nil
}

// GetLatest returns the most recently published quote for a feed
func (r *PriceRepository) GetLatest(ctx context.Context, feedRef string) (*models.PriceQuote, error) {
	query := `
		SELECT id, feed_ref, price, published_at, created_at
		FROM price_quotes
		WHERE feed_ref = $1
		ORDER BY published_at DESC
		LIMIT 1
	`

	var quote models.PriceQuote
	err := r.q.QueryRow(ctx, query, feedRef).Scan(
		&quote.ID,
		&quote.FeedRef,
		&quote.Price,
		&quote.PublishedAt,
		&quote.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price quote: %w", err)
	}

	return &quote, nil
}

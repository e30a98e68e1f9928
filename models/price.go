package models

import "time"

// PriceQuote is one keeper-posted price observation for a feed. Price is
// an unsigned fixed-point integer scaled by PriceScale.
type PriceQuote struct {
	ID          int64     `db:"id"`
	FeedRef     string    `db:"feed_ref"`
	Price       int64     `db:"price"`
	PublishedAt time.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
}

package service

import (
	"context"
	"fmt"
	"time"

	"warchest/events"
	"warchest/models"
)

type priceService struct {
	uowFactory UnitOfWorkFactory
}

// NewPriceService creates a new price service
func NewPriceService(uowFactory UnitOfWorkFactory) PriceService {
	return &priceService{uowFactory: uowFactory}
}

// PostQuote records a keeper-posted price observation for a feed
func (s *priceService) PostQuote(ctx context.Context, feedRef string, price int64, publishedAt time.Time) (*models.PriceQuote, error) {
	if feedRef == "" {
		return nil, fmt.Errorf("feed reference is required")
	}
	if price <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}
	if publishedAt.IsZero() {
		return nil, fmt.Errorf("publish time is required")
	}
	if publishedAt.After(time.Now().Add(time.Minute)) {
		return nil, fmt.Errorf("publish time is in the future")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	quote := &models.PriceQuote{
		FeedRef:     feedRef,
		Price:       price,
		PublishedAt: publishedAt,
	}
	if err := uow.PriceRepository().Insert(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to insert price quote: %w", err)
	}

	uow.EventBus().Publish(events.PricePostedEvent{
		FeedRef:     feedRef,
		Price:       price,
		PublishedAt: publishedAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return quote, nil
}

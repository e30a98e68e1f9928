package service

import (
	"context"
	"testing"
	"time"

	"warchest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestPriceService() (PriceService, *MockUnitOfWork, *MockPriceRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPriceRepo := new(MockPriceRepository)

	mockUoW.SetRepositories(nil, nil, nil, nil, mockPriceRepo, nil)
	mockFactory.On("Create").Return(mockUoW)

	service := NewPriceService(mockFactory)
	return service, mockUoW, mockPriceRepo
}

func TestPriceService_PostQuote(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockPriceRepo := createTestPriceService()

	publishedAt := time.Now().Add(-time.Second)

	setupBasicTransactionMocks(mockUoW)
	mockPriceRepo.On("Insert", ctx, mock.MatchedBy(func(q *models.PriceQuote) bool {
		return q.FeedRef == "feed/sol-usd" && q.Price == 150*models.PriceScale && q.PublishedAt.Equal(publishedAt)
	})).Return(nil)

	quote, err := service.PostQuote(ctx, "feed/sol-usd", 150*models.PriceScale, publishedAt)

	require.NoError(t, err)
	assert.Equal(t, "feed/sol-usd", quote.FeedRef)
	mockPriceRepo.AssertExpectations(t)
}

func TestPriceService_PostQuote_Validation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := createTestPriceService()

	_, err := service.PostQuote(ctx, "", 100, time.Now())
	assert.Error(t, err)

	_, err = service.PostQuote(ctx, "feed/sol-usd", 0, time.Now())
	assert.Error(t, err)

	_, err = service.PostQuote(ctx, "feed/sol-usd", -5, time.Now())
	assert.Error(t, err)

	_, err = service.PostQuote(ctx, "feed/sol-usd", 100, time.Time{})
	assert.Error(t, err)

	_, err = service.PostQuote(ctx, "feed/sol-usd", 100, time.Now().Add(time.Hour))
	assert.Error(t, err)
}

package repository

import (
	"context"
	"testing"
	"time"

	"warchest/models"
	"warchest/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRepository_InsertAndGetLatest(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPriceRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no quotes", func(t *testing.T) {
		quote, err := repo.GetLatest(ctx, "feed/empty")
		require.NoError(t, err)
		assert.Nil(t, quote)
	})

	t.Run("latest by publish time", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)

		older := testutil.CreateTestQuote("feed/sol-usd", 100*models.PriceScale)
		older.PublishedAt = base
		require.NoError(t, repo.Insert(ctx, older))
		assert.NotZero(t, older.ID)

		newer := testutil.CreateTestQuote("feed/sol-usd", 105*models.PriceScale)
		newer.PublishedAt = base.Add(30 * time.Minute)
		require.NoError(t, repo.Insert(ctx, newer))

		// A fresher quote on a different feed must not shadow this one
		other := testutil.CreateTestQuote("feed/btc-usd", 900*models.PriceScale)
		require.NoError(t, repo.Insert(ctx, other))

		got, err := repo.GetLatest(ctx, "feed/sol-usd")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(105*models.PriceScale), got.Price)
	})
}

package oracle

import (
	"context"
	"testing"
	"time"

	"warchest/models"
	"warchest/repository"
	"warchest/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticOracle(t *testing.T) {
	ctx := context.Background()
	o := NewStaticOracle(map[string]int64{"feed/sol-usd": 100 * models.PriceScale})

	price, publishedAt, err := o.Read(ctx, "feed/sol-usd", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(100*models.PriceScale), price)
	assert.WithinDuration(t, time.Now(), publishedAt, time.Second)

	_, _, err = o.Read(ctx, "feed/unknown", time.Minute)
	assert.ErrorIs(t, err, models.ErrOraclePriceMissing)

	o.Set("feed/sol-usd", 120*models.PriceScale)
	price, _, err = o.Read(ctx, "feed/sol-usd", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(120*models.PriceScale), price)
}

func TestPostgresOracle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	prices := repository.NewPriceRepository(testDB.DB)
	o := NewPostgresOracle(testDB.DB)

	t.Run("missing feed", func(t *testing.T) {
		_, _, err := o.Read(ctx, "feed/none", time.Minute)
		assert.ErrorIs(t, err, models.ErrOraclePriceMissing)
	})

	t.Run("fresh quote", func(t *testing.T) {
		quote := testutil.CreateTestQuote("feed/sol-usd", 100*models.PriceScale)
		require.NoError(t, prices.Insert(ctx, quote))

		price, publishedAt, err := o.Read(ctx, "feed/sol-usd", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(100*models.PriceScale), price)
		assert.WithinDuration(t, quote.PublishedAt, publishedAt, time.Second)
	})

	t.Run("stale quote rejected", func(t *testing.T) {
		quote := testutil.CreateTestQuote("feed/old", 90*models.PriceScale)
		quote.PublishedAt = time.Now().Add(-time.Hour)
		require.NoError(t, prices.Insert(ctx, quote))

		_, _, err := o.Read(ctx, "feed/old", time.Minute)
		assert.ErrorIs(t, err, models.ErrStalePrice)
	})

	t.Run("newest quote wins", func(t *testing.T) {
		older := testutil.CreateTestQuote("feed/btc-usd", 100*models.PriceScale)
		older.PublishedAt = time.Now().Add(-30 * time.Second)
		require.NoError(t, prices.Insert(ctx, older))

		newer := testutil.CreateTestQuote("feed/btc-usd", 105*models.PriceScale)
		require.NoError(t, prices.Insert(ctx, newer))

		price, _, err := o.Read(ctx, "feed/btc-usd", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(105*models.PriceScale), price)
	})
}

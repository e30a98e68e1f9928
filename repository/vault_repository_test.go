package repository

import (
	"context"
	"testing"

	"warchest/models"
	"warchest/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	battleRepo := NewBattleRepository(testDB.DB)
	repo := NewVaultRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, battleRepo.Create(ctx, testutil.CreateTestBattle(1)))

	t.Run("vault not found", func(t *testing.T) {
		vault, err := repo.Get(ctx, 1, models.TeamA)
		require.NoError(t, err)
		assert.Nil(t, vault)
	})

	t.Run("round trip", func(t *testing.T) {
		vault := testutil.CreateTestVault(1, models.TeamA)
		require.NoError(t, repo.Create(ctx, vault))

		got, err := repo.Get(ctx, 1, models.TeamA)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(0), got.TotalAmount)
		assert.Nil(t, got.LendingReceipt)
	})
}

func TestVaultRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	battleRepo := NewBattleRepository(testDB.DB)
	repo := NewVaultRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, battleRepo.Create(ctx, testutil.CreateTestBattle(1)))

	vault := testutil.CreateTestVault(1, models.TeamB)
	require.NoError(t, repo.Create(ctx, vault))

	receipt := "receipt-1"
	vault.TotalAmount = 1000
	vault.LentAmount = 800
	vault.LendingReceipt = &receipt
	vault.PenaltyReserve = 5
	require.NoError(t, repo.Update(ctx, vault))

	got, err := repo.Get(ctx, 1, models.TeamB)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.TotalAmount)
	assert.Equal(t, int64(800), got.LentAmount)
	require.NotNil(t, got.LendingReceipt)
	assert.Equal(t, receipt, *got.LendingReceipt)
	assert.Equal(t, int64(200), got.IdleAmount())

	// Settlement shape: lent position closed, pool and snapshot frozen
	vault.LentAmount = 0
	vault.LendingReceipt = nil
	vault.YieldRealized = 12
	vault.PenaltyReserve = 0
	vault.RewardPool = 17
	vault.ShareSnapshot = 1000
	require.NoError(t, repo.Update(ctx, vault))

	got, err = repo.Get(ctx, 1, models.TeamB)
	require.NoError(t, err)
	assert.Equal(t, int64(17), got.RewardPool)
	assert.Equal(t, int64(1000), got.ShareSnapshot)
	assert.Nil(t, got.LendingReceipt)
}

func TestVaultRepository_ConstraintLentWithinTotal(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	battleRepo := NewBattleRepository(testDB.DB)
	repo := NewVaultRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, battleRepo.Create(ctx, testutil.CreateTestBattle(1)))

	vault := testutil.CreateTestVault(1, models.TeamA)
	require.NoError(t, repo.Create(ctx, vault))

	// lent_amount above total_amount violates the table constraint
	receipt := "receipt-1"
	vault.TotalAmount = 100
	vault.LentAmount = 200
	vault.LendingReceipt = &receipt
	assert.Error(t, repo.Update(ctx, vault))
}

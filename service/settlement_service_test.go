package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"warchest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestSettlementService() (SettlementService, *MockUnitOfWork, *MockBattleRepository, *MockVaultRepository, *MockTicketRepository, *MockPositionRepository, *MockYieldAdapter, *MockPriceOracle) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockBattleRepo := new(MockBattleRepository)
	mockVaultRepo := new(MockVaultRepository)
	mockTicketRepo := new(MockTicketRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockAdapter := new(MockYieldAdapter)
	mockOracle := new(MockPriceOracle)

	mockUoW.SetRepositories(mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	service := NewSettlementService(mockFactory, mockAdapter, mockOracle, testConfig())
	return service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, mockAdapter, mockOracle
}

func createEndedBattle(battleID int64) *models.Battle {
	now := time.Now()
	return &models.Battle{
		ID:             battleID,
		FeedA:          "feed/sol-usd",
		FeedB:          "feed/btc-usd",
		InitialPriceA:  100 * models.PriceScale,
		InitialPriceB:  100 * models.PriceScale,
		StartTime:      now.Add(-48 * time.Hour),
		EndTime:        now.Add(-time.Hour),
		Status:         models.BattleStatusActive,
		Winner:         models.TeamNone,
		LendingEnabled: true,
	}
}

func TestSettlementService_Settle_WinnerTakesCombinedYieldAndPenalties(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, _, mockAdapter, mockOracle := createTestSettlementService()

	battle := createEndedBattle(1)
	receiptA, receiptB := "receipt-a", "receipt-b"
	vaultA := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 1000, LentAmount: 1000, LendingReceipt: &receiptA, PenaltyReserve: 2}
	vaultB := &models.Vault{BattleID: 1, Team: models.TeamB, TotalAmount: 1000, LentAmount: 1000, LendingReceipt: &receiptB, PenaltyReserve: 3}

	setupBasicTransactionMocks(mockUoW)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)

	// A grows 20%, B grows 10%: A wins
	mockOracle.On("Read", ctx, "feed/sol-usd", mock.Anything).Return(int64(120*models.PriceScale), time.Now(), nil)
	mockOracle.On("Read", ctx, "feed/btc-usd", mock.Anything).Return(int64(110*models.PriceScale), time.Now(), nil)

	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vaultA, nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamB).Return(vaultB, nil)
	mockAdapter.On("Withdraw", ctx, "receipt-a").Return(int64(1000), int64(6), nil)
	mockAdapter.On("Withdraw", ctx, "receipt-b").Return(int64(1000), int64(4), nil)

	mockTicketRepo.On("GetLedger", ctx, int64(1), models.TeamA).Return(&models.TicketLedger{BattleID: 1, Team: models.TeamA, TotalShares: 1000}, nil)
	mockTicketRepo.On("GetLedger", ctx, int64(1), models.TeamB).Return(&models.TicketLedger{BattleID: 1, Team: models.TeamB, TotalShares: 1000}, nil)

	// Winner pool is both yields plus both penalty reserves: 6+4+2+3
	mockVaultRepo.On("Update", ctx, mock.MatchedBy(func(v *models.Vault) bool {
		return v.Team == models.TeamA && v.RewardPool == 15 && v.ShareSnapshot == 1000 &&
			v.LentAmount == 0 && v.LendingReceipt == nil && v.PenaltyReserve == 0
	})).Return(nil)
	mockVaultRepo.On("Update", ctx, mock.MatchedBy(func(v *models.Vault) bool {
		return v.Team == models.TeamB && v.RewardPool == 0 && v.ShareSnapshot == 1000
	})).Return(nil)

	mockBattleRepo.On("Update", ctx, mock.MatchedBy(func(b *models.Battle) bool {
		return b.Status == models.BattleStatusSettled && b.Winner == models.TeamA &&
			b.FinalPriceA != nil && *b.FinalPriceA == 120*models.PriceScale &&
			b.SettledAt != nil
	})).Return(nil)

	result, err := service.Settle(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, models.TeamA, result.Winner)
	assert.Equal(t, int64(15), result.RewardPoolA)
	assert.Equal(t, int64(0), result.RewardPoolB)
	assert.Equal(t, int64(10), result.TotalYield)

	mockVaultRepo.AssertExpectations(t)
	mockBattleRepo.AssertExpectations(t)
	mockAdapter.AssertExpectations(t)
}

func TestSettlementService_Settle_TieEachSideKeepsOwnYield(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, _, mockAdapter, mockOracle := createTestSettlementService()

	battle := createEndedBattle(1)
	receiptA, receiptB := "receipt-a", "receipt-b"
	vaultA := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 1000, LentAmount: 1000, LendingReceipt: &receiptA, PenaltyReserve: 2}
	vaultB := &models.Vault{BattleID: 1, Team: models.TeamB, TotalAmount: 500, LentAmount: 500, LendingReceipt: &receiptB}

	setupBasicTransactionMocks(mockUoW)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)

	// Identical growth on both feeds
	mockOracle.On("Read", ctx, "feed/sol-usd", mock.Anything).Return(int64(110*models.PriceScale), time.Now(), nil)
	mockOracle.On("Read", ctx, "feed/btc-usd", mock.Anything).Return(int64(110*models.PriceScale), time.Now(), nil)

	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vaultA, nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamB).Return(vaultB, nil)
	mockAdapter.On("Withdraw", ctx, "receipt-a").Return(int64(1000), int64(6), nil)
	mockAdapter.On("Withdraw", ctx, "receipt-b").Return(int64(500), int64(3), nil)

	mockTicketRepo.On("GetLedger", ctx, int64(1), models.TeamA).Return(&models.TicketLedger{BattleID: 1, Team: models.TeamA, TotalShares: 1000}, nil)
	mockTicketRepo.On("GetLedger", ctx, int64(1), models.TeamB).Return(&models.TicketLedger{BattleID: 1, Team: models.TeamB, TotalShares: 500}, nil)

	mockVaultRepo.On("Update", ctx, mock.MatchedBy(func(v *models.Vault) bool {
		return v.Team == models.TeamA && v.RewardPool == 8
	})).Return(nil)
	mockVaultRepo.On("Update", ctx, mock.MatchedBy(func(v *models.Vault) bool {
		return v.Team == models.TeamB && v.RewardPool == 3
	})).Return(nil)

	mockBattleRepo.On("Update", ctx, mock.MatchedBy(func(b *models.Battle) bool {
		return b.Status == models.BattleStatusSettled && b.Winner == models.TeamNone
	})).Return(nil)

	result, err := service.Settle(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, models.TeamNone, result.Winner)
	assert.Equal(t, int64(8), result.RewardPoolA)
	assert.Equal(t, int64(3), result.RewardPoolB)
}

func TestSettlementService_Settle_BeforeWindowCloses(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, _, _, _ := createTestSettlementService()

	battle := createEndedBattle(1)
	battle.EndTime = time.Now().Add(time.Hour)

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, models.ErrBattleNotEnded)
}

func TestSettlementService_Settle_AlreadySettled(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, _, _, _ := createTestSettlementService()

	battle := createEndedBattle(1)
	battle.Status = models.BattleStatusSettled

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, models.ErrInvalidState)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestSettlementService_Settle_AdapterFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, _, _, mockAdapter, mockOracle := createTestSettlementService()

	battle := createEndedBattle(1)
	receiptA := "receipt-a"
	vaultA := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 1000, LentAmount: 1000, LendingReceipt: &receiptA}

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockOracle.On("Read", ctx, "feed/sol-usd", mock.Anything).Return(int64(120*models.PriceScale), time.Now(), nil)
	mockOracle.On("Read", ctx, "feed/btc-usd", mock.Anything).Return(int64(110*models.PriceScale), time.Now(), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vaultA, nil)
	mockAdapter.On("Withdraw", ctx, "receipt-a").Return(int64(0), int64(0), errors.New("venue unavailable"))

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, models.ErrAdapterFailure)
	mockUoW.AssertNotCalled(t, "Commit")
	mockBattleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_YieldOverflowRejected(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, _, _, _, mockOracle := createTestSettlementService()

	battle := createEndedBattle(1)
	vaultA := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 1000, YieldRealized: math.MaxInt64}
	vaultB := &models.Vault{BattleID: 1, Team: models.TeamB, TotalAmount: 1000, YieldRealized: math.MaxInt64}

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockOracle.On("Read", ctx, "feed/sol-usd", mock.Anything).Return(int64(120*models.PriceScale), time.Now(), nil)
	mockOracle.On("Read", ctx, "feed/btc-usd", mock.Anything).Return(int64(110*models.PriceScale), time.Now(), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vaultA, nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamB).Return(vaultB, nil)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)
	mockUoW.AssertNotCalled(t, "Commit")
	mockVaultRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_StaleOracleRejected(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, _, _, mockOracle := createTestSettlementService()

	battle := createEndedBattle(1)

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockOracle.On("Read", ctx, "feed/sol-usd", mock.Anything).Return(int64(0), time.Time{}, models.ErrStalePrice)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, models.ErrStalePrice)
	mockUoW.AssertNotCalled(t, "Commit")
}

func createSettledBattle(battleID int64, winner models.Team) *models.Battle {
	battle := createEndedBattle(battleID)
	battle.Status = models.BattleStatusSettled
	battle.Winner = winner
	finalA, finalB := int64(120*models.PriceScale), int64(110*models.PriceScale)
	battle.FinalPriceA = &finalA
	battle.FinalPriceB = &finalB
	settledAt := time.Now()
	battle.SettledAt = &settledAt
	return battle
}

func TestSettlementService_Claim_WinnerGetsPrincipalPlusYieldShare(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)
	position := &models.UserPosition{BattleID: 1, Participant: "alice", Team: models.TeamA, AmountStaked: 100}
	// Sole staker: the whole pool of 10 is theirs
	vault := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 100, RewardPool: 10, ShareSnapshot: 100}

	setupBasicTransactionMocks(mockUoW)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "alice").Return(position, nil)
	mockTicketRepo.On("GetBalance", ctx, int64(1), models.TeamA, "alice").Return(int64(100), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vault, nil)
	mockTicketRepo.On("Burn", ctx, int64(1), models.TeamA, "alice", int64(100)).Return(nil)
	mockVaultRepo.On("Update", ctx, mock.MatchedBy(func(v *models.Vault) bool {
		return v.ClaimedAmount == 110
	})).Return(nil)
	mockPositionRepo.On("Update", ctx, mock.MatchedBy(func(p *models.UserPosition) bool {
		return p.Claimed && p.PayoutAmount != nil && *p.PayoutAmount == 110
	})).Return(nil)

	result, err := service.Claim(ctx, 1, "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Principal)
	assert.Equal(t, int64(10), result.YieldShare)
	assert.Equal(t, int64(110), result.Payout)
	assert.Equal(t, int64(100), result.SharesBurned)
}

func TestSettlementService_Claim_LoserGetsExactPrincipal(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)
	position := &models.UserPosition{BattleID: 1, Participant: "bob", Team: models.TeamB, AmountStaked: 100}
	vault := &models.Vault{BattleID: 1, Team: models.TeamB, TotalAmount: 100, RewardPool: 0, ShareSnapshot: 100}

	setupBasicTransactionMocks(mockUoW)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "bob").Return(position, nil)
	mockTicketRepo.On("GetBalance", ctx, int64(1), models.TeamB, "bob").Return(int64(100), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamB).Return(vault, nil)
	mockTicketRepo.On("Burn", ctx, int64(1), models.TeamB, "bob", int64(100)).Return(nil)
	mockVaultRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockPositionRepo.On("Update", ctx, mock.Anything).Return(nil)

	result, err := service.Claim(ctx, 1, "bob")

	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Payout)
	assert.Equal(t, int64(0), result.YieldShare)
}

func TestSettlementService_Claim_ProportionalSplitWithDust(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)
	// Pool of 10 across 300 shares: a 100-share claim gets 3, dust stays
	position := &models.UserPosition{BattleID: 1, Participant: "carol", Team: models.TeamA, AmountStaked: 100}
	vault := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 300, RewardPool: 10, ShareSnapshot: 300}

	setupBasicTransactionMocks(mockUoW)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "carol").Return(position, nil)
	mockTicketRepo.On("GetBalance", ctx, int64(1), models.TeamA, "carol").Return(int64(100), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vault, nil)
	mockTicketRepo.On("Burn", ctx, int64(1), models.TeamA, "carol", int64(100)).Return(nil)
	mockVaultRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockPositionRepo.On("Update", ctx, mock.Anything).Return(nil)

	result, err := service.Claim(ctx, 1, "carol")

	require.NoError(t, err)
	assert.Equal(t, int64(3), result.YieldShare)
	assert.Equal(t, int64(103), result.Payout)
}

func TestSettlementService_Claim_AlreadyClaimed(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)
	position := &models.UserPosition{BattleID: 1, Participant: "alice", Team: models.TeamA, AmountStaked: 100, Claimed: true}

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "alice").Return(position, nil)

	_, err := service.Claim(ctx, 1, "alice")

	assert.ErrorIs(t, err, models.ErrAlreadyClaimed)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestSettlementService_Claim_BeforeSettlement(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, _, _, _ := createTestSettlementService()

	battle := createEndedBattle(1)

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)

	_, err := service.Claim(ctx, 1, "alice")

	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestSettlementService_Claim_InsufficientVaultFunds(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, mockVaultRepo, mockTicketRepo, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)
	position := &models.UserPosition{BattleID: 1, Participant: "alice", Team: models.TeamA, AmountStaked: 100}
	// Nearly everything already paid out
	vault := &models.Vault{BattleID: 1, Team: models.TeamA, TotalAmount: 100, RewardPool: 10, ShareSnapshot: 100, ClaimedAmount: 50}

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "alice").Return(position, nil)
	mockTicketRepo.On("GetBalance", ctx, int64(1), models.TeamA, "alice").Return(int64(100), nil)
	mockVaultRepo.On("Get", ctx, int64(1), models.TeamA).Return(vault, nil)

	_, err := service.Claim(ctx, 1, "alice")

	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestSettlementService_Claim_UnknownPosition(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockBattleRepo, _, _, mockPositionRepo, _, _ := createTestSettlementService()

	battle := createSettledBattle(1, models.TeamA)

	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBattleRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(battle, nil)
	mockPositionRepo.On("Get", ctx, int64(1), "mallory").Return(nil, nil)

	_, err := service.Claim(ctx, 1, "mallory")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

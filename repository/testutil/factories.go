package testutil

import (
	"time"

	"warchest/models"
)

// CreateTestBattle creates an active test battle with sensible defaults
func CreateTestBattle(battleID int64) *models.Battle {
	now := time.Now()
	return &models.Battle{
		ID:             battleID,
		FeedA:          "feed/sol-usd",
		FeedB:          "feed/btc-usd",
		InitialPriceA:  100 * models.PriceScale,
		InitialPriceB:  200 * models.PriceScale,
		StartTime:      now,
		EndTime:        now.Add(24 * time.Hour),
		Status:         models.BattleStatusActive,
		Winner:         models.TeamNone,
		LendingEnabled: false,
	}
}

// CreateTestBattleEnded creates a battle whose window has already closed
func CreateTestBattleEnded(battleID int64) *models.Battle {
	battle := CreateTestBattle(battleID)
	battle.StartTime = time.Now().Add(-48 * time.Hour)
	battle.EndTime = time.Now().Add(-time.Hour)
	return battle
}

// CreateTestBattleWithLending creates a battle with lending enabled
func CreateTestBattleWithLending(battleID int64) *models.Battle {
	battle := CreateTestBattle(battleID)
	battle.LendingEnabled = true
	return battle
}

// CreateTestVault creates an empty vault for a battle team
func CreateTestVault(battleID int64, team models.Team) *models.Vault {
	return &models.Vault{
		BattleID: battleID,
		Team:     team,
	}
}

// CreateTestVaultWithBalance creates a vault holding the given principal
func CreateTestVaultWithBalance(battleID int64, team models.Team, amount int64) *models.Vault {
	vault := CreateTestVault(battleID, team)
	vault.TotalAmount = amount
	return vault
}

// CreateTestLedger creates a ticket ledger for a battle team
func CreateTestLedger(battleID int64, team models.Team) *models.TicketLedger {
	return &models.TicketLedger{
		BattleID: battleID,
		Team:     team,
	}
}

// CreateTestPosition creates an open position with the given stake
func CreateTestPosition(battleID int64, participant string, team models.Team, amount int64) *models.UserPosition {
	return &models.UserPosition{
		BattleID:     battleID,
		Participant:  participant,
		Team:         team,
		AmountStaked: amount,
		StakeTime:    time.Now(),
	}
}

// CreateTestQuote creates a price quote published now
func CreateTestQuote(feedRef string, price int64) *models.PriceQuote {
	return &models.PriceQuote{
		FeedRef:     feedRef,
		Price:       price,
		PublishedAt: time.Now(),
	}
}

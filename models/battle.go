package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the fixed-point scale for oracle prices (10^8).
const PriceScale = 100_000_000

// BattleStatus represents the lifecycle state of a battle
type BattleStatus string

const (
	BattleStatusActive    BattleStatus = "active"
	BattleStatusSettled   BattleStatus = "settled"
	BattleStatusCancelled BattleStatus = "cancelled"
)

// Team identifies one side of a battle. TeamNone doubles as the tie
// outcome for the winner field.
type Team string

const (
	TeamNone Team = "none"
	TeamA    Team = "team_a"
	TeamB    Team = "team_b"
)

// IsValid reports whether t names an actual side.
func (t Team) IsValid() bool {
	return t == TeamA || t == TeamB
}

// Opponent returns the other side.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return TeamNone
}

// Battle represents one two-team, fixed-duration staking contest.
// Prices are unsigned fixed-point integers scaled by PriceScale.
type Battle struct {
	ID             int64        `db:"id"`
	FeedA          string       `db:"feed_a"`
	FeedB          string       `db:"feed_b"`
	InitialPriceA  int64        `db:"initial_price_a"`
	InitialPriceB  int64        `db:"initial_price_b"`
	FinalPriceA    *int64       `db:"final_price_a"`
	FinalPriceB    *int64       `db:"final_price_b"`
	StartTime      time.Time    `db:"start_time"`
	EndTime        time.Time    `db:"end_time"`
	Status         BattleStatus `db:"status"`
	Winner         Team         `db:"winner"`
	LendingEnabled bool         `db:"lending_enabled"`
	CreatedAt      time.Time    `db:"created_at"`
	SettledAt      *time.Time   `db:"settled_at"`
}

// IsActive checks if the battle is still running
func (b *Battle) IsActive() bool {
	return b.Status == BattleStatusActive
}

// IsSettled checks if the battle has been settled
func (b *Battle) IsSettled() bool {
	return b.Status == BattleStatusSettled
}

// IsCancelled checks if the battle was aborted
func (b *Battle) IsCancelled() bool {
	return b.Status == BattleStatusCancelled
}

// IsEnded reports whether the contest window has elapsed.
func (b *Battle) IsEnded(now time.Time) bool {
	return !now.Before(b.EndTime)
}

// CanAcceptDeposits reports whether new stakes are allowed: the battle
// must be active and the window still open.
func (b *Battle) CanAcceptDeposits(now time.Time) bool {
	return b.IsActive() && now.Before(b.EndTime)
}

// GrowthExceeds reports whether finalX/initialX > finalY/initialY.
// The comparison cross-multiplies in decimal, so it is exact: no division,
// no rounding, and equal ratios compare as a tie regardless of magnitude.
func GrowthExceeds(initialX, finalX, initialY, finalY int64) bool {
	lhs := decimal.NewFromInt(finalX).Mul(decimal.NewFromInt(initialY))
	rhs := decimal.NewFromInt(finalY).Mul(decimal.NewFromInt(initialX))
	return lhs.GreaterThan(rhs)
}

// GrowthRatio returns final/initial truncated toward zero to 8 decimal
// places. Used for reporting only; winner determination uses the exact
// comparison in GrowthExceeds.
func GrowthRatio(initial, final int64) decimal.Decimal {
	if initial == 0 {
		return decimal.Zero
	}
	q, _ := decimal.NewFromInt(final).
		Shift(8).
		QuoRem(decimal.NewFromInt(initial), 0)
	return q.Shift(-8)
}

// DetermineWinner compares the growth of the two sides given their final
// prices. Equal growth is a tie (TeamNone).
func (b *Battle) DetermineWinner(finalA, finalB int64) Team {
	if GrowthExceeds(b.InitialPriceA, finalA, b.InitialPriceB, finalB) {
		return TeamA
	}
	if GrowthExceeds(b.InitialPriceB, finalB, b.InitialPriceA, finalA) {
		return TeamB
	}
	return TeamNone
}

// BattleDetail combines a battle with its vaults and ticket ledgers
type BattleDetail struct {
	Battle  *Battle
	Vaults  map[Team]*Vault
	Ledgers map[Team]*TicketLedger
}

// SettlementResult represents the outcome of settling a battle
type SettlementResult struct {
	Battle      *Battle
	Winner      Team
	FinalPriceA int64
	FinalPriceB int64
	RewardPoolA int64
	RewardPoolB int64
	TotalYield  int64
}

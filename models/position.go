package models

import "time"

// UserPosition records one participant's stake in one battle. The team is
// fixed by the first deposit; later deposits must target the same team.
// Claimed flips once on claim or withdrawal and is terminal.
type UserPosition struct {
	BattleID     int64      `db:"battle_id"`
	Participant  string     `db:"participant"`
	Team         Team       `db:"team"`
	AmountStaked int64      `db:"amount_staked"`
	StakeTime    time.Time  `db:"stake_time"`
	Claimed      bool       `db:"claimed"`
	PayoutAmount *int64     `db:"payout_amount"`
	ClaimedAt    *time.Time `db:"claimed_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsOpen reports whether the position can still be claimed or withdrawn.
func (p *UserPosition) IsOpen() bool {
	return !p.Claimed
}

// DepositResult is returned from a successful deposit
type DepositResult struct {
	Position     *UserPosition
	Vault        *Vault
	SharesMinted int64
}

// WithdrawalResult is returned from an early withdrawal
type WithdrawalResult struct {
	Position     *UserPosition
	ReturnAmount int64
	Penalty      int64
	SharesBurned int64
}

// ClaimResult is returned from a post-settlement claim
type ClaimResult struct {
	Position     *UserPosition
	Principal    int64
	YieldShare   int64
	Payout       int64
	SharesBurned int64
}

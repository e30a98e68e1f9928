package models

// Vault is the per-team ledger of principal and its lent/idle split.
//
// Reward distribution: the winning team's vault receives the combined
// yield of both sides plus all early-withdrawal penalties as its
// reward_pool at settlement; the losing vault's pool is zero. On a tie
// each vault keeps its own yield and penalties.
type Vault struct {
	BattleID int64 `db:"battle_id"`
	Team     Team  `db:"team"`

	// TotalAmount is the active (non-withdrawn) principal staked on this
	// team.
	TotalAmount int64 `db:"total_amount"`

	// LentAmount is the principal currently placed with the yield
	// adapter; zero when lending is disabled or after settlement.
	LentAmount int64 `db:"lent_amount"`

	// LendingReceipt identifies the lent position. Set iff LentAmount > 0.
	LendingReceipt *string `db:"lending_receipt"`

	// YieldRealized is what came back above principal when the lent
	// position was closed. Valid after settlement.
	YieldRealized int64 `db:"yield_realized"`

	// PenaltyReserve accumulates early-withdrawal penalties; it is folded
	// into the reward pool at settlement.
	PenaltyReserve int64 `db:"penalty_reserve"`

	// RewardPool and ShareSnapshot are fixed at settlement. Payouts are
	// computed against the snapshot so claim order cannot change anyone's
	// share.
	RewardPool    int64 `db:"reward_pool"`
	ShareSnapshot int64 `db:"share_snapshot"`

	// ClaimedAmount is the total paid out of this vault by claims.
	ClaimedAmount int64 `db:"claimed_amount"`
}

// IdleAmount returns the principal not currently lent out.
func (v *Vault) IdleAmount() int64 {
	return v.TotalAmount - v.LentAmount
}

// HasLentFunds reports whether any principal is with the adapter.
func (v *Vault) HasLentFunds() bool {
	return v.LentAmount > 0
}

// Claimable returns the funds still available for claims after
// settlement: principal plus the fixed reward pool, minus what has
// already been paid out.
func (v *Vault) Claimable() int64 {
	return v.TotalAmount + v.RewardPool - v.ClaimedAmount
}

// YieldShareFor computes a claimant's slice of the reward pool from their
// ticket shares, truncated against the settlement share snapshot.
func (v *Vault) YieldShareFor(shares int64) int64 {
	return ProRataShare(shares, v.RewardPool, v.ShareSnapshot)
}

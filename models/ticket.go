package models

// TicketLedger tracks the outstanding fungible shares for one team of one
// battle. Shares are minted 1:1 with deposited principal and never
// rebased; yield is distributed out-of-band by settlement, not by share
// appreciation.
type TicketLedger struct {
	BattleID    int64 `db:"battle_id"`
	Team        Team  `db:"team"`
	TotalShares int64 `db:"total_shares"`
}

// TicketBalance is one participant's share balance within a team's
// ledger.
type TicketBalance struct {
	BattleID    int64  `db:"battle_id"`
	Team        Team   `db:"team"`
	Participant string `db:"participant"`
	Shares      int64  `db:"shares"`
}

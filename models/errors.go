package models

import "errors"

// Sentinel errors for every way a battle operation can be rejected.
// Services wrap these with context via fmt.Errorf("...: %w", err) so
// callers can match with errors.Is.
var (
	// ErrNotFound indicates the battle or position does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates the operation is not legal for the
	// battle's current status.
	ErrInvalidState = errors.New("invalid battle state")

	// ErrBattleNotEnded indicates settlement was attempted before end_time.
	ErrBattleNotEnded = errors.New("battle has not ended")

	// ErrInsufficientFunds indicates a payout or withdrawal would exceed
	// the vault's holdings.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares indicates a burn larger than the participant's
	// ticket balance.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrAlreadyClaimed indicates the position has already been paid out.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrPositionClosed indicates the position was exited by withdrawal
	// and cannot be re-entered.
	ErrPositionClosed = errors.New("position closed")

	// ErrTeamMismatch indicates a deposit to a different team than the
	// participant previously chose.
	ErrTeamMismatch = errors.New("team mismatch")

	// ErrAdapterFailure indicates the yield venue call failed; the whole
	// operation rolls back and the caller may retry.
	ErrAdapterFailure = errors.New("yield adapter failure")

	// ErrStalePrice indicates the oracle quote is older than the
	// configured staleness bound.
	ErrStalePrice = errors.New("stale price")

	// ErrOraclePriceMissing indicates no quote exists for the feed.
	ErrOraclePriceMissing = errors.New("oracle price missing")

	// ErrArithmeticOverflow indicates a computation left the fixed-point
	// domain. Never silently wrapped.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

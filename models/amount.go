package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// BpsDivisor converts basis points to a fraction (100% = 10000 bps).
const BpsDivisor = 10_000

// AddAmount adds two non-negative amounts, rejecting overflow.
func AddAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrArithmeticOverflow
	}
	if a > math.MaxInt64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

// SubAmount subtracts b from a, rejecting underflow below zero.
func SubAmount(a, b int64) (int64, error) {
	if b < 0 || a < b {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

// PenaltyAmount computes a basis-point penalty on amount, truncating
// toward zero. A 100-unit stake at 100 bps yields exactly 1.
func PenaltyAmount(amount, penaltyBps int64) int64 {
	if amount <= 0 || penaltyBps <= 0 {
		return 0
	}
	p := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(penaltyBps)).
		Div(decimal.NewFromInt(BpsDivisor)).
		Truncate(0)
	return p.IntPart()
}

// ProRataShare computes shares * pool / totalShares with truncation toward
// zero. The intermediate product is computed in decimal so it cannot
// overflow int64. Each claim loses less than one smallest unit to
// truncation; the aggregate dust stays in the vault and is bounded by the
// number of claimants.
func ProRataShare(shares, pool, totalShares int64) int64 {
	if shares <= 0 || pool <= 0 || totalShares <= 0 {
		return 0
	}
	q, _ := decimal.NewFromInt(shares).
		Mul(decimal.NewFromInt(pool)).
		QuoRem(decimal.NewFromInt(totalShares), 0)
	return q.IntPart()
}

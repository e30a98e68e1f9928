package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAmount(t *testing.T) {
	sum, err := AddAmount(100, 50)
	assert.NoError(t, err)
	assert.Equal(t, int64(150), sum)

	_, err = AddAmount(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = AddAmount(-1, 5)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestSubAmount(t *testing.T) {
	diff, err := SubAmount(100, 40)
	assert.NoError(t, err)
	assert.Equal(t, int64(60), diff)

	diff, err = SubAmount(100, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), diff)

	_, err = SubAmount(40, 100)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestPenaltyAmount(t *testing.T) {
	// 1% of 100 is exactly 1, leaving 99 for the withdrawer
	assert.Equal(t, int64(1), PenaltyAmount(100, 100))

	// Truncation: 1% of 99 is 0.99, kept penalty is 0
	assert.Equal(t, int64(0), PenaltyAmount(99, 100))

	// 2.5% of 1000
	assert.Equal(t, int64(25), PenaltyAmount(1000, 250))

	assert.Equal(t, int64(0), PenaltyAmount(0, 100))
	assert.Equal(t, int64(0), PenaltyAmount(100, 0))
}

func TestProRataShare(t *testing.T) {
	// Even split
	assert.Equal(t, int64(5), ProRataShare(100, 10, 200))

	// Truncation toward zero: 1*10/3 = 3.33...
	assert.Equal(t, int64(3), ProRataShare(1, 10, 3))

	// Whole pool to the sole holder
	assert.Equal(t, int64(10), ProRataShare(200, 10, 200))

	assert.Equal(t, int64(0), ProRataShare(0, 10, 200))
	assert.Equal(t, int64(0), ProRataShare(100, 10, 0))
}

func TestProRataShare_LargeValuesNoOverflow(t *testing.T) {
	// shares * pool overflows int64; the decimal intermediate does not
	shares := int64(4_000_000_000)
	pool := int64(4_000_000_000)
	total := int64(8_000_000_000)
	assert.Equal(t, int64(2_000_000_000), ProRataShare(shares, pool, total))
}

func TestProRataShare_DustStaysBounded(t *testing.T) {
	// Three equal claimants of a pool of 10: 3+3+3 pays 9, dust of 1
	total := int64(300)
	pool := int64(10)
	var paid int64
	for i := 0; i < 3; i++ {
		paid += ProRataShare(100, pool, total)
	}
	assert.Equal(t, int64(9), paid)
	assert.Less(t, pool-paid, int64(3))
}

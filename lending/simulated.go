package lending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warchest/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// SimulatedAdapter is an in-memory yield venue that accrues linear
// interest on lent principal. It stands in for a real venue integration
// in development and test deployments.
//
// Accrual is yieldRateBps basis points per day, truncated toward zero,
// and is banked whenever the position changes so recalled principal
// keeps the interest it has already earned.
type SimulatedAdapter struct {
	mu           sync.Mutex
	positions    map[string]*simulatedPosition
	yieldRateBps int64
	now          func() time.Time
}

type simulatedPosition struct {
	principal int64
	accrued   int64
	since     time.Time
}

// NewSimulatedAdapter creates a venue accruing yieldRateBps per day
func NewSimulatedAdapter(yieldRateBps int64) *SimulatedAdapter {
	return &SimulatedAdapter{
		positions:    make(map[string]*simulatedPosition),
		yieldRateBps: yieldRateBps,
		now:          time.Now,
	}
}

// WithClock overrides the adapter's clock; used by tests to advance time
func (a *SimulatedAdapter) WithClock(now func() time.Time) *SimulatedAdapter {
	a.now = now
	return a
}

// Deposit places amount with the venue. An empty receipt opens a new
// position; a non-empty receipt merges into the existing one.
func (a *SimulatedAdapter) Deposit(ctx context.Context, receipt string, amount int64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("deposit amount must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if receipt == "" {
		receipt = uuid.New().String()
		a.positions[receipt] = &simulatedPosition{
			principal: amount,
			since:     a.now(),
		}
		log.WithFields(log.Fields{
			"receipt": receipt,
			"amount":  amount,
		}).Debug("Opened lending position")
		return receipt, nil
	}

	pos, ok := a.positions[receipt]
	if !ok {
		return "", fmt.Errorf("unknown lending receipt %s", receipt)
	}
	a.bank(pos)
	pos.principal += amount

	log.WithFields(log.Fields{
		"receipt":   receipt,
		"amount":    amount,
		"principal": pos.principal,
	}).Debug("Merged into lending position")

	return receipt, nil
}

// Withdraw closes the position, returning principal and accrued yield
func (a *SimulatedAdapter) Withdraw(ctx context.Context, receipt string) (int64, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos, ok := a.positions[receipt]
	if !ok {
		return 0, 0, fmt.Errorf("unknown lending receipt %s", receipt)
	}
	a.bank(pos)
	delete(a.positions, receipt)

	log.WithFields(log.Fields{
		"receipt":   receipt,
		"principal": pos.principal,
		"yield":     pos.accrued,
	}).Debug("Closed lending position")

	return pos.principal, pos.accrued, nil
}

// Recall pulls amount of principal out without closing the position.
// Interest already banked stays with the position.
func (a *SimulatedAdapter) Recall(ctx context.Context, receipt string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("recall amount must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pos, ok := a.positions[receipt]
	if !ok {
		return fmt.Errorf("unknown lending receipt %s", receipt)
	}
	if amount > pos.principal {
		return fmt.Errorf("recall of %d exceeds principal %d", amount, pos.principal)
	}
	a.bank(pos)
	pos.principal -= amount

	return nil
}

// bank realizes interest accrued since the last mutation. Caller holds
// the lock.
func (a *SimulatedAdapter) bank(pos *simulatedPosition) {
	now := a.now()
	elapsed := now.Sub(pos.since)
	if elapsed > 0 && pos.principal > 0 && a.yieldRateBps > 0 {
		days := decimal.NewFromInt(int64(elapsed)).
			Div(decimal.NewFromInt(int64(24 * time.Hour)))
		earned := decimal.NewFromInt(pos.principal).
			Mul(decimal.NewFromInt(a.yieldRateBps)).
			Div(decimal.NewFromInt(models.BpsDivisor)).
			Mul(days).
			Truncate(0)
		pos.accrued += earned.IntPart()
	}
	pos.since = now
}

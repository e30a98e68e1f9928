// Package lending provides yield venue adapters for vault capital.
package lending

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NullAdapter is an identity venue: capital placed with it is held as-is
// and returned in full with zero yield. It backs lending-disabled
// deployments so battle flows work unchanged without a real venue.
type NullAdapter struct {
	mu        sync.Mutex
	positions map[string]int64
}

// NewNullAdapter creates an adapter for lending-disabled deployments
func NewNullAdapter() *NullAdapter {
	return &NullAdapter{positions: make(map[string]int64)}
}

func (a *NullAdapter) Deposit(ctx context.Context, receipt string, amount int64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("deposit amount must be positive, got %d", amount)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if receipt == "" {
		receipt = uuid.New().String()
		a.positions[receipt] = amount
		return receipt, nil
	}

	principal, ok := a.positions[receipt]
	if !ok {
		return "", fmt.Errorf("unknown receipt %s", receipt)
	}
	a.positions[receipt] = principal + amount
	return receipt, nil
}

func (a *NullAdapter) Withdraw(ctx context.Context, receipt string) (int64, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	principal, ok := a.positions[receipt]
	if !ok {
		return 0, 0, fmt.Errorf("unknown receipt %s", receipt)
	}
	delete(a.positions, receipt)
	return principal, 0, nil
}

func (a *NullAdapter) Recall(ctx context.Context, receipt string, amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	principal, ok := a.positions[receipt]
	if !ok {
		return fmt.Errorf("unknown receipt %s", receipt)
	}
	if amount <= 0 || amount > principal {
		return fmt.Errorf("cannot recall %d from position holding %d", amount, principal)
	}
	a.positions[receipt] = principal - amount
	return nil
}

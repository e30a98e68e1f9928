package repository

import (
	"context"
	"fmt"

	"warchest/database"
	"warchest/models"
	"warchest/service"

	"github.com/jackc/pgx/v5"
)

// VaultRepository implements the service.VaultRepository interface
type VaultRepository struct {
	q queryable
}

// NewVaultRepository creates a new vault repository
func NewVaultRepository(db *database.DB) *VaultRepository {
	return &VaultRepository{q: db.Pool}
}

// newVaultRepositoryWithTx creates a new vault repository with a transaction
func newVaultRepositoryWithTx(tx queryable) service.VaultRepository {
	return &VaultRepository{q: tx}
}

// Create inserts a fresh vault for (battle, team)
func (r *VaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	query := `
		INSERT INTO vaults (
			battle_id, team, total_amount, lent_amount, lending_receipt,
			yield_realized, penalty_reserve, reward_pool, share_snapshot, claimed_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(ctx, query,
		vault.BattleID,
		vault.Team,
		vault.TotalAmount,
		vault.LentAmount,
		vault.LendingReceipt,
		vault.YieldRealized,
		vault.PenaltyReserve,
		vault.RewardPool,
		vault.ShareSnapshot,
		vault.ClaimedAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	return nil
}

// Get retrieves the vault for (battle, team)
func (r *VaultRepository) Get(ctx context.Context, battleID int64, team models.Team) (*models.Vault, error) {
	query := `
		SELECT battle_id, team, total_amount, lent_amount, lending_receipt,
		       yield_realized, penalty_reserve, reward_pool, share_snapshot, claimed_amount
		FROM vaults
		WHERE battle_id = $1 AND team = $2
	`

	var vault models.Vault
	err := r.q.QueryRow(ctx, query, battleID, team).Scan(
		&vault.BattleID,
		&vault.Team,
		&vault.TotalAmount,
		&vault.LentAmount,
		&vault.LendingReceipt,
		&vault.YieldRealized,
		&vault.PenaltyReserve,
		&vault.RewardPool,
		&vault.ShareSnapshot,
		&vault.ClaimedAmount,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}

	return &vault, nil
}

// Update persists all mutable vault fields
func (r *VaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	query := `
		UPDATE vaults
		SET total_amount = $3, lent_amount = $4, lending_receipt = $5,
		    yield_realized = $6, penalty_reserve = $7, reward_pool = $8,
		    share_snapshot = $9, claimed_amount = $10
		WHERE battle_id = $1 AND team = $2
	`

	result, err := r.q.Exec(ctx, query,
		vault.BattleID,
		vault.Team,
		vault.TotalAmount,
		vault.LentAmount,
		vault.LendingReceipt,
		vault.YieldRealized,
		vault.PenaltyReserve,
		vault.RewardPool,
		vault.ShareSnapshot,
		vault.ClaimedAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to update vault: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("vault (%d, %s): %w", vault.BattleID, vault.Team, models.ErrNotFound)
	}

	return nil
}

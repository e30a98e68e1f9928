package repository

import (
	"context"
	"fmt"

	"warchest/database"
	"warchest/models"
	"warchest/service"

	"github.com/jackc/pgx/v5"
)

// TicketRepository implements share mint/burn accounting for team ledgers
type TicketRepository struct {
	q queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepositoryWithTx creates a new ticket repository with a transaction
func newTicketRepositoryWithTx(tx queryable) service.TicketRepository {
	return &TicketRepository{q: tx}
}

// CreateLedger inserts an empty ledger for (battle, team)
func (r *TicketRepository) CreateLedger(ctx context.Context, ledger *models.TicketLedger) error {
	query := `
		INSERT INTO ticket_ledgers (battle_id, team, total_shares)
		VALUES ($1, $2, $3)
	`

	_, err := r.q.Exec(ctx, query, ledger.BattleID, ledger.Team, ledger.TotalShares)
	if err != nil {
		return fmt.Errorf("failed to create ticket ledger: %w", err)
	}

	return nil
}

// GetLedger retrieves the ledger for (battle, team)
func (r *TicketRepository) GetLedger(ctx context.Context, battleID int64, team models.Team) (*models.TicketLedger, error) {
	query := `
		SELECT battle_id, team, total_shares
		FROM ticket_ledgers
		WHERE battle_id = $1 AND team = $2
	`

	var ledger models.TicketLedger
	err := r.q.QueryRow(ctx, query, battleID, team).Scan(
		&ledger.BattleID,
		&ledger.Team,
		&ledger.TotalShares,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket ledger: %w", err)
	}

	return &ledger, nil
}

// GetBalance returns the participant's share balance, 0 if they hold none
func (r *TicketRepository) GetBalance(ctx context.Context, battleID int64, team models.Team, participant string) (int64, error) {
	query := `
		SELECT shares
		FROM ticket_balances
		WHERE battle_id = $1 AND team = $2 AND participant = $3
	`

	var shares int64
	err := r.q.QueryRow(ctx, query, battleID, team, participant).Scan(&shares)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ticket balance: %w", err)
	}

	return shares, nil
}

// Mint increases the participant's balance and the ledger total by amount
func (r *TicketRepository) Mint(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("mint amount must be positive")
	}

	balanceQuery := `
		INSERT INTO ticket_balances (battle_id, team, participant, shares)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (battle_id, team, participant)
		DO UPDATE SET shares = ticket_balances.shares + EXCLUDED.shares
	`
	if _, err := r.q.Exec(ctx, balanceQuery, battleID, team, participant, amount); err != nil {
		return fmt.Errorf("failed to mint ticket balance: %w", err)
	}

	supplyQuery := `
		UPDATE ticket_ledgers
		SET total_shares = total_shares + $3
		WHERE battle_id = $1 AND team = $2
	`
	result, err := r.q.Exec(ctx, supplyQuery, battleID, team, amount)
	if err != nil {
		return fmt.Errorf("failed to mint ticket supply: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ticket ledger (%d, %s): %w", battleID, team, models.ErrNotFound)
	}

	return nil
}

// Burn decreases the participant's balance and the ledger total by amount
func (r *TicketRepository) Burn(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("burn amount must be positive")
	}

	// The guard in the WHERE clause keeps a concurrent or buggy caller
	// from driving a balance negative.
	balanceQuery := `
		UPDATE ticket_balances
		SET shares = shares - $4
		WHERE battle_id = $1 AND team = $2 AND participant = $3 AND shares >= $4
	`
	result, err := r.q.Exec(ctx, balanceQuery, battleID, team, participant, amount)
	if err != nil {
		return fmt.Errorf("failed to burn ticket balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("burn %d shares for %s: %w", amount, participant, models.ErrInsufficientShares)
	}

	supplyQuery := `
		UPDATE ticket_ledgers
		SET total_shares = total_shares - $3
		WHERE battle_id = $1 AND team = $2 AND total_shares >= $3
	`
	result, err = r.q.Exec(ctx, supplyQuery, battleID, team, amount)
	if err != nil {
		return fmt.Errorf("failed to burn ticket supply: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("burn %d shares from ledger (%d, %s): %w", amount, battleID, team, models.ErrInsufficientShares)
	}

	return nil
}

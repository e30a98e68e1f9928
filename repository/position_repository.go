package repository

import (
	"context"
	"fmt"

	"warchest/database"
	"warchest/models"
	"warchest/service"

	"github.com/jackc/pgx/v5"
)

// PositionRepository implements the service.PositionRepository interface
type PositionRepository struct {
	q queryable
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{q: db.Pool}
}

// newPositionRepositoryWithTx creates a new position repository with a transaction
func newPositionRepositoryWithTx(tx queryable) service.PositionRepository {
	return &PositionRepository{q: tx}
}

// Get retrieves a participant's position in a battle
func (r *PositionRepository) Get(ctx context.Context, battleID int64, participant string) (*models.UserPosition, error) {
	query := `
		SELECT battle_id, participant, team, amount_staked, stake_time,
		       claimed, payout_amount, claimed_at, created_at, updated_at
		FROM user_positions
		WHERE battle_id = $1 AND participant = $2
	`

	var position models.UserPosition
	err := r.q.QueryRow(ctx, query, battleID, participant).Scan(
		&position.BattleID,
		&position.Participant,
		&position.Team,
		&position.AmountStaked,
		&position.StakeTime,
		&position.Claimed,
		&position.PayoutAmount,
		&position.ClaimedAt,
		&position.CreatedAt,
		&position.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &position, nil
}

// Create inserts a new position
func (r *PositionRepository) Create(ctx context.Context, position *models.UserPosition) error {
	query := `
		INSERT INTO user_positions (battle_id, participant, team, amount_staked, stake_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		position.BattleID,
		position.Participant,
		position.Team,
		position.AmountStaked,
		position.StakeTime,
	).Scan(&position.CreatedAt, &position.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	return nil
}

// Update persists a position's stake amount and claim status
func (r *PositionRepository) Update(ctx context.Context, position *models.UserPosition) error {
	query := `
		UPDATE user_positions
		SET amount_staked = $3, claimed = $4, payout_amount = $5,
		    claimed_at = $6, updated_at = NOW()
		WHERE battle_id = $1 AND participant = $2
	`

	result, err := r.q.Exec(ctx, query,
		position.BattleID,
		position.Participant,
		position.AmountStaked,
		position.Claimed,
		position.PayoutAmount,
		position.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("position (%d, %s): %w", position.BattleID, position.Participant, models.ErrNotFound)
	}

	return nil
}

// GetByBattle returns all positions for a battle
func (r *PositionRepository) GetByBattle(ctx context.Context, battleID int64) ([]*models.UserPosition, error) {
	query := `
		SELECT battle_id, participant, team, amount_staked, stake_time,
		       claimed, payout_amount, claimed_at, created_at, updated_at
		FROM user_positions
		WHERE battle_id = $1
		ORDER BY stake_time
	`

	rows, err := r.q.Query(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.UserPosition
	for rows.Next() {
		var position models.UserPosition
		err := rows.Scan(
			&position.BattleID,
			&position.Participant,
			&position.Team,
			&position.AmountStaked,
			&position.StakeTime,
			&position.Claimed,
			&position.PayoutAmount,
			&position.ClaimedAt,
			&position.CreatedAt,
			&position.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &position)
	}

	return positions, rows.Err()
}

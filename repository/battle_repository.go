package repository

import (
	"context"
	"fmt"

	"warchest/database"
	"warchest/models"
	"warchest/service"

	"github.com/jackc/pgx/v5"
)

const battleColumns = `
	id, feed_a, feed_b, initial_price_a, initial_price_b,
	final_price_a, final_price_b, start_time, end_time,
	status, winner, lending_enabled, created_at, settled_at
`

// BattleRepository implements the service.BattleRepository interface
type BattleRepository struct {
	q queryable
}

// NewBattleRepository creates a new battle repository
func NewBattleRepository(db *database.DB) *BattleRepository {
	return &BattleRepository{q: db.Pool}
}

// newBattleRepositoryWithTx creates a new battle repository with a transaction
func newBattleRepositoryWithTx(tx queryable) service.BattleRepository {
	return &BattleRepository{q: tx}
}

// Create inserts a new battle row
func (r *BattleRepository) Create(ctx context.Context, battle *models.Battle) error {
	query := `
		INSERT INTO battles (
			id, feed_a, feed_b, initial_price_a, initial_price_b,
			start_time, end_time, status, winner, lending_enabled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		battle.ID,
		battle.FeedA,
		battle.FeedB,
		battle.InitialPriceA,
		battle.InitialPriceB,
		battle.StartTime,
		battle.EndTime,
		battle.Status,
		battle.Winner,
		battle.LendingEnabled,
	).Scan(&battle.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}

	return nil
}

// GetByID retrieves a battle by its ID
func (r *BattleRepository) GetByID(ctx context.Context, id int64) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1`
	return r.scanBattle(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a battle with a row lock so conflicting
// operations on the same aggregate serialize.
func (r *BattleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1 FOR UPDATE`
	return r.scanBattle(r.q.QueryRow(ctx, query, id))
}

func (r *BattleRepository) scanBattle(row pgx.Row) (*models.Battle, error) {
	var battle models.Battle
	err := row.Scan(
		&battle.ID,
		&battle.FeedA,
		&battle.FeedB,
		&battle.InitialPriceA,
		&battle.InitialPriceB,
		&battle.FinalPriceA,
		&battle.FinalPriceB,
		&battle.StartTime,
		&battle.EndTime,
		&battle.Status,
		&battle.Winner,
		&battle.LendingEnabled,
		&battle.CreatedAt,
		&battle.SettledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}

	return &battle, nil
}

// Update persists a battle's mutable fields
func (r *BattleRepository) Update(ctx context.Context, battle *models.Battle) error {
	query := `
		UPDATE battles
		SET final_price_a = $2, final_price_b = $3, status = $4,
		    winner = $5, settled_at = $6
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		battle.ID,
		battle.FinalPriceA,
		battle.FinalPriceB,
		battle.Status,
		battle.Winner,
		battle.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update battle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("battle %d: %w", battle.ID, models.ErrNotFound)
	}

	return nil
}

// List returns battles, optionally filtered by status, newest first
func (r *BattleRepository) List(ctx context.Context, status *models.BattleStatus) ([]*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	defer rows.Close()

	var battles []*models.Battle
	for rows.Next() {
		var battle models.Battle
		err := rows.Scan(
			&battle.ID,
			&battle.FeedA,
			&battle.FeedB,
			&battle.InitialPriceA,
			&battle.InitialPriceB,
			&battle.FinalPriceA,
			&battle.FinalPriceB,
			&battle.StartTime,
			&battle.EndTime,
			&battle.Status,
			&battle.Winner,
			&battle.LendingEnabled,
			&battle.CreatedAt,
			&battle.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		battles = append(battles, &battle)
	}

	return battles, rows.Err()
}

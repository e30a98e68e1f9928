package service

import (
	"context"
	"time"

	"warchest/events"
	"warchest/models"
)

// YieldAdapter abstracts the external venue that idle vault capital is
// lent to. A null implementation exists for lending-disabled battles.
//
// All three calls are synchronous; any failure aborts the enclosing unit
// of work and is surfaced to the caller for retry.
type YieldAdapter interface {
	// Deposit places amount with the venue. An empty receipt opens a new
	// position; a non-empty receipt merges into the existing one. Returns
	// the receipt identifying the position.
	Deposit(ctx context.Context, receipt string, amount int64) (string, error)

	// Withdraw closes the position identified by receipt, returning the
	// principal and the yield accrued on top of it.
	Withdraw(ctx context.Context, receipt string) (principal int64, yield int64, err error)

	// Recall pulls amount of principal out of the position without
	// closing it and without realizing yield. Yield attribution for the
	// recalled slice stays with the remaining position.
	Recall(ctx context.Context, receipt string, amount int64) error
}

// PriceOracle reads a timestamped fixed-point price for a feed reference.
// Implementations must return models.ErrOraclePriceMissing when no quote
// exists and models.ErrStalePrice when the freshest quote is older than
// maxStaleness.
type PriceOracle interface {
	Read(ctx context.Context, feedRef string, maxStaleness time.Duration) (price int64, publishedAt time.Time, err error)
}

// BattleRepository defines data access for battle records
type BattleRepository interface {
	// Create inserts a new battle row
	Create(ctx context.Context, battle *models.Battle) error

	// GetByID retrieves a battle, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Battle, error)

	// GetByIDForUpdate retrieves a battle with a row lock, serializing
	// conflicting operations on the same aggregate
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Battle, error)

	// Update persists prices, status, winner and settlement time
	Update(ctx context.Context, battle *models.Battle) error

	// List returns battles, optionally filtered by status
	List(ctx context.Context, status *models.BattleStatus) ([]*models.Battle, error)
}

// VaultRepository defines data access for per-team vaults
type VaultRepository interface {
	// Create inserts a fresh vault for (battle, team)
	Create(ctx context.Context, vault *models.Vault) error

	// Get retrieves the vault for (battle, team), nil if absent
	Get(ctx context.Context, battleID int64, team models.Team) (*models.Vault, error)

	// Update persists all mutable vault fields
	Update(ctx context.Context, vault *models.Vault) error
}

// TicketRepository defines mint/burn accounting for team share ledgers
type TicketRepository interface {
	// CreateLedger inserts an empty ledger for (battle, team)
	CreateLedger(ctx context.Context, ledger *models.TicketLedger) error

	// GetLedger retrieves the ledger for (battle, team), nil if absent
	GetLedger(ctx context.Context, battleID int64, team models.Team) (*models.TicketLedger, error)

	// GetBalance returns the participant's share balance (0 if none)
	GetBalance(ctx context.Context, battleID int64, team models.Team, participant string) (int64, error)

	// Mint increases the participant's balance and the ledger total
	Mint(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error

	// Burn decreases both; fails with models.ErrInsufficientShares if the
	// participant's balance is smaller than amount
	Burn(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error
}

// PositionRepository defines data access for user positions
type PositionRepository interface {
	// Get retrieves a participant's position in a battle, nil if absent
	Get(ctx context.Context, battleID int64, participant string) (*models.UserPosition, error)

	// Create inserts a new position
	Create(ctx context.Context, position *models.UserPosition) error

	// Update persists stake amount and claim status
	Update(ctx context.Context, position *models.UserPosition) error

	// GetByBattle returns all positions for a battle
	GetByBattle(ctx context.Context, battleID int64) ([]*models.UserPosition, error)
}

// PriceRepository stores keeper-posted oracle quotes
type PriceRepository interface {
	// Insert records a new quote
	Insert(ctx context.Context, quote *models.PriceQuote) error

	// GetLatest returns the freshest quote for a feed, nil if none
	GetLatest(ctx context.Context, feedRef string) (*models.PriceQuote, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	BattleRepository() BattleRepository
	VaultRepository() VaultRepository
	TicketRepository() TicketRepository
	PositionRepository() PositionRepository
	PriceRepository() PriceRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// BattleService defines battle lifecycle operations
type BattleService interface {
	// CreateBattle opens a new contest, snapshotting initial prices from
	// the oracle
	CreateBattle(ctx context.Context, battleID int64, feedA, feedB string, duration time.Duration, lendingEnabled bool) (*models.Battle, error)

	// CancelBattle aborts an active battle. Unless force is set it is
	// only allowed before end_time.
	CancelBattle(ctx context.Context, battleID int64, force bool) (*models.Battle, error)

	// GetBattleDetail retrieves a battle with its vaults and ledgers
	GetBattleDetail(ctx context.Context, battleID int64) (*models.BattleDetail, error)

	// ListBattles returns battles, optionally filtered by status
	ListBattles(ctx context.Context, status *models.BattleStatus) ([]*models.Battle, error)
}

// StakingService defines deposit and pre-settlement exit operations
type StakingService interface {
	// Deposit stakes amount on a team, minting tickets 1:1 and lending
	// the capital if the battle has lending enabled
	Deposit(ctx context.Context, battleID int64, participant string, team models.Team, amount int64) (*models.DepositResult, error)

	// WithdrawEarly exits a position before settlement. While the battle
	// is active a penalty is kept by the vault; after cancellation the
	// exit is penalty-free.
	WithdrawEarly(ctx context.Context, battleID int64, participant string) (*models.WithdrawalResult, error)
}

// SettlementService defines settlement and claim operations
type SettlementService interface {
	// Settle fixes final prices, recalls lent capital, determines the
	// winner and freezes the reward pools. Atomic and single-shot.
	Settle(ctx context.Context, battleID int64) (*models.SettlementResult, error)

	// Claim pays out a participant's position after settlement and burns
	// their tickets
	Claim(ctx context.Context, battleID int64, participant string) (*models.ClaimResult, error)
}

// PriceService accepts keeper-posted quotes for oracle feeds
type PriceService interface {
	// PostQuote records a new price observation for a feed
	PostQuote(ctx context.Context, feedRef string, price int64, publishedAt time.Time) (*models.PriceQuote, error)
}

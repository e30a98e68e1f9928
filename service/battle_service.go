package service

import (
	"context"
	"fmt"
	"time"

	"warchest/config"
	"warchest/events"
	"warchest/models"
)

type battleService struct {
	uowFactory UnitOfWorkFactory
	adapter    YieldAdapter
	oracle     PriceOracle
	config     *config.Config
}

// NewBattleService creates a new battle service
func NewBattleService(uowFactory UnitOfWorkFactory, adapter YieldAdapter, oracle PriceOracle, cfg *config.Config) BattleService {
	return &battleService{
		uowFactory: uowFactory,
		adapter:    adapter,
		oracle:     oracle,
		config:     cfg,
	}
}

// CreateBattle opens a new contest between two price feeds, snapshotting
// their current oracle prices as the growth baseline.
func (s *battleService) CreateBattle(ctx context.Context, battleID int64, feedA, feedB string, duration time.Duration, lendingEnabled bool) (*models.Battle, error) {
	// Validate inputs
	if battleID <= 0 {
		return nil, fmt.Errorf("battle id must be positive")
	}
	if feedA == "" || feedB == "" {
		return nil, fmt.Errorf("both feed references are required")
	}
	if feedA == feedB {
		return nil, fmt.Errorf("feeds must differ")
	}
	if duration < s.config.MinBattleDuration || duration > s.config.MaxBattleDuration {
		return nil, fmt.Errorf("duration must be between %s and %s", s.config.MinBattleDuration, s.config.MaxBattleDuration)
	}

	// Snapshot initial prices before opening the transaction; oracle
	// reads do not need the row lock.
	initialA, _, err := s.oracle.Read(ctx, feedA, s.config.MaxPriceStaleness)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial price for %s: %w", feedA, err)
	}
	initialB, _, err := s.oracle.Read(ctx, feedB, s.config.MaxPriceStaleness)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial price for %s: %w", feedB, err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.BattleRepository().GetByID(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing battle: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("battle %d already exists: %w", battleID, models.ErrInvalidState)
	}

	now := time.Now()
	battle := &models.Battle{
		ID:             battleID,
		FeedA:          feedA,
		FeedB:          feedB,
		InitialPriceA:  initialA,
		InitialPriceB:  initialB,
		StartTime:      now,
		EndTime:        now.Add(duration),
		Status:         models.BattleStatusActive,
		Winner:         models.TeamNone,
		LendingEnabled: lendingEnabled,
	}

	if err := uow.BattleRepository().Create(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to create battle: %w", err)
	}

	// Each side gets an empty vault and an empty ticket ledger up front
	for _, team := range []models.Team{models.TeamA, models.TeamB} {
		if err := uow.VaultRepository().Create(ctx, &models.Vault{BattleID: battleID, Team: team}); err != nil {
			return nil, fmt.Errorf("failed to create %s vault: %w", team, err)
		}
		if err := uow.TicketRepository().CreateLedger(ctx, &models.TicketLedger{BattleID: battleID, Team: team}); err != nil {
			return nil, fmt.Errorf("failed to create %s ticket ledger: %w", team, err)
		}
	}

	uow.EventBus().Publish(events.BattleCreatedEvent{
		BattleID:       battle.ID,
		FeedA:          battle.FeedA,
		FeedB:          battle.FeedB,
		InitialPriceA:  battle.InitialPriceA,
		InitialPriceB:  battle.InitialPriceB,
		EndTime:        battle.EndTime,
		LendingEnabled: battle.LendingEnabled,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return battle, nil
}

// CancelBattle aborts an active battle. Any lent capital is pulled back
// from the venue first so participants can exit penalty-free; yield
// accrued up to that point is recorded but never distributed.
func (s *battleService) CancelBattle(ctx context.Context, battleID int64, force bool) (*models.Battle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	battle, err := uow.BattleRepository().GetByIDForUpdate(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	if battle == nil {
		return nil, fmt.Errorf("battle %d: %w", battleID, models.ErrNotFound)
	}
	if !battle.IsActive() {
		return nil, fmt.Errorf("battle %d is %s: %w", battleID, battle.Status, models.ErrInvalidState)
	}
	if battle.IsEnded(time.Now()) && !force {
		return nil, fmt.Errorf("battle %d has ended and must be settled: %w", battleID, models.ErrInvalidState)
	}

	for _, team := range []models.Team{models.TeamA, models.TeamB} {
		vault, err := uow.VaultRepository().Get(ctx, battleID, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s vault: %w", team, err)
		}
		if vault == nil || !vault.HasLentFunds() {
			continue
		}

		principal, yield, err := s.adapter.Withdraw(ctx, *vault.LendingReceipt)
		if err != nil {
			return nil, fmt.Errorf("failed to recall lent funds for %s: %w: %v", team, models.ErrAdapterFailure, err)
		}
		if principal != vault.LentAmount {
			return nil, fmt.Errorf("venue returned %d principal for %s, expected %d", principal, team, vault.LentAmount)
		}

		vault.LentAmount = 0
		vault.LendingReceipt = nil
		vault.YieldRealized = yield
		if err := uow.VaultRepository().Update(ctx, vault); err != nil {
			return nil, fmt.Errorf("failed to update %s vault: %w", team, err)
		}
	}

	battle.Status = models.BattleStatusCancelled
	if err := uow.BattleRepository().Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to update battle: %w", err)
	}

	uow.EventBus().Publish(events.BattleCancelledEvent{BattleID: battleID})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return battle, nil
}

// GetBattleDetail retrieves a battle together with both vaults and
// ticket ledgers
func (s *battleService) GetBattleDetail(ctx context.Context, battleID int64) (*models.BattleDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	battle, err := uow.BattleRepository().GetByID(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	if battle == nil {
		return nil, fmt.Errorf("battle %d: %w", battleID, models.ErrNotFound)
	}

	detail := &models.BattleDetail{
		Battle:  battle,
		Vaults:  make(map[models.Team]*models.Vault),
		Ledgers: make(map[models.Team]*models.TicketLedger),
	}

	for _, team := range []models.Team{models.TeamA, models.TeamB} {
		vault, err := uow.VaultRepository().Get(ctx, battleID, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s vault: %w", team, err)
		}
		ledger, err := uow.TicketRepository().GetLedger(ctx, battleID, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s ticket ledger: %w", team, err)
		}
		detail.Vaults[team] = vault
		detail.Ledgers[team] = ledger
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return detail, nil
}

// ListBattles returns battles, optionally filtered by status
func (s *battleService) ListBattles(ctx context.Context, status *models.BattleStatus) ([]*models.Battle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	battles, err := uow.BattleRepository().List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return battles, nil
}

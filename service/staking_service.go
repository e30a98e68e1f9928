package service

import (
	"context"
	"fmt"
	"time"

	"warchest/config"
	"warchest/events"
	"warchest/models"
)

type stakingService struct {
	uowFactory UnitOfWorkFactory
	adapter    YieldAdapter
	config     *config.Config
}

// NewStakingService creates a new staking service
func NewStakingService(uowFactory UnitOfWorkFactory, adapter YieldAdapter, cfg *config.Config) StakingService {
	return &stakingService{
		uowFactory: uowFactory,
		adapter:    adapter,
		config:     cfg,
	}
}

// Deposit stakes amount on a team. Tickets are minted 1:1 with the
// principal; if the battle has lending enabled the capital is placed with
// the yield venue before committing, so a venue failure aborts the whole
// deposit.
func (s *stakingService) Deposit(ctx context.Context, battleID int64, participant string, team models.Team, amount int64) (*models.DepositResult, error) {
	if participant == "" {
		return nil, fmt.Errorf("participant is required")
	}
	if !team.IsValid() {
		return nil, fmt.Errorf("invalid team %q", team)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

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
	if !battle.CanAcceptDeposits(time.Now()) {
		return nil, fmt.Errorf("battle %d is not accepting deposits (status: %s): %w", battleID, battle.Status, models.ErrInvalidState)
	}

	position, err := uow.PositionRepository().Get(ctx, battleID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	if position == nil {
		position = &models.UserPosition{
			BattleID:     battleID,
			Participant:  participant,
			Team:         team,
			AmountStaked: amount,
			StakeTime:    time.Now(),
		}
		if err := uow.PositionRepository().Create(ctx, position); err != nil {
			return nil, fmt.Errorf("failed to create position: %w", err)
		}
	} else {
		if !position.IsOpen() {
			return nil, fmt.Errorf("position for %s in battle %d: %w", participant, battleID, models.ErrPositionClosed)
		}
		if position.Team != team {
			return nil, fmt.Errorf("position is on %s, cannot deposit for %s: %w", position.Team, team, models.ErrTeamMismatch)
		}
		position.AmountStaked, err = models.AddAmount(position.AmountStaked, amount)
		if err != nil {
			return nil, fmt.Errorf("stake overflow: %w", err)
		}
		if err := uow.PositionRepository().Update(ctx, position); err != nil {
			return nil, fmt.Errorf("failed to update position: %w", err)
		}
	}

	if err := uow.TicketRepository().Mint(ctx, battleID, team, participant, amount); err != nil {
		return nil, fmt.Errorf("failed to mint tickets: %w", err)
	}

	vault, err := uow.VaultRepository().Get(ctx, battleID, team)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}
	if vault == nil {
		return nil, fmt.Errorf("vault for %s in battle %d: %w", team, battleID, models.ErrNotFound)
	}

	vault.TotalAmount, err = models.AddAmount(vault.TotalAmount, amount)
	if err != nil {
		return nil, fmt.Errorf("vault overflow: %w", err)
	}

	// Venue call last so nothing has been committed if it fails
	if battle.LendingEnabled {
		var prior string
		if vault.LendingReceipt != nil {
			prior = *vault.LendingReceipt
		}
		receipt, err := s.adapter.Deposit(ctx, prior, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to lend deposit: %w: %v", models.ErrAdapterFailure, err)
		}
		vault.LentAmount, err = models.AddAmount(vault.LentAmount, amount)
		if err != nil {
			return nil, fmt.Errorf("vault overflow: %w", err)
		}
		vault.LendingReceipt = &receipt
	}

	if err := uow.VaultRepository().Update(ctx, vault); err != nil {
		return nil, fmt.Errorf("failed to update vault: %w", err)
	}

	uow.EventBus().Publish(events.DepositPlacedEvent{
		BattleID:     battleID,
		Participant:  participant,
		Team:         team,
		Amount:       amount,
		SharesMinted: amount,
		Lent:         battle.LendingEnabled,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.DepositResult{
		Position:     position,
		Vault:        vault,
		SharesMinted: amount,
	}, nil
}

// WithdrawEarly exits a position before settlement. While the battle is
// active the configured penalty is kept by the vault and later folded
// into the winner's reward pool; after cancellation the exit is
// penalty-free.
func (s *stakingService) WithdrawEarly(ctx context.Context, battleID int64, participant string) (*models.WithdrawalResult, error) {
	if participant == "" {
		return nil, fmt.Errorf("participant is required")
	}

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
	if battle.IsSettled() {
		return nil, fmt.Errorf("battle %d is settled, use claim: %w", battleID, models.ErrInvalidState)
	}

	position, err := uow.PositionRepository().Get(ctx, battleID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if position == nil {
		return nil, fmt.Errorf("position for %s in battle %d: %w", participant, battleID, models.ErrNotFound)
	}
	if !position.IsOpen() {
		return nil, fmt.Errorf("position for %s in battle %d: %w", participant, battleID, models.ErrPositionClosed)
	}

	stake := position.AmountStaked
	var penalty int64
	if battle.IsActive() {
		penalty = models.PenaltyAmount(stake, s.config.EarlyWithdrawPenaltyBps)
	}
	returnAmount, err := models.SubAmount(stake, penalty)
	if err != nil {
		return nil, fmt.Errorf("penalty exceeds stake: %w", err)
	}

	vault, err := uow.VaultRepository().Get(ctx, battleID, position.Team)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}
	if vault == nil {
		return nil, fmt.Errorf("vault for %s in battle %d: %w", position.Team, battleID, models.ErrNotFound)
	}

	vault.TotalAmount, err = models.SubAmount(vault.TotalAmount, stake)
	if err != nil {
		return nil, fmt.Errorf("vault underflow: %w", err)
	}
	vault.PenaltyReserve, err = models.AddAmount(vault.PenaltyReserve, penalty)
	if err != nil {
		return nil, fmt.Errorf("vault overflow: %w", err)
	}

	// Pull the exiting principal back from the venue. Yield attribution
	// for the recalled slice stays with the remaining position.
	if vault.HasLentFunds() {
		recall := stake
		if recall > vault.LentAmount {
			recall = vault.LentAmount
		}
		if err := s.adapter.Recall(ctx, *vault.LendingReceipt, recall); err != nil {
			return nil, fmt.Errorf("failed to recall lent funds: %w: %v", models.ErrAdapterFailure, err)
		}
		vault.LentAmount -= recall
		if vault.LentAmount == 0 {
			vault.LendingReceipt = nil
		}
	}

	if err := uow.VaultRepository().Update(ctx, vault); err != nil {
		return nil, fmt.Errorf("failed to update vault: %w", err)
	}

	if err := uow.TicketRepository().Burn(ctx, battleID, position.Team, participant, stake); err != nil {
		return nil, fmt.Errorf("failed to burn tickets: %w", err)
	}

	now := time.Now()
	position.Claimed = true
	position.PayoutAmount = &returnAmount
	position.ClaimedAt = &now
	if err := uow.PositionRepository().Update(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}

	uow.EventBus().Publish(events.EarlyWithdrawalEvent{
		BattleID:     battleID,
		Participant:  participant,
		Team:         position.Team,
		ReturnAmount: returnAmount,
		Penalty:      penalty,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.WithdrawalResult{
		Position:     position,
		ReturnAmount: returnAmount,
		Penalty:      penalty,
		SharesBurned: stake,
	}, nil
}

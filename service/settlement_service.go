package service

import (
	"context"
	"fmt"
	"time"

	"warchest/config"
	"warchest/events"
	"warchest/models"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	adapter    YieldAdapter
	oracle     PriceOracle
	config     *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, adapter YieldAdapter, oracle PriceOracle, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		adapter:    adapter,
		oracle:     oracle,
		config:     cfg,
	}
}

// Settle closes a battle after its window: final prices are fixed from
// the oracle, lent capital comes back from the venue, the winner is
// determined by relative price growth, and each vault's reward pool and
// share snapshot are frozen. The winning side's pool receives the
// combined yield of both vaults plus all early-withdrawal penalties; on
// a tie each side keeps its own. Settling twice fails on the status
// check, so the operation is single-shot.
func (s *settlementService) Settle(ctx context.Context, battleID int64) (*models.SettlementResult, error) {
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
	now := time.Now()
	if !battle.IsEnded(now) {
		return nil, fmt.Errorf("battle %d ends at %s: %w", battleID, battle.EndTime.Format(time.RFC3339), models.ErrBattleNotEnded)
	}

	finalA, _, err := s.oracle.Read(ctx, battle.FeedA, s.config.MaxPriceStaleness)
	if err != nil {
		return nil, fmt.Errorf("failed to read final price for %s: %w", battle.FeedA, err)
	}
	finalB, _, err := s.oracle.Read(ctx, battle.FeedB, s.config.MaxPriceStaleness)
	if err != nil {
		return nil, fmt.Errorf("failed to read final price for %s: %w", battle.FeedB, err)
	}

	vaults := make(map[models.Team]*models.Vault, 2)
	yield := make(map[models.Team]int64, 2)
	penalties := make(map[models.Team]int64, 2)
	for _, team := range []models.Team{models.TeamA, models.TeamB} {
		vault, err := uow.VaultRepository().Get(ctx, battleID, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s vault: %w", team, err)
		}
		if vault == nil {
			return nil, fmt.Errorf("vault for %s in battle %d: %w", team, battleID, models.ErrNotFound)
		}

		// Close the lent position before splitting the pot. A venue
		// failure here rolls back everything, including the final
		// prices.
		if vault.HasLentFunds() {
			principal, accrued, err := s.adapter.Withdraw(ctx, *vault.LendingReceipt)
			if err != nil {
				return nil, fmt.Errorf("failed to withdraw lent funds for %s: %w: %v", team, models.ErrAdapterFailure, err)
			}
			if principal != vault.LentAmount {
				return nil, fmt.Errorf("venue returned %d principal for %s, expected %d", principal, team, vault.LentAmount)
			}
			vault.LentAmount = 0
			vault.LendingReceipt = nil
			vault.YieldRealized = accrued
		}

		vaults[team] = vault
		yield[team] = vault.YieldRealized
		penalties[team] = vault.PenaltyReserve
	}

	winner := battle.DetermineWinner(finalA, finalB)
	totalYield, err := models.AddAmount(yield[models.TeamA], yield[models.TeamB])
	if err != nil {
		return nil, fmt.Errorf("failed to total realized yield: %w", err)
	}
	totalPenalties, err := models.AddAmount(penalties[models.TeamA], penalties[models.TeamB])
	if err != nil {
		return nil, fmt.Errorf("failed to total penalty reserves: %w", err)
	}

	switch winner {
	case models.TeamNone:
		// Tie: each side keeps its own yield and penalties
		for _, team := range []models.Team{models.TeamA, models.TeamB} {
			pool, err := models.AddAmount(yield[team], penalties[team])
			if err != nil {
				return nil, fmt.Errorf("failed to compute %s reward pool: %w", team, err)
			}
			vaults[team].RewardPool = pool
		}
	default:
		pool, err := models.AddAmount(totalYield, totalPenalties)
		if err != nil {
			return nil, fmt.Errorf("failed to compute winner reward pool: %w", err)
		}
		vaults[winner].RewardPool = pool
		vaults[winner.Opponent()].RewardPool = 0
	}

	for _, team := range []models.Team{models.TeamA, models.TeamB} {
		vault := vaults[team]
		vault.PenaltyReserve = 0

		ledger, err := uow.TicketRepository().GetLedger(ctx, battleID, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s ticket ledger: %w", team, err)
		}
		if ledger == nil {
			return nil, fmt.Errorf("ticket ledger for %s in battle %d: %w", team, battleID, models.ErrNotFound)
		}
		vault.ShareSnapshot = ledger.TotalShares

		if err := uow.VaultRepository().Update(ctx, vault); err != nil {
			return nil, fmt.Errorf("failed to update %s vault: %w", team, err)
		}
	}

	battle.FinalPriceA = &finalA
	battle.FinalPriceB = &finalB
	battle.Status = models.BattleStatusSettled
	battle.Winner = winner
	battle.SettledAt = &now
	if err := uow.BattleRepository().Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to update battle: %w", err)
	}

	uow.EventBus().Publish(events.BattleSettledEvent{
		BattleID:    battleID,
		Winner:      winner,
		FinalPriceA: finalA,
		FinalPriceB: finalB,
		RewardPoolA: vaults[models.TeamA].RewardPool,
		RewardPoolB: vaults[models.TeamB].RewardPool,
		TotalYield:  totalYield,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.SettlementResult{
		Battle:      battle,
		Winner:      winner,
		FinalPriceA: finalA,
		FinalPriceB: finalB,
		RewardPoolA: vaults[models.TeamA].RewardPool,
		RewardPoolB: vaults[models.TeamB].RewardPool,
		TotalYield:  totalYield,
	}, nil
}

// Claim pays out one settled position: the exact principal staked plus
// the position's pro-rata slice of its vault's frozen reward pool.
// Tickets are burned on payout, so a position can only be claimed once.
func (s *settlementService) Claim(ctx context.Context, battleID int64, participant string) (*models.ClaimResult, error) {
	if participant == "" {
		return nil, fmt.Errorf("participant is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the battle row so concurrent claims against the same vault
	// serialize.
	battle, err := uow.BattleRepository().GetByIDForUpdate(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	if battle == nil {
		return nil, fmt.Errorf("battle %d: %w", battleID, models.ErrNotFound)
	}
	if !battle.IsSettled() {
		return nil, fmt.Errorf("battle %d is %s, claims need settlement: %w", battleID, battle.Status, models.ErrInvalidState)
	}

	position, err := uow.PositionRepository().Get(ctx, battleID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if position == nil {
		return nil, fmt.Errorf("position for %s in battle %d: %w", participant, battleID, models.ErrNotFound)
	}
	if position.Claimed {
		return nil, fmt.Errorf("position for %s in battle %d: %w", participant, battleID, models.ErrAlreadyClaimed)
	}

	shares, err := uow.TicketRepository().GetBalance(ctx, battleID, position.Team, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket balance: %w", err)
	}

	vault, err := uow.VaultRepository().Get(ctx, battleID, position.Team)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}
	if vault == nil {
		return nil, fmt.Errorf("vault for %s in battle %d: %w", position.Team, battleID, models.ErrNotFound)
	}

	principal := position.AmountStaked
	yieldShare := vault.YieldShareFor(shares)
	payout, err := models.AddAmount(principal, yieldShare)
	if err != nil {
		return nil, fmt.Errorf("payout overflow: %w", err)
	}

	if payout > vault.Claimable() {
		return nil, fmt.Errorf("vault for %s in battle %d cannot cover %d: %w", position.Team, battleID, payout, models.ErrInsufficientFunds)
	}

	if shares > 0 {
		if err := uow.TicketRepository().Burn(ctx, battleID, position.Team, participant, shares); err != nil {
			return nil, fmt.Errorf("failed to burn tickets: %w", err)
		}
	}

	vault.ClaimedAmount, err = models.AddAmount(vault.ClaimedAmount, payout)
	if err != nil {
		return nil, fmt.Errorf("vault overflow: %w", err)
	}
	if err := uow.VaultRepository().Update(ctx, vault); err != nil {
		return nil, fmt.Errorf("failed to update vault: %w", err)
	}

	now := time.Now()
	position.Claimed = true
	position.PayoutAmount = &payout
	position.ClaimedAt = &now
	if err := uow.PositionRepository().Update(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}

	uow.EventBus().Publish(events.RewardClaimedEvent{
		BattleID:    battleID,
		Participant: participant,
		Team:        position.Team,
		Principal:   principal,
		YieldShare:  yieldShare,
		Payout:      payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.ClaimResult{
		Position:     position,
		Principal:    principal,
		YieldShare:   yieldShare,
		Payout:       payout,
		SharesBurned: shares,
	}, nil
}

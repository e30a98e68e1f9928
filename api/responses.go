package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"warchest/models"

	log "github.com/sirupsen/logrus"
)

type battleResponse struct {
	ID             int64        `json:"id"`
	FeedA          string       `json:"feed_a"`
	FeedB          string       `json:"feed_b"`
	InitialPriceA  int64        `json:"initial_price_a"`
	InitialPriceB  int64        `json:"initial_price_b"`
	FinalPriceA    *int64       `json:"final_price_a,omitempty"`
	FinalPriceB    *int64       `json:"final_price_b,omitempty"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time"`
	Status         string       `json:"status"`
	Winner         string       `json:"winner"`
	LendingEnabled bool         `json:"lending_enabled"`
	SettledAt      *time.Time   `json:"settled_at,omitempty"`
}

func toBattleResponse(b *models.Battle) battleResponse {
	return battleResponse{
		ID:             b.ID,
		FeedA:          b.FeedA,
		FeedB:          b.FeedB,
		InitialPriceA:  b.InitialPriceA,
		InitialPriceB:  b.InitialPriceB,
		FinalPriceA:    b.FinalPriceA,
		FinalPriceB:    b.FinalPriceB,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Status:         string(b.Status),
		Winner:         string(b.Winner),
		LendingEnabled: b.LendingEnabled,
		SettledAt:      b.SettledAt,
	}
}

type vaultResponse struct {
	Team           string `json:"team"`
	TotalAmount    int64  `json:"total_amount"`
	LentAmount     int64  `json:"lent_amount"`
	YieldRealized  int64  `json:"yield_realized"`
	PenaltyReserve int64  `json:"penalty_reserve"`
	RewardPool     int64  `json:"reward_pool"`
	ShareSnapshot  int64  `json:"share_snapshot"`
	ClaimedAmount  int64  `json:"claimed_amount"`
	TotalShares    int64  `json:"total_shares"`
}

type battleDetailResponse struct {
	Battle battleResponse           `json:"battle"`
	Vaults map[string]vaultResponse `json:"vaults"`
}

func toBattleDetailResponse(d *models.BattleDetail) battleDetailResponse {
	resp := battleDetailResponse{
		Battle: toBattleResponse(d.Battle),
		Vaults: make(map[string]vaultResponse, len(d.Vaults)),
	}
	for team, vault := range d.Vaults {
		if vault == nil {
			continue
		}
		vr := vaultResponse{
			Team:           string(team),
			TotalAmount:    vault.TotalAmount,
			LentAmount:     vault.LentAmount,
			YieldRealized:  vault.YieldRealized,
			PenaltyReserve: vault.PenaltyReserve,
			RewardPool:     vault.RewardPool,
			ShareSnapshot:  vault.ShareSnapshot,
			ClaimedAmount:  vault.ClaimedAmount,
		}
		if ledger := d.Ledgers[team]; ledger != nil {
			vr.TotalShares = ledger.TotalShares
		}
		resp.Vaults[string(team)] = vr
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrBattleNotEnded),
		errors.Is(err, models.ErrTeamMismatch),
		errors.Is(err, models.ErrPositionClosed),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrInsufficientShares),
		errors.Is(err, models.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, models.ErrAdapterFailure):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrStalePrice),
		errors.Is(err, models.ErrOraclePriceMissing):
		status = http.StatusServiceUnavailable
	}
	writeError(w, err.Error(), status)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"warchest/metrics"
	"warchest/models"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

func battleIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "battleID"), 10, 64)
	return id, err == nil && id > 0
}

type createBattleRequest struct {
	BattleID       int64  `json:"battle_id"`
	FeedA          string `json:"feed_a"`
	FeedB          string `json:"feed_b"`
	Duration       string `json:"duration"`
	LendingEnabled *bool  `json:"lending_enabled,omitempty"`
}

// CreateBattle handles POST /api/v1/battles
func (h *Handler) CreateBattle(w http.ResponseWriter, r *http.Request) {
	var req createBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeError(w, "invalid duration", http.StatusBadRequest)
		return
	}

	// Deployment default unless the request says otherwise
	lending := h.config.LendingEnabled
	if req.LendingEnabled != nil {
		lending = *req.LendingEnabled
	}

	battle, err := h.battles.CreateBattle(r.Context(), req.BattleID, req.FeedA, req.FeedB, duration, lending)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.ActiveBattles.Inc()
	log.WithFields(log.Fields{
		"battleID": battle.ID,
		"feedA":    battle.FeedA,
		"feedB":    battle.FeedB,
		"endTime":  battle.EndTime,
	}).Info("Battle created")

	writeJSON(w, http.StatusCreated, toBattleResponse(battle))
}

// ListBattles handles GET /api/v1/battles
func (h *Handler) ListBattles(w http.ResponseWriter, r *http.Request) {
	var status *models.BattleStatus
	if s := r.URL.Query().Get("status"); s != "" {
		bs := models.BattleStatus(s)
		switch bs {
		case models.BattleStatusActive, models.BattleStatusSettled, models.BattleStatusCancelled:
			status = &bs
		default:
			writeError(w, "invalid status filter", http.StatusBadRequest)
			return
		}
	}

	battles, err := h.battles.ListBattles(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]battleResponse, 0, len(battles))
	for _, b := range battles {
		resp = append(resp, toBattleResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBattle handles GET /api/v1/battles/{battleID}
func (h *Handler) GetBattle(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	detail, err := h.battles.GetBattleDetail(r.Context(), battleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBattleDetailResponse(detail))
}

type depositRequest struct {
	Participant string `json:"participant"`
	Team        string `json:"team"`
	Amount      int64  `json:"amount"`
}

// Deposit handles POST /api/v1/battles/{battleID}/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.staking.Deposit(r.Context(), battleID, req.Participant, models.Team(req.Team), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.DepositsTotal.WithLabelValues(req.Team).Inc()
	metrics.DepositVolume.WithLabelValues(req.Team).Add(float64(req.Amount))

	writeJSON(w, http.StatusOK, map[string]any{
		"battle_id":     battleID,
		"participant":   req.Participant,
		"team":          req.Team,
		"amount_staked": result.Position.AmountStaked,
		"shares_minted": result.SharesMinted,
		"vault_total":   result.Vault.TotalAmount,
	})
}

type participantRequest struct {
	Participant string `json:"participant"`
}

// WithdrawEarly handles POST /api/v1/battles/{battleID}/withdraw
func (h *Handler) WithdrawEarly(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.staking.WithdrawEarly(r.Context(), battleID, req.Participant)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.EarlyWithdrawalsTotal.Inc()
	log.WithFields(log.Fields{
		"battleID":    battleID,
		"participant": req.Participant,
		"penalty":     result.Penalty,
	}).Info("Early withdrawal")

	writeJSON(w, http.StatusOK, map[string]any{
		"battle_id":     battleID,
		"participant":   req.Participant,
		"return_amount": result.ReturnAmount,
		"penalty":       result.Penalty,
		"shares_burned": result.SharesBurned,
	})
}

// Settle handles POST /api/v1/battles/{battleID}/settle
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	result, err := h.settlement.Settle(r.Context(), battleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.BattlesSettled.WithLabelValues(string(result.Winner)).Inc()
	metrics.YieldDistributed.Add(float64(result.TotalYield))
	metrics.ActiveBattles.Dec()
	log.WithFields(log.Fields{
		"battleID":   battleID,
		"winner":     result.Winner,
		"totalYield": result.TotalYield,
	}).Info("Battle settled")

	writeJSON(w, http.StatusOK, map[string]any{
		"battle_id":     battleID,
		"winner":        string(result.Winner),
		"final_price_a": result.FinalPriceA,
		"final_price_b": result.FinalPriceB,
		"reward_pool_a": result.RewardPoolA,
		"reward_pool_b": result.RewardPoolB,
		"total_yield":   result.TotalYield,
	})
}

// Claim handles POST /api/v1/battles/{battleID}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.settlement.Claim(r.Context(), battleID, req.Participant)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.ClaimsTotal.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"battle_id":     battleID,
		"participant":   req.Participant,
		"principal":     result.Principal,
		"yield_share":   result.YieldShare,
		"payout":        result.Payout,
		"shares_burned": result.SharesBurned,
	})
}

type cancelBattleRequest struct {
	Force bool `json:"force"`
}

// CancelBattle handles POST /api/v1/battles/{battleID}/cancel
func (h *Handler) CancelBattle(w http.ResponseWriter, r *http.Request) {
	battleID, ok := battleIDParam(r)
	if !ok {
		writeError(w, "invalid battle id", http.StatusBadRequest)
		return
	}

	var req cancelBattleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	battle, err := h.battles.CancelBattle(r.Context(), battleID, req.Force)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.ActiveBattles.Dec()
	log.WithField("battleID", battleID).Info("Battle cancelled")

	writeJSON(w, http.StatusOK, toBattleResponse(battle))
}

type postQuoteRequest struct {
	FeedRef     string    `json:"feed_ref"`
	Price       int64     `json:"price"`
	PublishedAt time.Time `json:"published_at"`
}

// PostQuote handles POST /api/v1/prices
func (h *Handler) PostQuote(w http.ResponseWriter, r *http.Request) {
	var req postQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublishedAt.IsZero() {
		req.PublishedAt = time.Now()
	}

	quote, err := h.prices.PostQuote(r.Context(), req.FeedRef, req.Price, req.PublishedAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           quote.ID,
		"feed_ref":     quote.FeedRef,
		"price":        quote.Price,
		"published_at": quote.PublishedAt,
	})
}

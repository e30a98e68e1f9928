// Package api exposes the battle engine over HTTP.
package api

import (
	"net/http"
	"time"

	"warchest/config"
	"warchest/metrics"
	"warchest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler bundles the services behind the HTTP surface
type Handler struct {
	battles    service.BattleService
	staking    service.StakingService
	settlement service.SettlementService
	prices     service.PriceService
	config     *config.Config
}

// NewHandler creates the HTTP handler set
func NewHandler(battles service.BattleService, staking service.StakingService, settlement service.SettlementService, prices service.PriceService, cfg *config.Config) *Handler {
	return &Handler{
		battles:    battles,
		staking:    staking,
		settlement: settlement,
		prices:     prices,
		config:     cfg,
	}
}

// Router builds the chi router with all routes and middleware
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"warchest"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/battles", h.CreateBattle)
		r.Get("/battles", h.ListBattles)
		r.Get("/battles/{battleID}", h.GetBattle)
		r.Post("/battles/{battleID}/deposit", h.Deposit)
		r.Post("/battles/{battleID}/withdraw", h.WithdrawEarly)
		r.Post("/battles/{battleID}/settle", h.Settle)
		r.Post("/battles/{battleID}/claim", h.Claim)
		r.Post("/battles/{battleID}/cancel", h.CancelBattle)

		r.Post("/prices", h.PostQuote)
	})

	return r
}

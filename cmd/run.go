package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"warchest/api"
	"warchest/config"
	"warchest/database"
	"warchest/events"
	"warchest/lending"
	"warchest/oracle"
	"warchest/repository"
	"warchest/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting warchest...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	eventBus := events.NewBus()
	events.SubscribeAuditLogger(eventBus)
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	var adapter service.YieldAdapter
	if cfg.LendingEnabled {
		adapter = lending.NewSimulatedAdapter(cfg.YieldRateBps)
		log.WithField("yieldRateBps", cfg.YieldRateBps).Info("Simulated lending venue enabled")
	} else {
		adapter = lending.NewNullAdapter()
		log.Info("Lending disabled")
	}

	priceOracle := oracle.NewPostgresOracle(db)

	battleService := service.NewBattleService(uowFactory, adapter, priceOracle, cfg)
	stakingService := service.NewStakingService(uowFactory, adapter, cfg)
	settlementService := service.NewSettlementService(uowFactory, adapter, priceOracle, cfg)
	priceService := service.NewPriceService(uowFactory)

	handler := api.NewHandler(battleService, stakingService, settlementService, priceService, cfg)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Infof("Serving in %s mode", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		db.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown error")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

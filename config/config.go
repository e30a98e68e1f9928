package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP API configuration
	ListenAddr string

	// Battle policy
	EarlyWithdrawPenaltyBps int64         // penalty on pre-settlement exits, in basis points
	MaxPriceStaleness       time.Duration // oldest oracle quote accepted at create/settle
	MinBattleDuration       time.Duration
	MaxBattleDuration       time.Duration

	// Lending configuration
	LendingEnabled bool  // default for new battles
	YieldRateBps   int64 // simulated venue: accrual per day in basis points

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, with .env support
func load() (*Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),

		// Policy defaults
		EarlyWithdrawPenaltyBps: 100, // 1%
		MaxPriceStaleness:       60 * time.Second,
		MinBattleDuration:       5 * time.Minute,
		MaxBattleDuration:       30 * 24 * time.Hour,

		LendingEnabled: os.Getenv("LENDING_ENABLED") != "false",
		YieldRateBps:   10, // 0.1% per day on the simulated venue

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	if penalty := os.Getenv("EARLY_WITHDRAW_PENALTY_BPS"); penalty != "" {
		if parsed, err := strconv.ParseInt(penalty, 10, 64); err == nil {
			config.EarlyWithdrawPenaltyBps = parsed
		}
	}
	if rate := os.Getenv("YIELD_RATE_BPS"); rate != "" {
		if parsed, err := strconv.ParseInt(rate, 10, 64); err == nil {
			config.YieldRateBps = parsed
		}
	}
	if staleness := os.Getenv("MAX_PRICE_STALENESS"); staleness != "" {
		if parsed, err := time.ParseDuration(staleness); err == nil {
			config.MaxPriceStaleness = parsed
		}
	}
	if minDur := os.Getenv("MIN_BATTLE_DURATION"); minDur != "" {
		if parsed, err := time.ParseDuration(minDur); err == nil {
			config.MinBattleDuration = parsed
		}
	}
	if maxDur := os.Getenv("MAX_BATTLE_DURATION"); maxDur != "" {
		if parsed, err := time.ParseDuration(maxDur); err == nil {
			config.MaxBattleDuration = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.EarlyWithdrawPenaltyBps < 0 || config.EarlyWithdrawPenaltyBps >= 10_000 {
		return nil, fmt.Errorf("EARLY_WITHDRAW_PENALTY_BPS must be in [0, 10000)")
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

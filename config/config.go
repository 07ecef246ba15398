package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// BettingMode selects how stakes are collected from users
type BettingMode string

const (
	// ModeSimple places a fixed stake per click, one bet per match
	ModeSimple BettingMode = "simple"
	// ModeExtended asks for a stake via modal and allows topping up the
	// same selection
	ModeExtended BettingMode = "extended"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Database configuration
	DatabaseURL string

	// Betting configuration
	BettingMode     BettingMode
	StartingBalance int64 // points granted on first bet
	FixedStake      int64 // stake per click in simple mode

	// League configuration
	MaxActiveMatches int64 // per-league cap on concurrently open matches

	// Environment
	Environment string // "development" or "production"
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

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Betting settings with defaults
		BettingMode:      ModeSimple,
		FixedStake:       100,
		MaxActiveMatches: 10,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if mode := os.Getenv("BETTING_MODE"); mode != "" {
		switch BettingMode(mode) {
		case ModeSimple, ModeExtended:
			config.BettingMode = BettingMode(mode)
		default:
			return nil, fmt.Errorf("BETTING_MODE must be %q or %q, got %q", ModeSimple, ModeExtended, mode)
		}
	}

	// Starting balance defaults depend on the mode; extended mode hands out
	// more because stakes are free-form
	if config.BettingMode == ModeExtended {
		config.StartingBalance = 250
	} else {
		config.StartingBalance = 100
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if limit := os.Getenv("MAX_ACTIVE_MATCHES"); limit != "" {
		if parsedLimit, err := strconv.ParseInt(limit, 10, 64); err == nil {
			config.MaxActiveMatches = parsedLimit
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

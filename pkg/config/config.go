package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the engine.
type Config struct {
	// Binance
	BinanceTestnet   bool
	BinanceAPIKey    string
	BinanceAPISecret string

	// Execution
	DryRun               bool
	DryRunInitialBalance float64

	// Persistence
	LedgerPath  string
	JournalPath string

	// Status API
	Port      string
	EnableAPI bool

	// Strategy parameter file
	ParamsPath string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the engine still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		BinanceTestnet:       getEnv("BINANCE_TESTNET", "false") == "true",
		BinanceAPIKey:        os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:     os.Getenv("BINANCE_API_SECRET"),
		DryRun:               getEnv("DRY_RUN", "false") == "true",
		DryRunInitialBalance: getEnvFloat("DRY_RUN_INITIAL_BALANCE", 10000.0),
		LedgerPath:           getEnv("LEDGER_PATH", "./data/ledger.json"),
		JournalPath:          getEnv("JOURNAL_PATH", "./data/journal.db"),
		Port:                 getEnv("PORT", "8080"),
		EnableAPI:            getEnv("ENABLE_STATUS_API", "true") == "true",
		ParamsPath:           getEnv("BOT_PARAMS", "bot.yaml"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

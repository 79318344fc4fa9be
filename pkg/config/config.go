package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings shared by the signal engine,
// the executor, and the grid maker.
type Config struct {
	Symbol    string
	Timeframe string

	// Binance USDT-M futures
	BinanceTestnet   bool
	BinanceAPIKey    string
	BinanceAPISecret string

	// Database
	DBPath string

	// Signal loop
	StrategyFile   string
	SignalInterval time.Duration

	// Executor loop
	ReconcileInterval time.Duration
	PositionEpsilon   float64
	SlippageOffset    float64
	MaxRetries        int
	RetryBackoff      time.Duration

	// Safety thresholds
	MaxNotional       float64
	MaxUnrealizedLoss float64
	SafetyCooldown    time.Duration

	// Handoff
	TargetStaleAfter time.Duration

	// Notifications
	DiscordWebhookURL string

	// Status server
	StatusAddr string

	LogLevel string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the process still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Symbol:            getEnv("SYMBOL", "BTCUSDT"),
		Timeframe:         getEnv("TIMEFRAME", "5m"),
		BinanceTestnet:    getEnv("BINANCE_TESTNET", "false") == "true",
		BinanceAPIKey:     os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:  os.Getenv("BINANCE_API_SECRET"),
		DBPath:            getEnv("DB_PATH", "./data/perp-exec.db"),
		StrategyFile:      getEnv("STRATEGY_FILE", "./configs/strategy.yaml"),
		SignalInterval:    getEnvDuration("SIGNAL_INTERVAL", 20*time.Second),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 10*time.Second),
		PositionEpsilon:   getEnvFloat("POSITION_EPSILON", 0.0001),
		SlippageOffset:    getEnvFloat("SLIPPAGE_OFFSET", 7),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryBackoff:      getEnvDuration("RETRY_BACKOFF", time.Second),
		MaxNotional:       getEnvFloat("MAX_NOTIONAL", 8000),
		MaxUnrealizedLoss: getEnvFloat("MAX_UNREALIZED_LOSS", 100),
		SafetyCooldown:    getEnvDuration("SAFETY_COOLDOWN", 4*time.Hour),
		TargetStaleAfter:  getEnvDuration("TARGET_STALE_AFTER", 10*time.Minute),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		StatusAddr:        getEnv("STATUS_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
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

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

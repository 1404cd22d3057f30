package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// External endpoints
	Telegram TelegramConfig
	Yahoo    YahooConfig
	HSI      HSIConfig

	// Pipeline
	Run     RunConfig
	Screen  ScreenConfig
	Weights WeightsConfig

	// Transport
	HTTP HTTPConfig

	// Daemon mode
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// TelegramConfig holds the Bot API credentials and endpoint.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// YahooConfig holds Yahoo Finance endpoints and the per-run call budget.
type YahooConfig struct {
	BaseURL    string  // query API host
	HomeURL    string  // cookie bootstrap host
	APIKey     string  // optional, sent as x-api-key when set
	RateLimit  float64 // requests per second across all endpoints
	CallBudget int     // max API calls per run, 0 = unlimited
}

// HSIConfig holds the HighShortInterest.com fallback source settings.
type HSIConfig struct {
	BaseURL string
	Enabled bool
}

// RunConfig holds per-run universe and execution settings.
type RunConfig struct {
	Symbols      []string // explicit universe override; empty = use screeners
	MaxSymbols   int
	Timeout      time.Duration // wall-clock budget for a whole run
	FetchWorkers int           // 1 = sequential batches
	BatchSize    int
	BatchDelay   time.Duration
}

// ScreenConfig holds the filter thresholds and report size.
type ScreenConfig struct {
	MinMarketCap     int64
	MaxMarketCap     int64
	MinShortInterest float64 // ratio of float, 0.20 = 20%
	MinDaysToCover   float64
	MaxFloatShares   int64
	MinVolumeSpike   float64 // latest / 20d average
	TopN             int     // 0 = report all survivors
}

// WeightsConfig holds the composite-score weights. Must sum to 1.
type WeightsConfig struct {
	ShortInterest float64
	DaysToCover   float64
	VolumeSpike   float64
	Float         float64
}

// Sum returns the total of all four weights.
func (w WeightsConfig) Sum() float64 {
	return w.ShortInterest + w.DaysToCover + w.VolumeSpike + w.Float
}

// HTTPConfig holds shared HTTP client settings.
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MaxDelay   time.Duration
}

// ScheduleConfig holds daemon-mode settings.
type ScheduleConfig struct {
	Cron       string // cron expression with seconds field
	StatusPort string
}

// ValidationError reports a missing or invalid configuration value.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		Yahoo: YahooConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			HomeURL:    getEnv("YAHOO_HOME_URL", "https://finance.yahoo.com"),
			APIKey:     getEnv("YAHOO_API_KEY", ""),
			RateLimit:  getEnvAsFloat("SQUEEZE_RATE_LIMIT", 4.0),
			CallBudget: getEnvAsInt("SQUEEZE_CALL_BUDGET", 2000),
		},

		HSI: HSIConfig{
			BaseURL: getEnv("HSI_BASE_URL", "https://www.highshortinterest.com"),
			Enabled: getEnvAsBool("HSI_ENABLED", true),
		},

		Run: RunConfig{
			Symbols:      getEnvAsSlice("SQUEEZE_SYMBOLS"),
			MaxSymbols:   getEnvAsInt("SQUEEZE_MAX_SYMBOLS", 500),
			Timeout:      getEnvAsDuration("SQUEEZE_RUN_TIMEOUT", "10m"),
			FetchWorkers: getEnvAsInt("SQUEEZE_FETCH_WORKERS", 1),
			BatchSize:    getEnvAsInt("SQUEEZE_BATCH_SIZE", 20),
			BatchDelay:   getEnvAsDuration("SQUEEZE_BATCH_DELAY", "500ms"),
		},

		Screen: ScreenConfig{
			MinMarketCap:     getEnvAsInt64("FILTER_MIN_MARKET_CAP", 100_000_000),
			MaxMarketCap:     getEnvAsInt64("FILTER_MAX_MARKET_CAP", 10_000_000_000),
			MinShortInterest: getEnvAsFloat("FILTER_MIN_SHORT_INTEREST", 0.20),
			MinDaysToCover:   getEnvAsFloat("FILTER_MIN_DAYS_TO_COVER", 5.0),
			MaxFloatShares:   getEnvAsInt64("FILTER_MAX_FLOAT", 50_000_000),
			MinVolumeSpike:   getEnvAsFloat("FILTER_MIN_VOLUME_SPIKE", 2.0),
			TopN:             getEnvAsInt("SQUEEZE_TOP_N", 0),
		},

		Weights: WeightsConfig{
			ShortInterest: getEnvAsFloat("WEIGHT_SHORT_INTEREST", 0.30),
			DaysToCover:   getEnvAsFloat("WEIGHT_DAYS_TO_COVER", 0.25),
			VolumeSpike:   getEnvAsFloat("WEIGHT_VOLUME_SPIKE", 0.25),
			Float:         getEnvAsFloat("WEIGHT_FLOAT", 0.20),
		},

		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("HTTP_RETRY_DELAY", "1s"),
			MaxDelay:   getEnvAsDuration("HTTP_MAX_RETRY_DELAY", "10s"),
		},

		Schedule: ScheduleConfig{
			Cron:       getEnv("SCHEDULE_CRON", "0 0 18 * * 1-5"),
			StatusPort: getEnv("STATUS_PORT", "8090"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
// Fails before any network call is made.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return &ValidationError{Key: "ENV", Reason: "must be one of: development, staging, production"}
	}

	if c.Telegram.BotToken == "" {
		return &ValidationError{Key: "TELEGRAM_BOT_TOKEN", Reason: "is required"}
	}
	// Bot tokens look like "123456789:AAF...": numeric bot id, colon, secret.
	parts := strings.SplitN(c.Telegram.BotToken, ":", 2)
	if len(parts) != 2 || len(parts[0]) < 8 || len(parts[1]) == 0 {
		return &ValidationError{Key: "TELEGRAM_BOT_TOKEN", Reason: "malformed token"}
	}
	if c.Telegram.ChatID == "" {
		return &ValidationError{Key: "TELEGRAM_CHAT_ID", Reason: "is required"}
	}

	if c.Screen.MinMarketCap <= 0 || c.Screen.MaxMarketCap <= c.Screen.MinMarketCap {
		return &ValidationError{Key: "FILTER_MAX_MARKET_CAP", Reason: "must be greater than FILTER_MIN_MARKET_CAP"}
	}
	if c.Screen.TopN < 0 {
		return &ValidationError{Key: "SQUEEZE_TOP_N", Reason: "must be >= 0"}
	}

	if sum := c.Weights.Sum(); sum < 0.99 || sum > 1.01 {
		return &ValidationError{Key: "WEIGHT_*", Reason: fmt.Sprintf("weights must sum to 1.0, got %.3f", sum)}
	}

	if c.Run.FetchWorkers < 1 {
		return &ValidationError{Key: "SQUEEZE_FETCH_WORKERS", Reason: "must be >= 1"}
	}
	if c.Run.MaxSymbols < 1 {
		return &ValidationError{Key: "SQUEEZE_MAX_SYMBOLS", Reason: "must be >= 1"}
	}
	if c.Run.Timeout <= 0 {
		return &ValidationError{Key: "SQUEEZE_RUN_TIMEOUT", Reason: "must be positive"}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsSlice parses a comma-separated list, trimming blanks and
// uppercasing entries (ticker symbols are case-insensitive upstream).
func getEnvAsSlice(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

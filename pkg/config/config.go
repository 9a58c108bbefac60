package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects the data source a process is bound to for its lifetime.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeLive      Mode = "live"
)

// ParseMode accepts "simulated"/"live" and the legacy "mock"/"real" aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simulated", "mock", "":
		return ModeSimulated, nil
	case "live", "real":
		return ModeLive, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Config holds all application configuration. It is read once at startup;
// there is no hot reload.
type Config struct {
	// Application
	Mode     Mode
	LogLevel string
	HTTPPort string

	// Polymarket API
	PolymarketAPIURL string
	PolymarketWSURL  string
	PolymarketAPIKey string
	HTTPTimeout      time.Duration

	// News API
	NewsAPIURL string
	NewsAPIKey string

	// Rate limiting (sliding window per resource)
	RateLimitMaxCalls int
	RateLimitWindow   time.Duration

	// Circuit breaker around the live transport
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	// Simulation
	SimUpdateInterval time.Duration

	// Portfolio
	InitialBalance  float64
	MaxPositionSize float64

	// WebSocket
	WSDialTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Market cache
	MarketCacheTTL time.Duration

	// Storage of delivered updates
	StorageMode   string // "console", "postgres" or "redis"
	PostgresHost  string
	PostgresPort  string
	PostgresUser  string
	PostgresPass  string
	PostgresDB    string
	PostgresSSL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Feature flags, keyed by lower-case name (ENABLE_<NAME>=true).
	Features map[string]bool
}

// Known feature flags.
const (
	FeatureMarketCache    = "market_cache"
	FeatureRealTrading    = "real_trading"
	FeatureSocialFeatures = "social_features"
	FeatureCustomMarkets  = "custom_markets"
	FeatureNews           = "news"
)

var knownFeatures = []string{
	FeatureMarketCache,
	FeatureRealTrading,
	FeatureSocialFeatures,
	FeatureCustomMarkets,
	FeatureNews,
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	mode, err := ParseMode(os.Getenv("APP_MODE"))
	if err != nil {
		return nil, fmt.Errorf("parse APP_MODE: %w", err)
	}

	cfg := &Config{
		Mode:     mode,
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		PolymarketAPIURL: getEnvOrDefault("POLYMARKET_API_URL", "https://clob.polymarket.com"),
		PolymarketWSURL:  getEnvOrDefault("POLYMARKET_WS_URL", "wss://clob.polymarket.com/ws"),
		PolymarketAPIKey: os.Getenv("POLYMARKET_API_KEY"),
		HTTPTimeout:      getDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),

		NewsAPIURL: getEnvOrDefault("NEWS_API_URL", "https://newsapi.org/v2"),
		NewsAPIKey: os.Getenv("NEWS_API_KEY"),

		RateLimitMaxCalls: getIntOrDefault("RATE_LIMIT_MAX_CALLS", 100),
		RateLimitWindow:   getDurationOrDefault("RATE_LIMIT_WINDOW", 60*time.Second),

		BreakerMaxFailures: uint32(getIntOrDefault("BREAKER_MAX_FAILURES", 5)),
		BreakerTimeout:     getDurationOrDefault("BREAKER_TIMEOUT", 30*time.Second),

		SimUpdateInterval: getDurationOrDefault("SIM_UPDATE_INTERVAL", 5*time.Second),

		InitialBalance:  getFloat64OrDefault("INITIAL_BALANCE", 10000),
		MaxPositionSize: getFloat64OrDefault("MAX_POSITION_SIZE", 0.2),

		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),

		MarketCacheTTL: getDurationOrDefault("MARKET_CACHE_TTL", 10*time.Second),

		StorageMode:   getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost:  getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:  getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser:  getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass:  getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:    getEnvOrDefault("POSTGRES_DB", "polymarket_paper"),
		PostgresSSL:   getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),

		Features: loadFeatures(),
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.Mode != ModeSimulated && c.Mode != ModeLive {
		return fmt.Errorf("APP_MODE must be 'simulated' or 'live', got %q", c.Mode)
	}

	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.Mode == ModeLive && c.PolymarketAPIURL == "" {
		return fmt.Errorf("POLYMARKET_API_URL cannot be empty in live mode")
	}

	if c.Mode == ModeLive && c.PolymarketWSURL == "" {
		return fmt.Errorf("POLYMARKET_WS_URL cannot be empty in live mode")
	}

	if c.RateLimitMaxCalls <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_CALLS must be positive, got %d", c.RateLimitMaxCalls)
	}

	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}

	if c.SimUpdateInterval <= 0 {
		return fmt.Errorf("SIM_UPDATE_INTERVAL must be positive, got %s", c.SimUpdateInterval)
	}

	if c.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE must be positive, got %f", c.InitialBalance)
	}

	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1.0 {
		return fmt.Errorf("MAX_POSITION_SIZE must be in (0, 1], got %f", c.MaxPositionSize)
	}

	switch c.StorageMode {
	case "console", "postgres", "redis":
	default:
		return fmt.Errorf("STORAGE_MODE must be 'console', 'postgres' or 'redis', got %q", c.StorageMode)
	}

	return nil
}

// IsFeatureEnabled reports whether ENABLE_<NAME>=true was set at startup.
func (c *Config) IsFeatureEnabled(name string) bool {
	return c.Features[strings.ToLower(name)]
}

// APIStatus summarizes which integrations are configured.
type APIStatus struct {
	Mode              Mode            `json:"mode"`
	PolymarketEnabled bool            `json:"polymarketEnabled"`
	NewsEnabled       bool            `json:"newsEnabled"`
	Features          map[string]bool `json:"features"`
}

// Status returns a summary safe to expose to clients (no secrets).
func (c *Config) Status() APIStatus {
	features := make(map[string]bool, len(knownFeatures))
	for _, name := range knownFeatures {
		features[name] = c.Features[name]
	}

	return APIStatus{
		Mode:              c.Mode,
		PolymarketEnabled: c.PolymarketAPIKey != "",
		NewsEnabled:       c.NewsAPIKey != "",
		Features:          features,
	}
}

func loadFeatures() map[string]bool {
	features := make(map[string]bool)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "ENABLE_") {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, "ENABLE_"))
		features[name] = value == "true"
	}
	return features
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

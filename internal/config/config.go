package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Persistence
	DBPath string

	// Document parsing (Gemini)
	GeminiAPIKey string
	GeminiModel  string
	ParseTimeout time.Duration

	// Import pipeline
	ImportPreDelay    time.Duration // throttle before each request
	ImportMaxAttempts int

	// Recurring generation sweep (the "tab became visible again" analog)
	SweepInterval time.Duration

	// Address lookup
	ViaCEPBaseURL string
	HTTPTimeout   time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	AdminEmail        string
	AdminPasswordHash string // bcrypt hash; empty disables auth routes
	JWTSecret         string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration

	// Dev mode
	DevTools bool // DEV_TOOLS=true enables the simulated clock endpoints
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath: getEnv("DB_PATH", "contas.db"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ParseTimeout: getEnvDuration("PARSE_TIMEOUT", 60*time.Second),

		ImportPreDelay:    getEnvDuration("IMPORT_PRE_DELAY", 4*time.Second),
		ImportMaxAttempts: getEnvInt("IMPORT_MAX_ATTEMPTS", 4),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),

		ViaCEPBaseURL: getEnv("VIACEP_BASE_URL", "https://viacep.com.br"),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		CacheTTL: getEnvDuration("CACHE_TTL", 24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", "contas-default-dev-secret-change-me"),
		JWTAccessTTL:      getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:     getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		DevTools: getEnv("DEV_TOOLS", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Supported CRM API generations.
const (
	APIVersionV1 = "v1"
	APIVersionV2 = "v2"
)

const (
	defaultV1BaseURL = "https://rest.gohighlevel.com/v1"
	defaultV2BaseURL = "https://services.leadconnectorhq.com"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// CRM API
	APIVersion    string
	BaseURL       string
	APIKey        string
	LocationID    string
	VersionHeader string // sent as "Version" on every v2 request

	// HTTP client
	HTTPTimeout time.Duration

	// Pagination
	PageSize int
	MaxPages int

	// Resilience
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// Dashboard metadata
	BusinessName   string
	DashboardTitle string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	version := getEnv("CRM_API_VERSION", APIVersionV1)

	defaultBaseURL := defaultV1BaseURL
	if version == APIVersionV2 {
		defaultBaseURL = defaultV2BaseURL
	}

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIVersion:    version,
		BaseURL:       getEnv("CRM_BASE_URL", defaultBaseURL),
		APIKey:        getEnv("CRM_API_KEY", ""),
		LocationID:    getEnv("CRM_LOCATION_ID", ""),
		VersionHeader: getEnv("CRM_VERSION_HEADER", "2021-07-28"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		PageSize: getEnvInt("PAGE_SIZE", 100),
		MaxPages: getEnvInt("MAX_PAGES", 500),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		BusinessName:   getEnv("BUSINESS_NAME", ""),
		DashboardTitle: getEnv("DASHBOARD_TITLE", "CRM Dashboard"),
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Backend
	BaseURL        string
	SessionCookie  string
	RequestTimeout time.Duration

	// Geolocation. DeviceLatitude/DeviceLongitude are nil when the device
	// reports no position.
	DeviceLatitude    *float64
	DeviceLongitude   *float64
	DeviceAccuracy    float64
	AccuracyThreshold float64
	GeoTimeout        time.Duration

	// Feed
	NearbyLimit          int
	CustomLimit          int
	FallbackLimit        int
	FallbackDelay        time.Duration
	SearchDebounce       time.Duration
	AutocompleteDebounce time.Duration
	Currency             string

	// Redis autocomplete cache, disabled when RedisURL is empty
	RedisURL             string
	RedisPassword        string
	RedisDB              int
	AutocompleteCacheTTL time.Duration

	// PubNub announcements, disabled without a publish key
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubUserID       string
	PubNubChannel      string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string

	// Development backend
	DevListen    string
	DevRateLimit float64

	LogLevel string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return &Config{
		// Backend
		BaseURL:        strings.TrimRight(getEnv("CAMPUS_API_URL", "http://localhost:5000"), "/"),
		SessionCookie:  getEnv("CAMPUS_SESSION_COOKIE", ""),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "10s"),

		// Geolocation
		DeviceLatitude:    getEnvAsFloatPtr("GEO_LAT"),
		DeviceLongitude:   getEnvAsFloatPtr("GEO_LNG"),
		DeviceAccuracy:    getEnvAsFloat("GEO_ACCURACY", 0),
		AccuracyThreshold: getEnvAsFloat("GEO_ACCURACY_THRESHOLD", 1000),
		GeoTimeout:        getEnvAsDuration("GEO_TIMEOUT", "10s"),

		// Feed
		NearbyLimit:          getEnvAsInt("NEARBY_LIMIT", 3),
		CustomLimit:          getEnvAsInt("CUSTOM_LIMIT", 16),
		FallbackLimit:        getEnvAsInt("FALLBACK_LIMIT", 8),
		FallbackDelay:        getEnvAsDuration("FALLBACK_DELAY", "3s"),
		SearchDebounce:       getEnvAsDuration("SEARCH_DEBOUNCE", "250ms"),
		AutocompleteDebounce: getEnvAsDuration("AUTOCOMPLETE_DEBOUNCE", "300ms"),
		Currency:             getEnv("CURRENCY", "KES"),

		// Redis
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		AutocompleteCacheTTL: getEnvAsDuration("AUTOCOMPLETE_CACHE_TTL", "10m"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "campus-events-cli"),
		PubNubChannel:      getEnv("PUBNUB_CHANNEL", "campus-events"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", false),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),

		// Development backend
		DevListen:    getEnv("DEV_LISTEN", ":5000"),
		DevRateLimit: getEnvAsFloat("DEV_RATE_LIMIT", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatPtr(key string) *float64 {
	valueStr := getEnv(key, "")
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil
	}
	return &value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

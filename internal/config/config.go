package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	Timezone                string
	BusinessOpen            string
	BusinessClose           string
	SlotGranularityMinutes  int
	DefaultDurationMinutes  int
	LookaheadDays           int
	InactiveClientDays      int
	WeekStart               string
	ExpectedIncludesPending bool
	SlotsFitWithinHours     bool

	CacheTTL      time.Duration
	CacheStaleTTL time.Duration

	OwnerJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	AWSRegion           string
	AWSEndpointOverride string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	ReportsBucket       string
	ReportInterval      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		Timezone:                getEnv("TIMEZONE", "America/Sao_Paulo"),
		BusinessOpen:            getEnv("BUSINESS_OPEN", "07:00"),
		BusinessClose:           getEnv("BUSINESS_CLOSE", "19:00"),
		SlotGranularityMinutes:  getEnvAsInt("SLOT_GRANULARITY_MINUTES", 30),
		DefaultDurationMinutes:  getEnvAsInt("DEFAULT_DURATION_MINUTES", 60),
		LookaheadDays:           getEnvAsInt("LOOKAHEAD_DAYS", 14),
		InactiveClientDays:      getEnvAsInt("INACTIVE_CLIENT_DAYS", 60),
		WeekStart:               getEnv("WEEK_START", "sunday"),
		ExpectedIncludesPending: getEnvAsBool("EXPECTED_INCLUDES_PENDING", false),
		SlotsFitWithinHours:     getEnvAsBool("SLOTS_FIT_WITHIN_HOURS", false),

		CacheTTL:      getEnvAsDuration("CACHE_TTL", 30*time.Second),
		CacheStaleTTL: getEnvAsDuration("CACHE_STALE_TTL", 5*time.Minute),

		OwnerJWTSecret:     getEnv("OWNER_JWT_SECRET", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		ReportsBucket:       getEnv("REPORTS_BUCKET", ""),
		ReportInterval:      getEnvAsDuration("REPORT_INTERVAL", 6*time.Hour),
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BusinessHours builds the scheduling window from the configured clock times.
func (c *Config) BusinessHours() (scheduling.BusinessHours, error) {
	open, err := scheduling.ParseClock(c.BusinessOpen)
	if err != nil {
		return scheduling.BusinessHours{}, fmt.Errorf("config: BUSINESS_OPEN: %w", err)
	}
	closing, err := scheduling.ParseClock(c.BusinessClose)
	if err != nil {
		return scheduling.BusinessHours{}, fmt.Errorf("config: BUSINESS_CLOSE: %w", err)
	}
	hours := scheduling.BusinessHours{
		Open:        open,
		Close:       closing,
		Granularity: time.Duration(c.SlotGranularityMinutes) * time.Minute,
	}
	if err := hours.Validate(); err != nil {
		return scheduling.BusinessHours{}, fmt.Errorf("config: %w", err)
	}
	return hours, nil
}

// DefaultDuration is the fallback appointment length.
func (c *Config) DefaultDuration() time.Duration {
	if c.DefaultDurationMinutes <= 0 {
		return scheduling.DefaultDuration
	}
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// FirstWeekday parses WeekStart, defaulting to Sunday.
func (c *Config) FirstWeekday() time.Weekday {
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday", "mon":
		return time.Monday
	case "saturday", "sat":
		return time.Saturday
	default:
		return time.Sunday
	}
}

// ExpectedInclusion selects which statuses count toward projected revenue.
func (c *Config) ExpectedInclusion() scheduling.RevenueInclusion {
	if c.ExpectedIncludesPending {
		return scheduling.ConfirmedAndPending
	}
	return scheduling.ConfirmedOnly
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config provides environment-driven configuration for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service
type Config struct {
	Environment string
	Service     ServiceConfig
	Logging     LoggingConfig
	Auth        AuthConfig
	Lifecycle   LifecycleConfig
	Badges      BadgeConfig
	Redis       RedisConfig
}

// ServiceConfig holds service-specific configuration
type ServiceConfig struct {
	Name           string
	Port           string
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthConfig holds staff authentication configuration
type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	MaxLoginFailures int
	LockoutDuration  time.Duration
}

// LifecycleConfig controls the inactivity sweep
type LifecycleConfig struct {
	// ConsecutiveMisses is how many recent meetings a member must miss in a
	// row, counted from the newest meeting, before deactivation.
	ConsecutiveMisses int
	// SweepCooldown suppresses repeat sweeps triggered by rapid
	// attendance writes.
	SweepCooldown time.Duration
}

// BadgeConfig holds the award thresholds for the badge engine
type BadgeConfig struct {
	PerfectAttendanceMinMeetings int
	PaymentChampionThreshold     int
	FoundingYear                 int
	VeteranTenureYears           int
}

// RedisConfig holds the optional redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig(serviceName string) *Config {
	env := GetEnvOrDefault("ENVIRONMENT", "local")

	return &Config{
		Environment: env,
		Service: ServiceConfig{
			Name:           serviceName,
			Port:           GetEnvOrDefault("PORT", "8080"),
			Host:           GetEnvOrDefault("HOST", "0.0.0.0"),
			ReadTimeout:    getEnvDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: GetEnvOrDefault("CORS_ALLOWED_ORIGINS", ""),
		},
		Logging: LoggingConfig{
			Level:  GetEnvOrDefault("LOG_LEVEL", defaultLogLevel(env)),
			Format: GetEnvOrDefault("LOG_FORMAT", defaultLogFormat(env)),
		},
		Auth: AuthConfig{
			JWTSecret:        GetEnvOrDefault("JWT_SECRET", ""),
			TokenTTL:         getEnvDuration("TOKEN_TTL", 8*time.Hour),
			MaxLoginFailures: getEnvInt("MAX_LOGIN_FAILURES", 5),
			LockoutDuration:  getEnvDuration("LOCKOUT_DURATION", 15*time.Minute),
		},
		Lifecycle: LifecycleConfig{
			ConsecutiveMisses: getEnvInt("INACTIVITY_MEETING_COUNT", 3),
			SweepCooldown:     getEnvDuration("SWEEP_COOLDOWN", 5*time.Minute),
		},
		Badges: BadgeConfig{
			PerfectAttendanceMinMeetings: getEnvInt("BADGE_PERFECT_MIN_MEETINGS", 5),
			PaymentChampionThreshold:     getEnvInt("BADGE_PAYMENT_CHAMPION_COUNT", 20),
			FoundingYear:                 getEnvInt("BADGE_FOUNDING_YEAR", 2023),
			VeteranTenureYears:           getEnvInt("BADGE_VETERAN_YEARS", 2),
		},
		Redis: RedisConfig{
			Addr:     GetEnvOrDefault("REDIS_ADDR", ""),
			Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  os.Getenv("REDIS_ADDR") != "",
		},
	}
}

// GetEnvOrDefault returns the environment variable value or a default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func defaultLogLevel(env string) string {
	if env == "production" {
		return "info"
	}
	return "debug"
}

func defaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "text"
}

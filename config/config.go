package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB      int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB       int    `mapstructure:"REDIS_LOCK_DB"`
	RedisEventQueueDB int    `mapstructure:"REDIS_EVENT_QUEUE_DB"`

	// Stripe configuration.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Meeting provider configuration.
	MeetingProviderURL string `mapstructure:"MEETING_PROVIDER_URL"`
	MeetingFallbackURL string `mapstructure:"MEETING_FALLBACK_URL"`

	// Booking policy. These drive the availability engine, the booking state
	// machine and the background sweeps; nothing below is hard-coded elsewhere.
	BookingBufferMinutes    int     `mapstructure:"BOOKING_BUFFER_MINUTES"`
	MinimumNoticeHours      int     `mapstructure:"MINIMUM_NOTICE_HOURS"`
	AcceptanceDeadlineHours int     `mapstructure:"ACCEPTANCE_DEADLINE_HOURS"`
	EscrowReleaseDelayHours int     `mapstructure:"ESCROW_RELEASE_DELAY_HOURS"`
	DisputeWindowDays       int     `mapstructure:"DISPUTE_WINDOW_DAYS"`
	PackageValidityDays     int     `mapstructure:"PACKAGE_VALIDITY_DAYS"`
	PlatformCommissionPct   float64 `mapstructure:"PLATFORM_COMMISSION_PCT"`
	DeadlineSweepSpec       string  `mapstructure:"DEADLINE_SWEEP_SPEC"`
	EscrowSweepSpec         string  `mapstructure:"ESCROW_SWEEP_SPEC"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_EVENT_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "therapia")
	viper.SetDefault("MEETING_PROVIDER_URL", "")
	viper.SetDefault("MEETING_FALLBACK_URL", "https://meet.therapia.app")
	viper.SetDefault("BOOKING_BUFFER_MINUTES", 15)
	viper.SetDefault("MINIMUM_NOTICE_HOURS", 12)
	viper.SetDefault("ACCEPTANCE_DEADLINE_HOURS", 4)
	viper.SetDefault("ESCROW_RELEASE_DELAY_HOURS", 2)
	viper.SetDefault("DISPUTE_WINDOW_DAYS", 7)
	viper.SetDefault("PACKAGE_VALIDITY_DAYS", 90)
	viper.SetDefault("PLATFORM_COMMISSION_PCT", 15.0)
	viper.SetDefault("DEADLINE_SWEEP_SPEC", "*/10 * * * *")
	viper.SetDefault("ESCROW_SWEEP_SPEC", "*/15 * * * *")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

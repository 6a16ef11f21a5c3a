package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env               string
	HTTPPort          string
	DatabaseURL       string
	DBAutoMigrate     bool
	DefaultCurrency   string
	JWTSecret         string
	PublicBaseURL     string
	UploadDir         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	GoogleClientID    string
	FirebaseProjectID string
	FirebaseCredFile  string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	LogLevel          string
	ShopName          string
	OpenAPIPath       string

	// Business calendar.
	Timezone    string
	Location    *time.Location
	OpeningHour int
	ClosingHour int

	// WhatsApp delivery (Fonnte).
	FonnteToken       string
	FonnteURL         string
	OutboxInterval    time.Duration
	OutboxMaxAttempts int

	// Payment proof storage.
	GCSBucket          string
	GCSCredentialsJSON string

	RedisAddress string
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBAutoMigrate:      getBool("DB_AUTO_MIGRATE", false),
		DefaultCurrency:    getEnv("CURRENCY_CODE", "IDR"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		FirebaseProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredFile:   os.Getenv("FIREBASE_CREDENTIALS"),
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:        getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ShopName:           getEnv("SHOP_NAME", "Barbershop"),
		OpenAPIPath:        getEnv("OPENAPI_PATH", "api/openapi.yaml"),
		Timezone:           getEnv("TIMEZONE", "Asia/Jakarta"),
		OpeningHour:        getInt("OPENING_HOUR", 11),
		ClosingHour:        getInt("CLOSING_HOUR", 22),
		FonnteToken:        os.Getenv("FONNTE_TOKEN"),
		FonnteURL:          getEnv("FONNTE_URL", "https://api.fonnte.com/send"),
		OutboxInterval:     getDuration("OUTBOX_INTERVAL", 15*time.Second),
		OutboxMaxAttempts:  getInt("OUTBOX_MAX_ATTEMPTS", 5),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		RedisAddress:       os.Getenv("REDIS_ADDRESS"),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.OpeningHour < 0 || cfg.ClosingHour > 24 || cfg.OpeningHour >= cfg.ClosingHour {
		return cfg, fmt.Errorf("invalid business hours %d-%d", cfg.OpeningHour, cfg.ClosingHour)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

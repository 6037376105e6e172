package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string
	BaseURL  string

	// Content backend. "sanity" talks to the hosted CMS over HTTP,
	// "postgres" keeps records in a local database.
	CMSProvider string

	DatabaseUrl string

	SanityProjectID string
	SanityDataset   string
	SanityToken     string
	SanityAPIHost   string

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Address that receives lead notifications (contact + quote forms).
	NotifyEmail string

	// Rate limiting for the public form endpoints
	FormRateLimit  int
	FormRateWindow time.Duration

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string
	LocalStorageURL  string

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// Stripe Billing Configuration
	// In development the checkout and webhook handlers function as stubs
	// when these are empty.
	StripeSecretKey     string
	StripeWebhookSecret string

	// Client portal authentication
	JWTSecret string

	// Admin API access (mockup uploads)
	AdminAPIToken string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected.
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),

		CMSProvider: getEnv("CMS_PROVIDER", "postgres"),

		SanityProjectID: getEnv("SANITY_PROJECT_ID", ""),
		SanityDataset:   getEnv("SANITY_DATASET", "production"),
		SanityToken:     getEnv("SANITY_TOKEN", ""),
		SanityAPIHost:   getEnv("SANITY_API_HOST", "https://api.sanity.io"),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@loiredigital.fr"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Loire Digital"),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", "contact@loiredigital.fr"),

		// 5 submissions per minute per IP on /api/contact and /api/devis.
		FormRateLimit:  getEnvInt("FORM_RATE_LIMIT", 5),
		FormRateWindow: getEnvDuration("FORM_RATE_WINDOW", time.Minute),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminAPIToken: getEnv("ADMIN_API_TOKEN", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Validate content backend configuration
	switch cfg.CMSProvider {
	case "postgres":
		cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when CMS_PROVIDER is 'postgres'")
		}
	case "sanity":
		if cfg.SanityProjectID == "" {
			return nil, fmt.Errorf("SANITY_PROJECT_ID is required when CMS_PROVIDER is 'sanity'")
		}
		if cfg.SanityToken == "" {
			return nil, fmt.Errorf("SANITY_TOKEN is required when CMS_PROVIDER is 'sanity'")
		}
	default:
		return nil, fmt.Errorf("CMS_PROVIDER must be either 'postgres' or 'sanity', got: %s", cfg.CMSProvider)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	// The portal cannot issue tokens without a signing secret outside of
	// development.
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-only-secret-change-me"
	}

	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loiredigital/atelier/internal"
	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/billing"
	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/email"
	"github.com/loiredigital/atelier/internal/handler"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/pricing"
	"github.com/loiredigital/atelier/internal/service"
	"github.com/loiredigital/atelier/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// ==========================================================================
	// Content backend
	// ==========================================================================

	var store cms.Store
	switch cfg.CMSProvider {
	case "postgres":
		// Migrations run over database/sql; the application itself uses
		// the pgx pool.
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			db.Close()
			return fmt.Errorf("migration failed: %w", err)
		}
		db.Close()

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("connection pool failed: %w", err)
		}
		defer pool.Close()

		store = cms.NewPostgresStore(pool)
		logger.Info("Database ready")

	case "sanity":
		store = cms.NewSanityStore(cms.SanityConfig{
			ProjectID: cfg.SanityProjectID,
			Dataset:   cfg.SanityDataset,
			Token:     cfg.SanityToken,
			APIHost:   cfg.SanityAPIHost,
		}, logger)
		logger.Info("Sanity backend ready", "project", cfg.SanityProjectID, "dataset", cfg.SanityDataset)
	}

	// ==========================================================================
	// Email, billing, storage
	// ==========================================================================

	emails, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, cfg.NotifyEmail, "web/templates/email", logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}

	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled: STRIPE_SECRET_KEY not set")
	}

	var files storage.Storage
	switch cfg.StorageProvider {
	case "r2":
		files, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		files, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// ==========================================================================
	// Services
	// ==========================================================================

	catalog := pricing.DefaultCatalog()
	leadService := service.NewLeadService(store, emails, catalog, logger)
	portalService := service.NewPortalService(store, logger)
	onboardingService := service.NewOnboardingService(store, emails, logger)
	thumbnails := service.NewImagingProcessor()

	// ==========================================================================
	// Middleware
	// ==========================================================================

	isSecure := cfg.Env != "development"
	tokens := auth.NewTokenService(cfg.JWTSecret, isSecure)

	formLimiter := middleware.NewRateLimiter(cfg.FormRateLimit, cfg.FormRateWindow, logger)
	formLimiter.StartSweeper(5 * time.Minute)
	defer formLimiter.Stop()

	// Login attempts get a tighter budget than form submissions.
	loginLimiter := middleware.NewRateLimiter(5, 15*time.Minute, logger)
	loginLimiter.StartSweeper(5 * time.Minute)
	defer loginLimiter.Stop()

	authMw := middleware.NewAuthMiddleware(tokens, logger)
	adminMw := middleware.NewAdminAuthMiddleware(cfg.AdminAPIToken, logger)
	requestLogging := middleware.NewRequestLoggingMiddleware(logger)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isSecure)

	requireClient := middleware.Stack(authMw.WithClaims, authMw.RequireClient)
	loginLimit := middleware.NewRateLimitMiddleware(loginLimiter, logger).Limit

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics, optionally behind basic auth
	metricsHandler := http.Handler(promhttp.Handler())
	if cfg.MetricsUsername != "" || cfg.MetricsPassword != "" {
		metricsHandler = middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword).Handler(metricsHandler)
	}
	mux.Handle("GET /metrics", metricsHandler)

	// Locally stored files (mockups and thumbnails)
	if cfg.StorageProvider == "local" {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Public form and pricing endpoints
	handler.NewContactHandler(leadService, formLimiter, logger).RegisterRoutes(mux)
	handler.NewQuoteHandler(leadService, catalog, formLimiter, logger).RegisterRoutes(mux)

	// Checkout and Stripe webhook
	if billingService != nil {
		handler.NewCheckoutHandler(billingService, catalog, cfg.BaseURL, logger).RegisterRoutes(mux)
	}
	handler.NewWebhookHandler(billingService, onboardingService, logger).RegisterRoutes(mux)

	// Client portal
	handler.NewAuthHandler(portalService, tokens, logger).RegisterRoutes(mux, loginLimit, requireClient)
	handler.NewClientHandler(portalService, logger).RegisterRoutes(mux, requireClient)

	// Agency-side mockup uploads
	handler.NewAdminHandler(store, files, thumbnails, logger).RegisterRoutes(mux, adminMw.Require)

	// Outer middleware stack
	root := middleware.Stack(
		requestLogging.Handler,
		securityHeaders.Handler,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

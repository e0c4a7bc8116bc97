// Package main is the entry point for the portfolio API server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarin/portfolio-api/internal/auth"
	"github.com/dmarin/portfolio-api/internal/config"
	"github.com/dmarin/portfolio-api/internal/database"
	"github.com/dmarin/portfolio-api/internal/handler"
	"github.com/dmarin/portfolio-api/internal/middleware"
	"github.com/dmarin/portfolio-api/internal/notify"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/repository"
	"github.com/dmarin/portfolio-api/internal/service"
)

// repositories bundles one storage driver's implementations.
type repositories struct {
	blogs    repository.BlogRepository
	codes    repository.CodeRepository
	limits   repository.RateLimitRepository
	contacts repository.ContactRepository
}

func main() {
	// Setup structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Starting portfolio API",
		slog.String("environment", cfg.Server.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("port", cfg.Server.Port),
	)

	development := cfg.Server.Development()
	if !development && cfg.Auth.SessionSecret == "default-secret-change-me" {
		log.Fatal("auth.session_secret must be set in production")
	}

	// Storage driver
	repos, ping, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStorage()

	// Outbound email
	sender, err := newSender(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to configure email sender: %v", err)
	}

	// Services
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)
	authService := service.NewAuthService(repos.codes, sender, sessions, cfg.Auth, logger, development)
	blogService := service.NewBlogService(repos.blogs, logger, development)
	contactService := service.NewContactService(
		repos.contacts, sender,
		ratelimit.NewBlockingWindowLimiter(repos.limits, cfg.RateLimit.ContactIPMax,
			cfg.RateLimit.ContactWindow, cfg.RateLimit.ContactBlock, logger),
		ratelimit.NewBlockingWindowLimiter(repos.limits, cfg.RateLimit.ContactEmailMax,
			cfg.RateLimit.ContactWindow, cfg.RateLimit.ContactBlock, logger),
		cfg.Email, logger, development,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService,
		ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.RequestCodeMax, cfg.RateLimit.RequestCodeWindow),
		ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.VerifyCodeMax, cfg.RateLimit.VerifyCodeWindow),
		cfg.Auth.SessionExpiry, development)
	blogHandler := handler.NewBlogHandler(blogService, authService,
		ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.CreateBlogMax, cfg.RateLimit.CreateBlogWindow))
	contactHandler := handler.NewContactHandler(contactService)
	adminPages := handler.NewAdminPagesHandler(development)

	// Setup router
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Health check endpoints (no auth required)
	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(ping))
	r.Handle("/metrics", promhttp.Handler())

	// Admin: login flow plus page shells
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.SecurityHeaders)
		authHandler.Register(ar)
		adminPages.Register(ar)
	})

	// Public API
	r.Mount("/blogs", blogHandler.Routes())
	r.Mount("/contact", contactHandler.Routes())

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}

// openStorage builds the repository set for the configured driver. The
// returned ping function backs the readiness probe.
func openStorage(cfg *config.Config, logger *slog.Logger) (repositories, func(context.Context) error, func(), error) {
	switch cfg.Storage.Driver {
	case "redis":
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return repositories{}, nil, nil, err
		}
		logger.Info("Connected to Redis")
		repos := repositories{
			blogs:    repository.NewRedisBlogRepository(rdb),
			codes:    repository.NewRedisCodeRepository(rdb),
			limits:   repository.NewRedisRateLimitRepository(rdb),
			contacts: repository.NewRedisContactRepository(rdb),
		}
		return repos, rdb.Ping, func() { rdb.Close() }, nil

	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return repositories{}, nil, nil, err
		}
		logger.Info("Connected to PostgreSQL")
		if err := db.RunMigrations(cfg.Database); err != nil {
			db.Close()
			return repositories{}, nil, nil, err
		}
		logger.Info("Database migrations completed")
		repos := repositories{
			blogs:    repository.NewPostgresBlogRepository(db),
			codes:    repository.NewPostgresCodeRepository(db),
			limits:   repository.NewPostgresRateLimitRepository(db),
			contacts: repository.NewPostgresContactRepository(db),
		}
		return repos, db.Ping, db.Close, nil

	case "memory":
		logger.Warn("Using in-memory storage, data will not survive a restart")
		repos := repositories{
			blogs:    repository.NewMemoryBlogRepository(),
			codes:    repository.NewMemoryCodeRepository(),
			limits:   repository.NewMemoryRateLimitRepository(),
			contacts: repository.NewMemoryContactRepository(),
		}
		return repos, func(context.Context) error { return nil }, func() {}, nil

	default:
		return repositories{}, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newSender builds the configured outbound email sender.
func newSender(cfg *config.Config, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.Email.Provider {
	case "ses":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return notify.NewSESSender(ctx, cfg.Email.Region, cfg.Email.From)
	case "log":
		return notify.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

// healthHandler returns a simple health check that always succeeds if the server is running.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// readyHandler returns a readiness check that verifies the storage backend.
func readyHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"storage"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","storage":"connected"}`))
	}
}

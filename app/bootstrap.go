package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sportmeet-api/internal/admin"
	"sportmeet-api/internal/auth"
	"sportmeet-api/internal/db"
	"sportmeet-api/internal/docs"
	"sportmeet-api/internal/event"
	"sportmeet-api/internal/maintenance"
	"sportmeet-api/internal/media"
	"sportmeet-api/internal/observability"
	"sportmeet-api/internal/sports"
	"sportmeet-api/internal/user"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger("sportmeet-api")

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development"), "sportmeet-api"); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	issuer, err := auth.NewTokenIssuer(jwtSecret, envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15))
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	authRepo := auth.NewRepository(database)
	authService := auth.NewService(authRepo, issuer)
	authHandler := auth.NewHandler(authService)

	if err := authService.SeedAdmin(
		context.Background(),
		os.Getenv("ADMIN_USERNAME"),
		os.Getenv("ADMIN_EMAIL"),
		os.Getenv("ADMIN_PASSWORD"),
	); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	userRepo := user.NewRepository(database)
	userHandler := user.NewHandler(userRepo)

	eventRepo := event.NewRepository(database)
	eventHandler := event.NewHandler(eventRepo)

	adminHandler := admin.NewHandler(authRepo)

	sportsHandler := sports.NewHandler(sports.NewClient(os.Getenv("SPORTSDB_BASE_URL")))

	cleanupHandler := maintenance.NewCleanupHandler(
		eventRepo,
		logger,
		os.Getenv("CRON_SECRET"),
		envDaysOrDefault("EVENT_RETENTION_DAYS", 90),
		envIntOrDefault("EVENT_CLEANUP_BATCH_SIZE", 500),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.HandleFunc("GET /doc", docs.Handler())
	mux.HandleFunc("GET /sports/leagues", sportsHandler.Leagues)
	mux.Handle("GET /user/profil", auth.Middleware(issuer, http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /user/profil/{id}", auth.Middleware(issuer, http.HandlerFunc(userHandler.ByID)))
	mux.Handle("PUT /user", auth.Middleware(issuer, http.HandlerFunc(userHandler.Update)))
	mux.Handle("DELETE /user", auth.Middleware(issuer, http.HandlerFunc(userHandler.Delete)))
	mux.Handle("POST /event", auth.Middleware(issuer, http.HandlerFunc(eventHandler.Create)))
	mux.Handle("GET /event", auth.Middleware(issuer, http.HandlerFunc(eventHandler.List)))
	mux.Handle("PUT /admin/setmod", auth.Middleware(issuer,
		auth.RequireRole(auth.RoleAdmin, http.HandlerFunc(adminHandler.SetModerator))))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	// Avatar uploads only exist when an image host is configured.
	if cloudinaryURL := strings.TrimSpace(os.Getenv("CLOUDINARY_URL")); cloudinaryURL != "" {
		cloudinaryClient, err := media.NewCloudinary(cloudinaryURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		avatarHandler := media.NewAvatarHandler(cloudinaryClient, userRepo)
		mux.Handle("POST /user/avatar", auth.Middleware(issuer, http.HandlerFunc(avatarHandler.Upload)))
	}

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

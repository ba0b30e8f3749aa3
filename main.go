package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/clubworks/mms-backend/config"
	"github.com/clubworks/mms-backend/redisclient"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/shared/utils"
	v1 "github.com/clubworks/mms-backend/v1"
	v1handlers "github.com/clubworks/mms-backend/v1/handlers"
	v1middleware "github.com/clubworks/mms-backend/v1/middleware"
	"github.com/joho/godotenv"
)

const serviceName = "mms-backend"

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	cfg := config.LoadConfig(serviceName)
	utils.SetupLogging(cfg.Logging.Format, cfg.Logging.Level)

	slog.Info("Starting membership management backend", "environment", cfg.Environment)

	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it login lockouts and sweep cooldowns fall
	// back to in-process state and audit events go to the log only.
	var redisClient *redisclient.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.NewClient(&redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Warn("Redis unavailable, continuing without it", "error", err)
			redisClient = nil
		}
	}

	v1Handler := v1handlers.NewV1Handler(gormDB, cfg, redisClient)

	apiMux := http.NewServeMux()
	v1Handler.SetupV1Routes(apiMux)

	monitoring.RegisterRoutes([]string{
		"/api/v1/members", "/api/v1/meetings", "/api/v1/attendance",
		"/api/v1/payments", "/api/v1/badges", "/api/v1/lifecycle",
		"/api/v1/dashboard", "/api/v1/reports", "/api/v1/exports",
		"/api/v1/staff", "/api/v1/auth",
	})

	authMiddleware := v1middleware.NewStaffAuthMiddleware(v1Handler.StaffService(), []string{
		"/healthz",
		"/metrics",
		"/api/v1/auth/login",
	})

	rateLimit := v1middleware.RateLimitMiddleware(100, time.Minute, v1middleware.DefaultPathLimits())
	cors := v1middleware.CORSMiddleware(cfg.Service.AllowedOrigins)

	// Middleware chain, outermost first: panic recovery, security headers,
	// request logging, CORS, rate limiting, metrics, then staff auth.
	protectedAPI := utils.PanicRecoveryMiddleware(
		v1middleware.SecurityHeaders(
			v1middleware.SecurityLogging(
				cors(
					rateLimit(
						v1middleware.InputValidation(
							monitoring.HTTPMetricsMiddleware(
								authMiddleware.Authenticate(apiMux),
							),
						),
					),
				),
			),
		),
	)

	topLevelMux := http.NewServeMux()
	topLevelMux.Handle("/healthz", utils.HealthHandler(serviceName))
	if monitoring.IsInitialized() {
		topLevelMux.Handle("/metrics", monitoring.Handler())
	}
	topLevelMux.Handle("/api/v1/", protectedAPI)

	serverConfig := &utils.ServerConfig{
		Port:         cfg.Service.Port,
		ReadTimeout:  cfg.Service.ReadTimeout,
		WriteTimeout: cfg.Service.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	server := utils.CreateServer(serverConfig, topLevelMux)

	if err := utils.StartServerWithGracefulShutdown(server, serviceName); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close redis connection", "error", err)
		}
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Service exited")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/ebotikaph/ebotika-api/internal/auth"
	"github.com/ebotikaph/ebotika-api/internal/config"
	"github.com/ebotikaph/ebotika-api/internal/database"
	"github.com/ebotikaph/ebotika-api/internal/dedup"
	"github.com/ebotikaph/ebotika-api/internal/email"
	"github.com/ebotikaph/ebotika-api/internal/geo"
	httpServer "github.com/ebotikaph/ebotika-api/internal/http"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/ratelimit"
	"github.com/ebotikaph/ebotika-api/internal/recovery"
	"github.com/ebotikaph/ebotika-api/internal/registration"
	"github.com/ebotikaph/ebotika-api/internal/resident"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

// @title           e-Botika API
// @version         1.0
// @description     Barangay medicine-request platform: resident registration, identity verification, and account recovery.

// @contact.name   e-Botika Support
// @contact.email  support@ebotika.ph

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	residentRepo := resident.NewRepository(db)
	registrationRepo := registration.NewRepository(db)
	directoryRepo := dedup.NewRepository(db)
	geoRepo := geo.NewRepository(db)
	codeRepo := verification.NewRepository(db)
	resetSessions := recovery.NewRedisSessionStore(redisClient)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromName,
		cfg.Email.SendTimeout,
	)

	// Initialize domain services
	codeService := verification.NewService(codeRepo)
	dedupService := dedup.NewService(directoryRepo)
	areaRouter := geo.NewRouter(geoRepo)

	registrationService := registration.NewService(
		registrationRepo,
		dedupService,
		areaRouter,
		codeService,
		emailService,
		logger,
		cfg.Verification.RegistrationCodeWindow,
	)

	recoveryService := recovery.NewService(
		residentRepo,
		codeService,
		resetSessions,
		emailService,
		logger,
		cfg.Verification.ResetOTPWindow,
		cfg.Verification.ResetSessionTTL,
	)

	authService := auth.NewService(residentRepo, pasetoService, cfg.Auth.AccessTokenDuration)

	// Periodically purge expired verification codes
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go verification.RunCleanup(cleanupCtx, codeRepo, time.Hour, logger)

	// Initialize HTTP handlers
	registrationHandler := registration.NewHandler(registrationService, rateLimiter, logger)
	recoveryHandler := recovery.NewHandler(recoveryService, rateLimiter, logger)
	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	geoHandler := geo.NewHandler(geoRepo)
	authMiddleware := auth.NewMiddleware(pasetoService)

	// Initialize router
	router := httpServer.NewRouter(
		cfg,
		registrationHandler,
		recoveryHandler,
		authHandler,
		geoHandler,
		authMiddleware,
		logger,
	)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

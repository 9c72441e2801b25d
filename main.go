package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"postboard/cache"
	"postboard/config"
	"postboard/db"
	"postboard/events"
	"postboard/logger"
	"postboard/metrics"
	"postboard/middleware"
	"postboard/routes"
	"postboard/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found") // Non-fatal in production
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.Open(ctx, dialect, cfg.DSN())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.InitSchema(ctx, database, dialect, log); err != nil {
		return err
	}

	seed := db.Seed{ModeratorEmail: cfg.ModeratorEmail}
	if cfg.ModeratorPassword != "" {
		if seed.ModeratorPasswordHash, err = middleware.HashPassword(cfg.ModeratorPassword); err != nil {
			return fmt.Errorf("error hashing moderator password: %w", err)
		}
	}
	if err := db.SeedData(ctx, database, seed); err != nil {
		log.Warn("error seeding initial data", zap.Error(err))
	}

	var responseCache cache.ResponseCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		responseCache = rc
		log.Info("response cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		publisher = p
		log.Info("publishing response events to RabbitMQ")
	}
	defer publisher.Close()

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		jwtSecret = []byte("development-secret")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Requests(log))

	// Setup CORS - the composer clients call the API from anywhere
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"DELETE",
	}
	r.Use(cors.New(corsConfig))

	err = routes.SetupRoutes(r, routes.Dependencies{
		Store:          store.New(database),
		Cache:          responseCache,
		Publisher:      publisher,
		Metrics:        metrics.New(),
		Tokens:         middleware.NewTokenService(jwtSecret),
		Log:            log,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

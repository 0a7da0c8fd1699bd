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

	"auditorium/internal/api"
	"auditorium/internal/config"
	"auditorium/internal/service"
	"auditorium/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(cfg.Log.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	dev := cfg.DevServer

	// 2. Optional Redis: refresh allow-list and shared rate limiting
	var (
		refresh service.RefreshStore
		limiter redis.Scripter
	)
	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, keeping sessions in memory", zap.Error(err))
	} else {
		defer rdb.Close()
		refresh = service.NewRedisRefreshStore(rdb)
		limiter = rdb
	}

	// 3. Initialize Domain
	domain, err := service.NewDomain(service.DomainOptions{
		Auth: service.AuthConfig{
			SigningKey:      []byte(dev.SigningKey),
			AccessTokenTTL:  dev.AccessTokenTTL,
			RefreshTokenTTL: dev.RefreshTokenTTL,
			EchoOTP:         dev.EchoOTP,
		},
		Refresh:       refresh,
		AdminEmail:    dev.AdminEmail,
		AdminPassword: dev.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to build domain: %w", err)
	}

	// 4. Setup HTTP Server
	r := api.RegisterRoutes(api.NewHandlers(domain), domain.Auth, limiter, api.RouterOptions{
		RequestsPerSecond: dev.RequestsPerSecond,
		AllowedOrigins:    dev.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    dev.Port,
		Handler: r,
	}

	// 5. Start Server
	go func() {
		logger.Info("server starting",
			zap.String("addr", dev.Port),
			zap.String("env", cfg.Log.Environment),
			zap.Bool("redis", refresh != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	// 6. Graceful Shutdown Signal Wait
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis.addr is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

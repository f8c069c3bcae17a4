package main

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/events"
	"NFTMarket/internal/handlers"
	"NFTMarket/internal/middleware"
	"NFTMarket/internal/repo"
	"NFTMarket/internal/service"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	publisher := events.Connect(cfg, sugar)
	defer func() {
		if err := publisher.Close(); err != nil {
			sugar.Warnw("failed to close event publisher", "error", err)
		}
	}()

	repos := repo.NewRepositories(gormDB)
	opts := []service.Option{
		service.WithConflictRetries(cfg.ConflictRetries),
		service.WithPageSize(cfg.PageSize),
	}
	tokenService := service.NewTokenService(repos, publisher, sugar, opts...)
	itemService := service.NewItemService(repos, publisher, sugar, opts...)

	h := handlers.NewHandler(tokenService, itemService, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"NATS", cfg.NATSURL != "",
		"Redis", cfg.RedisAddr != "",
		"AdminRoutes", cfg.AdminKeyHash != "",
	)

	srv := &http.Server{Addr: addr, Handler: h.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

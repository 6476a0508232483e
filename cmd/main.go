package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"organico/internal/config"
	httpapi "organico/internal/http"
	"organico/internal/recipe"
	"organico/internal/repository"
	"organico/internal/service"
	"organico/internal/storefront"

	_ "organico/docs"
)

// @title Organico Storefront API
// @version 1.0
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if cfg.InsecureSecret() {
		logger.Warn("JWT_SECRET is the built-in default, set it before exposing the service")
	}

	blobs, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		logger.Error("open store", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	records := repository.NewRecords(blobs)
	productsSvc := service.NewProductService(records, logger)
	ordersSvc := service.NewOrderService(records, logger)
	sessionsSvc, err := service.NewSessionService(records, service.SessionConfig{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, logger)
	if err != nil {
		logger.Error("session service", slog.Any("error", err))
		os.Exit(1)
	}

	recipes := recipe.NewClient(recipe.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.RecipeTimeout,
	}, logger)
	if !recipes.Enabled() {
		logger.Warn("GEMINI_API_KEY not set, recipe suggestions disabled")
	}

	hub := storefront.NewHub(storefront.Deps{
		Products: productsSvc,
		Sessions: sessionsSvc,
		Orders:   ordersSvc,
		Recipes:  recipes,
		Log:      logger,
	})
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	hub.StartSweeper(sweepCtx, cfg.SweepInterval, cfg.ClientIdleTTL)

	tokens := httpapi.NewClientTokens(cfg.JWTSecret, cfg.ClientTTL)
	srv := httpapi.NewServer(hub, productsSvc, ordersSvc, tokens, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr), slog.String("store", cfg.StoreDriver))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.BlobStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverRedis:
		s, err := repository.OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverMemory:
		return repository.NewMemoryBlobs(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

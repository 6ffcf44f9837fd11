package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/auth"
	"github.com/sheikh-saqib/fin-ledger/internal/config"
	"github.com/sheikh-saqib/fin-ledger/internal/events"
	"github.com/sheikh-saqib/fin-ledger/internal/ledger"
	"github.com/sheikh-saqib/fin-ledger/internal/server"
	"github.com/sheikh-saqib/fin-ledger/internal/storage"
	"github.com/sheikh-saqib/fin-ledger/internal/users"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}

	publisher, err := events.NewPublisher(ctx, cfg.Events, logger)
	if err != nil {
		store.Close()
		logger.Fatal("failed to create event publisher", zap.Error(err))
	}

	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	ledgerService := ledger.NewLedger(store, publisher, logger)
	userService := users.NewService(store, tokens, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(ledgerService, userService, tokens, logger).Routes(cfg.CorsOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("events", cfg.Events.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("close event publisher", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Warn("close storage", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

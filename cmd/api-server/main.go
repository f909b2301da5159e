package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"advocatehub/internal/advocate"
	"advocatehub/internal/auth"
	"advocatehub/internal/live"
	"advocatehub/internal/server"
	"advocatehub/pkg/database"
	"advocatehub/pkg/logging"
	"advocatehub/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("api server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg utils.Config, logger *zap.Logger) error {
	seed, err := advocate.FallbackDataset()
	if err != nil {
		return fmt.Errorf("load bundled dataset: %w", err)
	}

	var store *advocate.Repo
	if cfg.DB.Driver != "" {
		db, err := database.Open(database.Resolve(cfg.DB.Driver, cfg.DB.DSN))
		if err != nil {
			// keep serving from the bundled dataset
			logger.Warn("store unavailable at startup", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		} else {
			defer db.Close()
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("db migrate failed: %w", err)
			}
			store = advocate.NewRepo(db)
			logger.Info("store connected", zap.String("driver", db.Driver))
		}
	} else {
		logger.Info("no store configured, serving bundled dataset")
	}

	hub := live.NewHub()
	router := server.New(server.Deps{
		Store: store,
		Seed:  seed,
		Tokens: auth.TokenService{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Issuer:   cfg.Auth.JWTIssuer,
			Duration: cfg.Auth.JWTDuration,
		},
		PassHash: cfg.Auth.AdminPasswordHash,
		Hub:      hub,
		Logger:   logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return serveErr
}

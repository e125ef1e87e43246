package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayush/credential-service/internal/auth"
	"github.com/ayush/credential-service/internal/config"
	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/server"
	"github.com/ayush/credential-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.New(os.Stderr, "error").Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	// ── User store ───────────────────────────────────────────
	users, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Warn(ctx, "close store", "error", err)
		}
	}()
	logger.Info(ctx, "user store ready", "db_type", cfg.DBType)

	// ── Auth service ─────────────────────────────────────────
	codec, err := auth.NewPasswordCodec(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	authService := auth.NewService(users, codec, logger)

	// ── Router ───────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Users:       users,
		Auth:        authService,
		Logger:      logger,
		FrontendURL: cfg.FrontendURL,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

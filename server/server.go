// Package server wires the application together and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/db"
	"github.com/tmcf/paceline/internal/logger"
	"github.com/tmcf/paceline/internal/session"
	"github.com/tmcf/paceline/internal/store"
	"github.com/tmcf/paceline/internal/strava"
	"github.com/tmcf/paceline/internal/tokens"
	apihandlers "github.com/tmcf/paceline/server/api-handlers"
	authhandlers "github.com/tmcf/paceline/server/auth-handlers"
	healthhandlers "github.com/tmcf/paceline/server/health-handlers"
)

// Start validates configuration, opens the database, constructs the
// credential and session services, and serves HTTP until interrupted.
func Start(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		// Missing credentials or signing secret: refuse to serve traffic
		return err
	}

	dbService, err := db.NewService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbService.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	accounts := store.NewAccountStore(dbService)
	exchanger := strava.NewClient(cfg)
	sessions, err := session.NewService(cfg)
	if err != nil {
		return err
	}
	orchestrator := tokens.NewOrchestrator(accounts, exchanger, cfg.RefreshLeeway)

	mux := NewMux(cfg, accounts, exchanger, sessions, orchestrator)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port, "env", cfg.AppEnv)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

// NewMux builds the route table from explicitly injected collaborators.
// Split out from Start so tests can exercise the full routing surface.
func NewMux(cfg *config.Config, accounts store.AccountStore, exchanger strava.Exchanger,
	sessions *session.Service, orchestrator *tokens.Orchestrator) *http.ServeMux {
	mux := http.NewServeMux()

	healthhandlers.RegisterRoutes(mux, "", cfg)
	authhandlers.RegisterRoutes(mux, "/auth", cfg, exchanger, accounts, sessions, orchestrator)
	apihandlers.RegisterRoutes(mux, "/api", cfg, orchestrator, exchanger, sessions)

	return mux
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/soar/internal/api/handlers"
	"github.com/pratik-mahalle/soar/internal/api/router"
	"github.com/pratik-mahalle/soar/internal/app"
	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.ErrorWithErr(err, "Failed to close engine")
		}
	}()

	if cfg.Retention.Enabled {
		retention, err := worker.NewRetentionWorker(engine.Incidents, cfg.Retention.Schedule, cfg.Retention.MaxAge, log)
		if err != nil {
			return err
		}
		if err := retention.Start(ctx); err != nil {
			return err
		}
		defer retention.Stop()
	}

	if !cfg.Auth.Enabled() {
		log.Warn("JWT_SECRET is not set, mutating API routes are unauthenticated")
	}

	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(engine.DB, log),
		Incident:  handlers.NewIncidentHandler(engine.Orchestrator, engine.IncidentSvc, log),
		Playbook:  handlers.NewPlaybookHandler(engine.Orchestrator, log),
		Isolation: handlers.NewIsolationHandler(engine.Orchestrator, log),
		Dashboard: handlers.NewDashboardHandler(engine.Dashboard, log),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        server.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

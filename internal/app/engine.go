package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/pratik-mahalle/soar/internal/events"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/repository/postgres"
	"github.com/pratik-mahalle/soar/internal/services"
	"github.com/pratik-mahalle/soar/migrations"
)

// Engine is the wired incident response pipeline shared by the API server
// and the local CLI
type Engine struct {
	DB           *sql.DB
	Catalog      *playbook.Catalog
	Incidents    incident.Repository
	IncidentSvc  *services.IncidentService
	Dashboard    *services.DashboardService
	Orchestrator *services.Orchestrator
	Publisher    events.Publisher

	logger *logger.Logger
}

// Open connects the store, applies pending migrations, loads the playbook
// catalog and wires every service. Close releases what Open acquired.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Engine, error) {
	catalog, err := playbook.LoadOrDefault(cfg.Engine.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook catalog: %w", err)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	applied, err := postgres.RunMigrations(ctx, db, migrations.GetFS())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		log.WithFields(map[string]interface{}{
			"migrations": applied,
		}).Info("Applied database migrations")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		publisher = natsPub
	}

	e := &Engine{
		DB:        db,
		Catalog:   catalog,
		Publisher: publisher,
		logger:    log,
	}
	e.wire(cfg, db, cfg.Database.Driver)

	log.WithFields(map[string]interface{}{
		"driver":    cfg.Database.Driver,
		"playbooks": catalog.Len(),
		"nats":      cfg.NATS.Enabled,
	}).Info("Incident response engine ready")

	return e, nil
}

func (e *Engine) wire(cfg *config.Config, db *sql.DB, driver string) {
	log := e.logger
	e.Incidents = postgres.NewIncidentRepository(db, driver)
	e.IncidentSvc = services.NewIncidentService(e.Incidents, log)
	e.Dashboard = services.NewDashboardService(postgres.NewMetricsRepository(db, driver), cfg.Engine.MTTRTarget, log)

	scale := cfg.Engine.TimeScale
	e.Orchestrator = services.NewOrchestrator(services.OrchestratorOptions{
		Catalog:    e.Catalog,
		Planner:    playbook.NewPlanner(cfg.Engine.UrgencyFactor),
		Scheduler:  services.NewScheduler(services.NewSimulatedExecutor(scale), cfg.Engine.MaxParallel, log),
		Intel:      services.NewIntelService(services.DefaultIntelSources(scale), cfg.Engine.IntelCacheSize, cfg.Engine.IntelCacheTTL, log),
		Isolation:  services.NewIsolationService(services.NewSimulatedIsolator(scale), log),
		Incidents:  e.Incidents,
		Dashboard:  e.Dashboard,
		Publisher:  e.Publisher,
		MTTRTarget: cfg.Engine.MTTRTarget,
		Logger:     log,
	})
}

// Close flushes the publisher and closes the store
func (e *Engine) Close() error {
	var firstErr error
	if err := e.Publisher.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close publisher: %w", err)
	}
	if err := e.DB.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close database: %w", err)
	}
	return firstErr
}

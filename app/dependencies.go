package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/config"
	"github.com/AyachiMishra/social-signal-intelligence-system/handlers"
	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/internal/privacy"
	"github.com/AyachiMishra/social-signal-intelligence-system/middleware"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories/jsonfile"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories/postgres"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/audit"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/enrich"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/factory"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/governance"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle/openai"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/pipeline"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/reason"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	DB       *postgres.DB // nil when the JSON file store is used
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Privacy
	Shield *privacy.Shield

	// Repositories
	Signals repositories.SignalRepository
	Audit   repositories.AuditRepository

	// Services
	AuditService *audit.AuditService
	Governance   *governance.GovernanceService
	Factory      *factory.FactoryService
	Enricher     *enrich.EnrichService
	Reasoner     *reason.ReasonService
	Pipeline     *pipeline.PipelineService
	Scheduler    *pipeline.Scheduler

	// HTTP layer
	AuthMiddleware *middleware.AuthMiddleware
	SignalHandler  *handlers.SignalHandler
	AuditHandler   *handlers.AuditHandler
	StatsHandler   *handlers.StatsHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initObservability()

	if err := deps.initRepositories(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initServices(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initObservability sets up the metrics registry and privacy shield
func (d *Dependencies) initObservability() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d.Registry = registry
	d.Metrics = observability.NewMetrics(registry)
	d.Shield = privacy.NewShield(privacy.NewHeuristicRecognizer(), d.Metrics.PIIRedactions, d.Logger)
}

// initRepositories opens the configured signal and audit stores
func (d *Dependencies) initRepositories(ctx context.Context, cfg *config.Config) error {
	if cfg.Database != nil {
		db, err := postgres.NewDB(*cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		d.DB = db
		d.Signals = postgres.NewSignalRepository(db, d.Logger)
		d.Audit = postgres.NewAuditRepository(db, d.Logger)

		d.Logger.Info("database connection established",
			zap.String("connection", cfg.Database.LogString()))
		return nil
	}

	signals, err := jsonfile.NewSignalRepository(cfg.Store.SignalsPath)
	if err != nil {
		return fmt.Errorf("failed to open signal store: %w", err)
	}
	auditRepo, err := jsonfile.NewAuditRepository(cfg.Store.AuditPath)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}

	d.Signals = signals
	d.Audit = auditRepo

	d.Logger.Info("file-backed stores opened",
		zap.String("signals", cfg.Store.SignalsPath),
		zap.String("audit", cfg.Store.AuditPath))
	return nil
}

// initServices wires the signal pipeline from the oracle up to the scheduler
func (d *Dependencies) initServices(ctx context.Context, cfg *config.Config) error {
	adapter := openai.NewAdapter(openai.Config{
		APIKey:     cfg.Oracle.APIKey,
		BaseURL:    cfg.Oracle.BaseURL,
		Model:      cfg.Oracle.Model,
		Timeout:    cfg.Oracle.Timeout,
		MaxRetries: cfg.Oracle.MaxRetries,
		RetryDelay: cfg.Oracle.RetryDelay,
	})

	examples, err := factory.LoadExampleSet(cfg.Pipeline.ExamplesPath)
	if err != nil {
		return fmt.Errorf("failed to load example set: %w", err)
	}

	factorySvc, err := factory.NewFactoryService(adapter, d.Shield, examples, d.Metrics, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create factory: %w", err)
	}

	// Resume the sequence counter past already persisted signals
	lastSequence, err := d.Signals.MaxSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sequence: %w", err)
	}
	factorySvc.Seed(lastSequence)

	d.Factory = factorySvc
	d.Enricher = enrich.NewEnrichService(adapter, cfg.Pipeline.ConfidenceThreshold, d.Metrics, d.Logger)
	d.Reasoner = reason.NewReasonService(adapter, d.Metrics, d.Logger)
	d.AuditService = audit.NewAuditService(d.Audit, d.Metrics, d.Logger)
	d.Governance = governance.NewGovernanceService(d.Signals, d.AuditService, d.Metrics, d.Logger)

	d.Pipeline = pipeline.NewPipelineService(
		d.Factory,
		d.Enricher,
		d.Reasoner,
		d.Governance,
		pipeline.Config{
			MinBatchSize:     cfg.Pipeline.MinBatchSize,
			MaxBatchSize:     cfg.Pipeline.MaxBatchSize,
			MaxParallel:      cfg.Pipeline.MaxParallel,
			FailureThreshold: cfg.Pipeline.FailureThreshold,
		},
		d.Metrics,
		d.Logger,
	)
	d.Scheduler = pipeline.NewScheduler(d.Pipeline, cfg.Pipeline.Interval, d.Metrics, d.Logger)

	d.Logger.Info("signal pipeline wired",
		zap.Int64("last_sequence", lastSequence),
		zap.Duration("interval", cfg.Pipeline.Interval))
	return nil
}

// initHTTP builds the auth middleware and request handlers
func (d *Dependencies) initHTTP(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, governance endpoints will reject all requests")
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(middleware.NewJWTValidator(cfg.Auth.JWTSecret), d.Logger)

	var sqlDB *sql.DB
	if d.DB != nil {
		sqlDB = d.DB.DB
	}
	d.SignalHandler = handlers.NewSignalHandler(d.Governance, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.AuditService, d.Logger)
	d.StatsHandler = handlers.NewStatsHandler(d.Governance, d.Shield, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(sqlDB, d.Pipeline, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

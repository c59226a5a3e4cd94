package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	audittrail "liquorum/contexts/insolvency-core/audit-trail-service"
	auditmemory "liquorum/contexts/insolvency-core/audit-trail-service/adapters/memory"
	auditpostgres "liquorum/contexts/insolvency-core/audit-trail-service/adapters/postgres"
	auditentities "liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	ledgermemory "liquorum/contexts/insolvency-core/case-ledger-service/adapters/memory"
	ledgerpostgres "liquorum/contexts/insolvency-core/case-ledger-service/adapters/postgres"
	ledgerworkers "liquorum/contexts/insolvency-core/case-ledger-service/application/workers"
	ledgerports "liquorum/contexts/insolvency-core/case-ledger-service/ports"
	caseregistry "liquorum/contexts/insolvency-core/case-registry-service"
	registrypostgres "liquorum/contexts/insolvency-core/case-registry-service/adapters/postgres"
	registryentities "liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	registryports "liquorum/contexts/insolvency-core/case-registry-service/ports"
	"liquorum/internal/platform/config"
	"liquorum/internal/platform/db"
	"liquorum/internal/platform/httpserver"
	"liquorum/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	ledgerRelay   ledgerworkers.OutboxRelay
	registryRelay ledgerworkers.OutboxRelay
	relayEnabled  bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return buildInMemoryAPI(cfg, logger)
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	// Registry owns the cases and creditors tables; its models migrate
	// first so the ledger's read side finds them in place.
	models := append(registrypostgres.Models(), ledgerpostgres.Models()...)
	if err := pg.Migrate(models...); err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	auditRepo := auditpostgres.NewRepository(pg.DB, logger)

	ledgerModule := caseledger.NewModule(caseledger.Dependencies{
		Repository: ledgerRepo,
		Clock:      ledgerpostgres.SystemClock{},
		IDGen:      ledgerpostgres.UUIDGenerator{},
		Logger:     logger,
	})
	registryModule := caseregistry.NewModule(caseregistry.Dependencies{
		Repository: registryRepo,
		Dependents: ledgerRepo,
		Clock:      registrypostgres.SystemClock{},
		IDGen:      registrypostgres.UUIDGenerator{},
		Logger:     logger,
	})
	auditModule := audittrail.NewModule(audittrail.Dependencies{
		Reader:   auditRepo,
		Appender: auditRepo,
		Clock:    auditpostgres.SystemClock{},
		IDGen:    auditpostgres.UUIDGenerator{},
		Logger:   logger,
	})

	server := httpserver.New(registryModule, ledgerModule, auditModule, logger, normalizeAddr(cfg.HTTPPort), cfg.EnableSwaggerUI)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// buildInMemoryAPI wires every module against in-memory stores. Registry
// mutations fan out to the ledger's case replica and every module's audit
// entries land in the audit trail store, mirroring what the shared
// postgres tables give the production wiring.
func buildInMemoryAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	logger.Warn("no postgres dsn configured, running on in-memory stores",
		"event", "bootstrap_in_memory_mode",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	ledgerModule := caseledger.NewInMemoryModule(nil, nil, logger)
	auditModule := audittrail.NewInMemoryModule(logger)
	registryModule := caseregistry.NewInMemoryModule(
		ledgerModule.Store,
		ledgerReplica{store: ledgerModule.Store},
		logger,
	)

	ledgerModule.Store.AuditSink = func(entry ledgerports.AuditEntry) {
		appendAudit(auditModule.Store, entry.EntryID, entry.CaseID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Snapshot, entry.CreatedAt)
	}
	registryModule.Store.AuditSink = func(entry registryports.AuditEntry) {
		appendAudit(auditModule.Store, entry.EntryID, entry.CaseID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Snapshot, entry.CreatedAt)
	}

	server := httpserver.New(registryModule, ledgerModule, auditModule, logger, normalizeAddr(cfg.HTTPPort), cfg.EnableSwaggerUI)
	return &APIApp{
		server: server,
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	registryRepo := registrypostgres.NewRepository(pg.DB, logger)

	ledgerRelay := caseledger.NewOutboxRelay(ledgerRepo, kafka, ledgerpostgres.SystemClock{}, logger)
	ledgerRelay.BatchSize = cfg.OutboxRelayBatchSize
	registryRelay := caseledger.NewOutboxRelay(registryRepo, kafka, ledgerpostgres.SystemClock{}, logger)
	registryRelay.BatchSize = cfg.OutboxRelayBatchSize

	return &WorkerApp{
		postgres:      pg,
		ledgerRelay:   ledgerRelay,
		registryRelay: registryRelay,
		relayEnabled:  cfg.EnableOutboxRelay,
		pollInterval:  time.Duration(cfg.OutboxRelayIntervalSeconds) * time.Second,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if !w.relayEnabled {
		w.logger.Info("outbox relay disabled, worker idle",
			"event", "bootstrap_worker_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.ledgerRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.registryRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// ledgerReplica pushes registry case and creditor changes into the
// ledger's in-memory read view.
type ledgerReplica struct {
	store *ledgermemory.Store
}

func (r ledgerReplica) CaseChanged(c registryentities.Case) {
	r.store.UpsertCase(ledgerports.CaseRecord{
		ID:        c.ID,
		Reference: c.Reference,
		Status:    string(c.Status),
		Stage:     c.Stage,
		OpenedAt:  c.OpenedAt,
		ClosedAt:  c.ClosedAt,
	})
}

func (r ledgerReplica) CaseRemoved(caseID string) {
	_ = r.store.DeleteCaseData(context.Background(), caseID)
}

func (r ledgerReplica) CreditorChanged(creditor registryentities.Creditor) {
	r.store.PutCreditor(creditor.ID, creditor.Active)
}

func (r ledgerReplica) CreditorRemoved(creditorID string) {
	r.store.RemoveCreditor(creditorID)
}

func appendAudit(store *auditmemory.Store, entryID, caseID, actor, action, entityType, entityID string, snapshot any, createdAt time.Time) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		raw = nil
	}
	_ = store.Append(context.Background(), auditentities.Entry{
		ID:         entryID,
		CaseID:     caseID,
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Snapshot:   raw,
		CreatedAt:  createdAt,
	})
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

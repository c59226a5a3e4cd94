package caseledgerservice

import (
	"log/slog"

	httpadapter "liquorum/contexts/insolvency-core/case-ledger-service/adapters/http"
	"liquorum/contexts/insolvency-core/case-ledger-service/adapters/memory"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/commands"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/queries"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/workers"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store, seeded
// with case and creditor records normally owned by the registry.
func NewInMemoryModule(cases []ports.CaseRecord, creditors []string, logger *slog.Logger) Module {
	store := memory.NewStore(cases, creditors)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

// NewOutboxRelay builds the relay worker over any outbox-capable
// repository; the worker binary drives RunOnce on a ticker.
func NewOutboxRelay(
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		Logger:    logger,
	}
}

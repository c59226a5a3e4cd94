package caseregistryservice

import (
	"log/slog"

	httpadapter "liquorum/contexts/insolvency-core/case-registry-service/adapters/http"
	"liquorum/contexts/insolvency-core/case-registry-service/adapters/memory"
	"liquorum/contexts/insolvency-core/case-registry-service/application"
	"liquorum/contexts/insolvency-core/case-registry-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Dependents ports.CaseDependents
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:       deps.Repository,
		Dependents: deps.Dependents,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(dependents ports.CaseDependents, replica ports.CaseReplica, logger *slog.Logger) Module {
	store := memory.NewStore()
	store.Replica = replica
	module := NewModule(Dependencies{
		Repository: store,
		Dependents: dependents,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

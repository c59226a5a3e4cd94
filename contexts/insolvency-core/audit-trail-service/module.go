package audittrailservice

import (
	"log/slog"

	httpadapter "liquorum/contexts/insolvency-core/audit-trail-service/adapters/http"
	"liquorum/contexts/insolvency-core/audit-trail-service/adapters/memory"
	"liquorum/contexts/insolvency-core/audit-trail-service/application"
	"liquorum/contexts/insolvency-core/audit-trail-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Reader   ports.Reader
	Appender ports.Appender
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Reader:   deps.Reader,
		Appender: deps.Appender,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Reader:   store,
		Appender: store,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}

package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-registry-service/ports"
)

const (
	sourceService = "insolvency-core/case-registry-service"
	defaultActor  = "system"
)

type Service struct {
	Repo       ports.Repository
	Dependents ports.CaseDependents
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type CreateCaseInput struct {
	Reference string
	Stage     string
}

type CreateCreditorInput struct {
	Name         string
	ContactEmail string
}

type UpdateCreditorInput struct {
	Name         string
	ContactEmail string
	Active       *bool
}

func (s Service) CreateCase(ctx context.Context, actor string, input CreateCaseInput) (entities.Case, error) {
	logger := ResolveLogger(s.Logger)
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}
	now := s.now()
	c := entities.Case{
		ID:        id,
		Reference: reference,
		Status:    entities.CaseStatusOpen,
		Stage:     strings.TrimSpace(input.Stage),
		OpenedAt:  now,
		UpdatedAt: now,
	}
	entry, event := s.caseAudit(id, c, resolveActor(actor), "case.opened", now)
	if err := s.Repo.CreateCase(ctx, c, entry, event); err != nil {
		return entities.Case{}, err
	}
	logger.Info("registry case opened",
		"event", "registry_case_opened",
		"module", sourceService,
		"layer", "application",
		"case_id", c.ID,
		"reference", c.Reference,
	)
	return c, nil
}

func (s Service) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	return s.Repo.GetCase(ctx, caseID)
}

func (s Service) ListCases(ctx context.Context) ([]entities.Case, error) {
	return s.Repo.ListCases(ctx)
}

// TransitionCase moves a case along its lifecycle. Closing stamps
// ClosedAt; reopening is impossible once closed.
func (s Service) TransitionCase(ctx context.Context, actor string, caseID string, to entities.CaseStatus) (entities.Case, error) {
	logger := ResolveLogger(s.Logger)
	caseID = strings.TrimSpace(caseID)
	if caseID == "" || !to.Valid() {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if !entities.CanTransitionCase(c.Status, to) {
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}
	previous := c.Status
	now := s.now()
	c.Status = to
	c.UpdatedAt = now
	if to == entities.CaseStatusClosed {
		closed := now
		c.ClosedAt = &closed
	}
	mutationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}
	entry, event := s.caseAudit(mutationID, c, resolveActor(actor), "case.status_changed", now)
	if err := s.Repo.UpdateCase(ctx, c, previous, entry, event); err != nil {
		return entities.Case{}, err
	}
	logger.Info("registry case status changed",
		"event", "registry_case_status_changed",
		"module", sourceService,
		"layer", "application",
		"case_id", c.ID,
		"from_status", string(previous),
		"to_status", string(to),
	)
	return c, nil
}

func (s Service) SetCaseStage(ctx context.Context, actor string, caseID string, stage string) (entities.Case, error) {
	logger := ResolveLogger(s.Logger)
	caseID = strings.TrimSpace(caseID)
	stage = strings.TrimSpace(stage)
	if caseID == "" || stage == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if c.Closed() {
		return entities.Case{}, domainerrors.ErrCaseClosed
	}
	now := s.now()
	c.Stage = stage
	c.UpdatedAt = now
	mutationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}
	entry, event := s.caseAudit(mutationID, c, resolveActor(actor), "case.stage_changed", now)
	if err := s.Repo.UpdateCase(ctx, c, c.Status, entry, event); err != nil {
		return entities.Case{}, err
	}
	logger.Info("registry case stage changed",
		"event", "registry_case_stage_changed",
		"module", sourceService,
		"layer", "application",
		"case_id", c.ID,
		"stage", stage,
	)
	return c, nil
}

// DeleteCase cascades: the ledger purges the case's transactions, claims
// and distributions first, then the registry row goes. Activity log
// entries are kept so the deletion itself stays auditable.
func (s Service) DeleteCase(ctx context.Context, actor string, caseID string) error {
	logger := ResolveLogger(s.Logger)
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return domainerrors.ErrInvalidInput
	}
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	if s.Dependents != nil {
		if err := s.Dependents.DeleteCaseData(ctx, caseID); err != nil {
			return err
		}
	}
	now := s.now()
	mutationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	entry, event := s.caseAudit(mutationID, c, resolveActor(actor), "case.deleted", now)
	if err := s.Repo.DeleteCase(ctx, caseID, entry, event); err != nil {
		return err
	}
	logger.Info("registry case deleted",
		"event", "registry_case_deleted",
		"module", sourceService,
		"layer", "application",
		"case_id", caseID,
		"reference", c.Reference,
	)
	return nil
}

func (s Service) CreateCreditor(ctx context.Context, actor string, input CreateCreditorInput) (entities.Creditor, error) {
	logger := ResolveLogger(s.Logger)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return entities.Creditor{}, domainerrors.ErrInvalidInput
	}
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Creditor{}, err
	}
	now := s.now()
	creditor := entities.Creditor{
		ID:           id,
		Name:         name,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	entry, event := s.creditorAudit(id, creditor, resolveActor(actor), "creditor.registered", now)
	if err := s.Repo.CreateCreditor(ctx, creditor, entry, event); err != nil {
		return entities.Creditor{}, err
	}
	logger.Info("registry creditor registered",
		"event", "registry_creditor_registered",
		"module", sourceService,
		"layer", "application",
		"creditor_id", creditor.ID,
	)
	return creditor, nil
}

func (s Service) GetCreditor(ctx context.Context, creditorID string) (entities.Creditor, error) {
	creditorID = strings.TrimSpace(creditorID)
	if creditorID == "" {
		return entities.Creditor{}, domainerrors.ErrInvalidInput
	}
	return s.Repo.GetCreditor(ctx, creditorID)
}

func (s Service) ListCreditors(ctx context.Context) ([]entities.Creditor, error) {
	return s.Repo.ListCreditors(ctx)
}

func (s Service) UpdateCreditor(ctx context.Context, actor string, creditorID string, input UpdateCreditorInput) (entities.Creditor, error) {
	logger := ResolveLogger(s.Logger)
	creditorID = strings.TrimSpace(creditorID)
	if creditorID == "" {
		return entities.Creditor{}, domainerrors.ErrInvalidInput
	}
	creditor, err := s.Repo.GetCreditor(ctx, creditorID)
	if err != nil {
		return entities.Creditor{}, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		creditor.Name = name
	}
	if email := strings.TrimSpace(input.ContactEmail); email != "" {
		creditor.ContactEmail = email
	}
	if input.Active != nil {
		creditor.Active = *input.Active
	}
	now := s.now()
	creditor.UpdatedAt = now
	mutationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Creditor{}, err
	}
	entry, event := s.creditorAudit(mutationID, creditor, resolveActor(actor), "creditor.updated", now)
	if err := s.Repo.UpdateCreditor(ctx, creditor, entry, event); err != nil {
		return entities.Creditor{}, err
	}
	logger.Info("registry creditor updated",
		"event", "registry_creditor_updated",
		"module", sourceService,
		"layer", "application",
		"creditor_id", creditor.ID,
	)
	return creditor, nil
}

// DeleteCreditor is restrict-on-delete: a creditor referenced by any
// claim or distribution line stays.
func (s Service) DeleteCreditor(ctx context.Context, actor string, creditorID string) error {
	logger := ResolveLogger(s.Logger)
	creditorID = strings.TrimSpace(creditorID)
	if creditorID == "" {
		return domainerrors.ErrInvalidInput
	}
	creditor, err := s.Repo.GetCreditor(ctx, creditorID)
	if err != nil {
		return err
	}
	if s.Dependents != nil {
		referenced, err := s.Dependents.CreditorReferenced(ctx, creditorID)
		if err != nil {
			return err
		}
		if referenced {
			return domainerrors.ErrCreditorInUse
		}
	}
	now := s.now()
	mutationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	entry, event := s.creditorAudit(mutationID, creditor, resolveActor(actor), "creditor.deleted", now)
	if err := s.Repo.DeleteCreditor(ctx, creditorID, entry, event); err != nil {
		return err
	}
	logger.Info("registry creditor deleted",
		"event", "registry_creditor_deleted",
		"module", sourceService,
		"layer", "application",
		"creditor_id", creditorID,
	)
	return nil
}

func (s Service) caseAudit(mutationID string, c entities.Case, actor string, action string, at time.Time) (ports.AuditEntry, ports.EventEnvelope) {
	snapshot := map[string]any{
		"id":        c.ID,
		"reference": c.Reference,
		"status":    string(c.Status),
		"stage":     c.Stage,
		"opened_at": c.OpenedAt.UTC().Format(time.RFC3339),
	}
	if c.ClosedAt != nil {
		snapshot["closed_at"] = c.ClosedAt.UTC().Format(time.RFC3339)
	}
	entry := ports.AuditEntry{
		EntryID:    mutationID + ":audit",
		CaseID:     c.ID,
		Actor:      actor,
		Action:     action,
		EntityType: "case",
		EntityID:   c.ID,
		Snapshot:   snapshot,
		CreatedAt:  at,
	}
	event := ports.EventEnvelope{
		EventID:        mutationID + ":event",
		EventType:      action,
		SourceService:  sourceService,
		OccurredAtUTC:  at,
		EntityType:     "case",
		EntityID:       c.ID,
		PayloadVersion: 1,
		Payload:        snapshot,
	}
	return entry, event
}

func (s Service) creditorAudit(mutationID string, creditor entities.Creditor, actor string, action string, at time.Time) (ports.AuditEntry, ports.EventEnvelope) {
	snapshot := map[string]any{
		"id":     creditor.ID,
		"name":   creditor.Name,
		"active": creditor.Active,
	}
	if creditor.ContactEmail != "" {
		snapshot["contact_email"] = creditor.ContactEmail
	}
	entry := ports.AuditEntry{
		EntryID:    mutationID + ":audit",
		Actor:      actor,
		Action:     action,
		EntityType: "creditor",
		EntityID:   creditor.ID,
		Snapshot:   snapshot,
		CreatedAt:  at,
	}
	event := ports.EventEnvelope{
		EventID:        mutationID + ":event",
		EventType:      action,
		SourceService:  sourceService,
		OccurredAtUTC:  at,
		EntityType:     "creditor",
		EntityID:       creditor.ID,
		PayloadVersion: 1,
		Payload:        snapshot,
	}
	return entry, event
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return defaultActor
	}
	return actor
}

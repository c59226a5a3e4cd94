package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"liquorum/contexts/insolvency-core/case-registry-service/application"
	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	httptransport "liquorum/contexts/insolvency-core/case-registry-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateCaseHandler(
	ctx context.Context,
	actor string,
	req httptransport.CreateCaseRequest,
) (httptransport.CaseDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	c, err := h.Service.CreateCase(ctx, actor, application.CreateCaseInput{
		Reference: req.Reference,
		Stage:     req.Stage,
	})
	if err != nil {
		logger.Warn("registry http create case failed",
			"event", "registry_http_create_case_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"reference", strings.TrimSpace(req.Reference),
			"error", err.Error(),
		)
		return httptransport.CaseDTO{}, err
	}
	return mapCase(c), nil
}

func (h Handler) GetCaseHandler(ctx context.Context, caseID string) (httptransport.CaseDTO, error) {
	c, err := h.Service.GetCase(ctx, caseID)
	if err != nil {
		return httptransport.CaseDTO{}, err
	}
	return mapCase(c), nil
}

func (h Handler) ListCasesHandler(ctx context.Context) ([]httptransport.CaseDTO, error) {
	cases, err := h.Service.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.CaseDTO, 0, len(cases))
	for _, c := range cases {
		dtos = append(dtos, mapCase(c))
	}
	return dtos, nil
}

func (h Handler) TransitionCaseHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.TransitionCaseRequest,
) (httptransport.CaseDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	c, err := h.Service.TransitionCase(ctx, actor, caseID, entities.CaseStatus(strings.TrimSpace(req.ToStatus)))
	if err != nil {
		logger.Warn("registry http case transition failed",
			"event", "registry_http_case_transition_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"to_status", strings.TrimSpace(req.ToStatus),
			"error", err.Error(),
		)
		return httptransport.CaseDTO{}, err
	}
	return mapCase(c), nil
}

func (h Handler) SetCaseStageHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.SetCaseStageRequest,
) (httptransport.CaseDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	c, err := h.Service.SetCaseStage(ctx, actor, caseID, req.Stage)
	if err != nil {
		logger.Warn("registry http set case stage failed",
			"event", "registry_http_set_case_stage_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"stage", strings.TrimSpace(req.Stage),
			"error", err.Error(),
		)
		return httptransport.CaseDTO{}, err
	}
	return mapCase(c), nil
}

func (h Handler) DeleteCaseHandler(ctx context.Context, caseID string, actor string) error {
	logger := application.ResolveLogger(h.Logger)
	if err := h.Service.DeleteCase(ctx, actor, caseID); err != nil {
		logger.Warn("registry http delete case failed",
			"event", "registry_http_delete_case_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (h Handler) CreateCreditorHandler(
	ctx context.Context,
	actor string,
	req httptransport.CreateCreditorRequest,
) (httptransport.CreditorDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	creditor, err := h.Service.CreateCreditor(ctx, actor, application.CreateCreditorInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		logger.Warn("registry http create creditor failed",
			"event", "registry_http_create_creditor_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"error", err.Error(),
		)
		return httptransport.CreditorDTO{}, err
	}
	return mapCreditor(creditor), nil
}

func (h Handler) GetCreditorHandler(ctx context.Context, creditorID string) (httptransport.CreditorDTO, error) {
	creditor, err := h.Service.GetCreditor(ctx, creditorID)
	if err != nil {
		return httptransport.CreditorDTO{}, err
	}
	return mapCreditor(creditor), nil
}

func (h Handler) ListCreditorsHandler(ctx context.Context) ([]httptransport.CreditorDTO, error) {
	creditors, err := h.Service.ListCreditors(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.CreditorDTO, 0, len(creditors))
	for _, creditor := range creditors {
		dtos = append(dtos, mapCreditor(creditor))
	}
	return dtos, nil
}

func (h Handler) UpdateCreditorHandler(
	ctx context.Context,
	creditorID string,
	actor string,
	req httptransport.UpdateCreditorRequest,
) (httptransport.CreditorDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	creditor, err := h.Service.UpdateCreditor(ctx, actor, creditorID, application.UpdateCreditorInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Active:       req.Active,
	})
	if err != nil {
		logger.Warn("registry http update creditor failed",
			"event", "registry_http_update_creditor_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"creditor_id", strings.TrimSpace(creditorID),
			"error", err.Error(),
		)
		return httptransport.CreditorDTO{}, err
	}
	return mapCreditor(creditor), nil
}

func (h Handler) DeleteCreditorHandler(ctx context.Context, creditorID string, actor string) error {
	logger := application.ResolveLogger(h.Logger)
	if err := h.Service.DeleteCreditor(ctx, actor, creditorID); err != nil {
		logger.Warn("registry http delete creditor failed",
			"event", "registry_http_delete_creditor_failed",
			"module", "insolvency-core/case-registry-service",
			"layer", "adapter",
			"creditor_id", strings.TrimSpace(creditorID),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func mapCase(c entities.Case) httptransport.CaseDTO {
	dto := httptransport.CaseDTO{
		ID:        c.ID,
		Reference: c.Reference,
		Status:    string(c.Status),
		Stage:     c.Stage,
		OpenedAt:  c.OpenedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if c.ClosedAt != nil {
		dto.ClosedAt = c.ClosedAt.Format(time.RFC3339)
	}
	return dto
}

func mapCreditor(creditor entities.Creditor) httptransport.CreditorDTO {
	return httptransport.CreditorDTO{
		ID:           creditor.ID,
		Name:         creditor.Name,
		ContactEmail: creditor.ContactEmail,
		Active:       creditor.Active,
		CreatedAt:    creditor.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    creditor.UpdatedAt.Format(time.RFC3339),
	}
}

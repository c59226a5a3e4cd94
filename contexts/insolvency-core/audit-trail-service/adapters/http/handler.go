package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"liquorum/contexts/insolvency-core/audit-trail-service/application"
	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	httptransport "liquorum/contexts/insolvency-core/audit-trail-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) HistoryHandler(ctx context.Context, req application.HistoryRequest) (httptransport.HistoryResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.Service.History(ctx, req)
	if err != nil {
		logger.Warn("audit http history failed",
			"event", "audit_http_history_failed",
			"module", "insolvency-core/audit-trail-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(req.CaseID),
			"error", err.Error(),
		)
		return httptransport.HistoryResponse{}, err
	}
	response := httptransport.HistoryResponse{
		Entries:    make([]httptransport.EntryDTO, 0, len(result.Entries)),
		NextCursor: result.NextCursor,
	}
	for _, entry := range result.Entries {
		response.Entries = append(response.Entries, mapEntry(entry))
	}
	return response, nil
}

func (h Handler) RecordNoteHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.RecordNoteRequest,
) (httptransport.EntryDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	entry, err := h.Service.RecordNote(ctx, actor, caseID, req.Note)
	if err != nil {
		logger.Warn("audit http record note failed",
			"event", "audit_http_record_note_failed",
			"module", "insolvency-core/audit-trail-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"error", err.Error(),
		)
		return httptransport.EntryDTO{}, err
	}
	return mapEntry(entry), nil
}

func mapEntry(entry entities.Entry) httptransport.EntryDTO {
	return httptransport.EntryDTO{
		ID:         entry.ID,
		CaseID:     entry.CaseID,
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Snapshot:   entry.Snapshot,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339Nano),
	}
}

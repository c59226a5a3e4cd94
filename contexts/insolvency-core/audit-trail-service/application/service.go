package application

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/audit-trail-service/domain/errors"
	"liquorum/contexts/insolvency-core/audit-trail-service/ports"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultActor        = "system"
)

type Service struct {
	Reader   ports.Reader
	Appender ports.Appender
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

type HistoryRequest struct {
	CaseID     string
	EntityType string
	EntityID   string
	Action     string
	Limit      int
	Since      *time.Time
	Cursor     string
}

type HistoryResult struct {
	Entries    []entities.Entry
	NextCursor string
}

func (s Service) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	query := ports.HistoryQuery{
		CaseID:     strings.TrimSpace(req.CaseID),
		EntityType: strings.TrimSpace(req.EntityType),
		EntityID:   strings.TrimSpace(req.EntityID),
		Action:     strings.TrimSpace(req.Action),
		Limit:      normalizeLimit(req.Limit),
	}
	if req.Since != nil {
		since := req.Since.UTC()
		query.Since = &since
	}
	if cursor := strings.TrimSpace(req.Cursor); cursor != "" {
		before, beforeID, err := decodeCursor(cursor)
		if err != nil {
			return HistoryResult{}, err
		}
		query.Before = &before
		query.BeforeID = beforeID
	}
	page, err := s.Reader.History(ctx, query)
	if err != nil {
		return HistoryResult{}, err
	}
	result := HistoryResult{Entries: page.Entries}
	if page.HasMore && len(page.Entries) > 0 {
		last := page.Entries[len(page.Entries)-1]
		result.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}

// RecordNote appends a practitioner-authored annotation to a case's
// trail. Everything else in the log arrives through the owning modules.
func (s Service) RecordNote(ctx context.Context, actor string, caseID string, note string) (entities.Entry, error) {
	logger := ResolveLogger(s.Logger)
	caseID = strings.TrimSpace(caseID)
	note = strings.TrimSpace(note)
	if caseID == "" || note == "" {
		return entities.Entry{}, domainerrors.ErrInvalidInput
	}
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Entry{}, err
	}
	snapshot, err := json.Marshal(map[string]string{"note": note})
	if err != nil {
		return entities.Entry{}, err
	}
	entry := entities.Entry{
		ID:         id,
		CaseID:     caseID,
		Actor:      resolveActor(actor),
		Action:     "note.recorded",
		EntityType: "case",
		EntityID:   caseID,
		Snapshot:   snapshot,
		CreatedAt:  s.now(),
	}
	if err := s.Appender.Append(ctx, entry); err != nil {
		return entities.Entry{}, err
	}
	logger.Info("audit note recorded",
		"event", "audit_note_recorded",
		"module", "insolvency-core/audit-trail-service",
		"layer", "application",
		"case_id", caseID,
		"entry_id", entry.ID,
	)
	return entry, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func encodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", domainerrors.ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", domainerrors.ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", domainerrors.ErrInvalidCursor
	}
	return createdAt.UTC(), parts[1], nil
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

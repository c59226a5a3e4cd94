package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-registry-service/ports"
	"liquorum/internal/shared/outbox"
)

type caseModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Reference string     `gorm:"column:reference;uniqueIndex:ux_cases_reference"`
	Status    string     `gorm:"column:status"`
	Stage     string     `gorm:"column:stage"`
	OpenedAt  time.Time  `gorm:"column:opened_at"`
	ClosedAt  *time.Time `gorm:"column:closed_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (caseModel) TableName() string { return "cases" }

type creditorModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	ContactEmail string    `gorm:"column:contact_email"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (creditorModel) TableName() string { return "creditors" }

type activityLogModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CaseID     string    `gorm:"column:case_id;index"`
	Actor      string    `gorm:"column:actor"`
	Action     string    `gorm:"column:action"`
	EntityType string    `gorm:"column:entity_type"`
	EntityID   string    `gorm:"column:entity_id"`
	Snapshot   []byte    `gorm:"column:snapshot;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (activityLogModel) TableName() string { return "activity_log_entries" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "registry_outbox" }

// Models returns every gorm model this service migrates. It owns the
// cases and creditors tables other modules read.
func Models() []any {
	return []any{
		&caseModel{},
		&creditorModel{},
		&activityLogModel{},
		&outboxModel{},
	}
}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if isSerializationFailure(err) {
		return domainerrors.ErrConflict
	}
	return err
}

func (r *Repository) CreateCase(ctx context.Context, c entities.Case, entry ports.AuditEntry, event ports.EventEnvelope) error {
	row := caseModelFromEntity(c)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateReference
			}
			return err
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, c.ID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_create_case_failed", err, "case_id", c.ID)
	}
	return err
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	var row caseModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(caseID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, r.logError("registry_repo_get_case_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCases(ctx context.Context) ([]entities.Case, error) {
	var rows []caseModel
	if err := r.db.WithContext(ctx).Order("opened_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_cases_failed", err)
	}
	cases := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, row.toEntity())
	}
	return cases, nil
}

func (r *Repository) UpdateCase(
	ctx context.Context,
	c entities.Case,
	expectedStatus entities.CaseStatus,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	err := r.transact(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(c.Status),
			"stage":      c.Stage,
			"updated_at": c.UpdatedAt.UTC(),
		}
		if c.ClosedAt != nil {
			closed := c.ClosedAt.UTC()
			updates["closed_at"] = closed
		}
		result := tx.Model(&caseModel{}).
			Where("id = ?", c.ID).
			Where("status = ?", string(expectedStatus)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var existing caseModel
			if err := tx.Where("id = ?", c.ID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrCaseNotFound
				}
				return err
			}
			return domainerrors.ErrConflict
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, c.ID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_update_case_failed", err, "case_id", c.ID)
	}
	return err
}

func (r *Repository) DeleteCase(ctx context.Context, caseID string, entry ports.AuditEntry, event ports.EventEnvelope) error {
	caseID = strings.TrimSpace(caseID)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", caseID).Delete(&caseModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCaseNotFound
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, caseID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_delete_case_failed", err, "case_id", caseID)
	}
	return err
}

func (r *Repository) CreateCreditor(ctx context.Context, creditor entities.Creditor, entry ports.AuditEntry, event ports.EventEnvelope) error {
	row := creditorModelFromEntity(creditor)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, creditor.ID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_create_creditor_failed", err, "creditor_id", creditor.ID)
	}
	return err
}

func (r *Repository) GetCreditor(ctx context.Context, creditorID string) (entities.Creditor, error) {
	var row creditorModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(creditorID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Creditor{}, domainerrors.ErrCreditorNotFound
		}
		return entities.Creditor{}, r.logError("registry_repo_get_creditor_failed", err,
			"creditor_id", strings.TrimSpace(creditorID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCreditors(ctx context.Context) ([]entities.Creditor, error) {
	var rows []creditorModel
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_creditors_failed", err)
	}
	creditors := make([]entities.Creditor, 0, len(rows))
	for _, row := range rows {
		creditors = append(creditors, row.toEntity())
	}
	return creditors, nil
}

func (r *Repository) UpdateCreditor(ctx context.Context, creditor entities.Creditor, entry ports.AuditEntry, event ports.EventEnvelope) error {
	err := r.transact(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&creditorModel{}).
			Where("id = ?", creditor.ID).
			Updates(map[string]any{
				"name":          creditor.Name,
				"contact_email": creditor.ContactEmail,
				"active":        creditor.Active,
				"updated_at":    creditor.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCreditorNotFound
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, creditor.ID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_update_creditor_failed", err, "creditor_id", creditor.ID)
	}
	return err
}

func (r *Repository) DeleteCreditor(ctx context.Context, creditorID string, entry ports.AuditEntry, event ports.EventEnvelope) error {
	creditorID = strings.TrimSpace(creditorID)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", creditorID).Delete(&creditorModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCreditorNotFound
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, creditorID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("registry_repo_delete_creditor_failed", err, "creditor_id", creditorID)
	}
	return err
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	published := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": published,
		})
	if result.Error != nil {
		return r.logError("registry_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID))
	}
	return nil
}

func caseModelFromEntity(c entities.Case) caseModel {
	row := caseModel{
		ID:        c.ID,
		Reference: c.Reference,
		Status:    string(c.Status),
		Stage:     c.Stage,
		OpenedAt:  c.OpenedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
	if c.ClosedAt != nil {
		closed := c.ClosedAt.UTC()
		row.ClosedAt = &closed
	}
	return row
}

func (m caseModel) toEntity() entities.Case {
	c := entities.Case{
		ID:        m.ID,
		Reference: m.Reference,
		Status:    entities.CaseStatus(m.Status),
		Stage:     m.Stage,
		OpenedAt:  m.OpenedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.ClosedAt != nil {
		closed := m.ClosedAt.UTC()
		c.ClosedAt = &closed
	}
	return c
}

func creditorModelFromEntity(creditor entities.Creditor) creditorModel {
	return creditorModel{
		ID:           creditor.ID,
		Name:         creditor.Name,
		ContactEmail: creditor.ContactEmail,
		Active:       creditor.Active,
		CreatedAt:    creditor.CreatedAt.UTC(),
		UpdatedAt:    creditor.UpdatedAt.UTC(),
	}
}

func (m creditorModel) toEntity() entities.Creditor {
	return entities.Creditor{
		ID:           m.ID,
		Name:         m.Name,
		ContactEmail: m.ContactEmail,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func appendAudit(tx *gorm.DB, entry ports.AuditEntry) error {
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return err
	}
	row := activityLogModel{
		ID:         strings.TrimSpace(entry.EntryID),
		CaseID:     strings.TrimSpace(entry.CaseID),
		Actor:      strings.TrimSpace(entry.Actor),
		Action:     strings.TrimSpace(entry.Action),
		EntityType: strings.TrimSpace(entry.EntityType),
		EntityID:   strings.TrimSpace(entry.EntityID),
		Snapshot:   snapshot,
		CreatedAt:  entry.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&row).Error
}

func appendOutbox(tx *gorm.DB, event ports.EventEnvelope, partitionKey string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(event.EventID),
		EventType:    strings.TrimSpace(event.EventType),
		PartitionKey: strings.TrimSpace(partitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.OccurredAtUTC.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&row).Error
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "insolvency-core/case-registry-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("case registry repository operation failed", fields...)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrInvalidInput) ||
		errors.Is(err, domainerrors.ErrCaseNotFound) ||
		errors.Is(err, domainerrors.ErrDuplicateReference) ||
		errors.Is(err, domainerrors.ErrInvalidTransition) ||
		errors.Is(err, domainerrors.ErrCaseClosed) ||
		errors.Is(err, domainerrors.ErrCreditorNotFound) ||
		errors.Is(err, domainerrors.ErrCreditorInUse) ||
		errors.Is(err, domainerrors.ErrConflict)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	"liquorum/contexts/insolvency-core/audit-trail-service/ports"
)

// activityLogModel maps the shared activity_log_entries table. Other
// modules insert into it transactionally; this module reads it and
// appends manual notes.
type activityLogModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CaseID     string    `gorm:"column:case_id;index"`
	Actor      string    `gorm:"column:actor"`
	Action     string    `gorm:"column:action"`
	EntityType string    `gorm:"column:entity_type"`
	EntityID   string    `gorm:"column:entity_id"`
	Snapshot   []byte    `gorm:"column:snapshot;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (activityLogModel) TableName() string { return "activity_log_entries" }

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

func (r *Repository) Append(ctx context.Context, entry entities.Entry) error {
	row := activityLogModel{
		ID:         entry.ID,
		CaseID:     entry.CaseID,
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Snapshot:   append([]byte(nil), entry.Snapshot...),
		CreatedAt:  entry.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("audit_repo_append_failed", err, "entry_id", entry.ID)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, query ports.HistoryQuery) (ports.HistoryPage, error) {
	tx := r.db.WithContext(ctx).Model(&activityLogModel{})
	if query.CaseID != "" {
		tx = tx.Where("case_id = ?", query.CaseID)
	}
	if query.EntityType != "" {
		tx = tx.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityID != "" {
		tx = tx.Where("entity_id = ?", query.EntityID)
	}
	if query.Action != "" {
		tx = tx.Where("action = ?", query.Action)
	}
	if query.Since != nil {
		tx = tx.Where("created_at >= ?", query.Since.UTC())
	}
	if query.Before != nil {
		tx = tx.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			query.Before.UTC(), query.Before.UTC(), query.BeforeID,
		)
	}

	limit := query.Limit
	var rows []activityLogModel
	q := tx.Order("created_at DESC, id DESC")
	if limit > 0 {
		// one extra row decides HasMore
		q = q.Limit(limit + 1)
	}
	if err := q.Find(&rows).Error; err != nil {
		return ports.HistoryPage{}, r.logError("audit_repo_history_failed", err, "case_id", query.CaseID)
	}

	page := ports.HistoryPage{}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		page.HasMore = true
	}
	page.Entries = make([]entities.Entry, 0, len(rows))
	for _, row := range rows {
		page.Entries = append(page.Entries, entities.Entry{
			ID:         row.ID,
			CaseID:     row.CaseID,
			Actor:      row.Actor,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Snapshot:   append([]byte(nil), row.Snapshot...),
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return page, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "insolvency-core/audit-trail-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("audit trail repository operation failed", fields...)
	return err
}

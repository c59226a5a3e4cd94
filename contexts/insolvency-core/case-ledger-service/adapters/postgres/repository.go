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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/services"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

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

// transact runs fn in a serializable transaction. Serialization failures
// surface as ErrConflict so callers can retry the whole operation.
func (r *Repository) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if isSerializationFailure(err) {
		return domainerrors.ErrConflict
	}
	return err
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (ports.CaseRecord, error) {
	var row caseModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(caseID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CaseRecord{}, domainerrors.ErrCaseNotFound
		}
		return ports.CaseRecord{}, r.logError("ledger_repo_get_case_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return row.toRecord(), nil
}

func (r *Repository) RecordTransaction(
	ctx context.Context,
	txn entities.Transaction,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) (entities.Transaction, error) {
	row := transactionModelFromEntity(txn)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		caseRow, err := lockCase(tx, txn.CaseID)
		if err != nil {
			return err
		}
		if caseRow.Status == ports.CaseStatusClosed {
			return domainerrors.ErrCaseClosed
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, txn.CaseID)
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Transaction{}, err
		}
		return entities.Transaction{}, r.logError("ledger_repo_record_transaction_failed", err,
			"case_id", txn.CaseID,
			"transaction_id", txn.ID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTransactions(ctx context.Context, caseID string) ([]entities.Transaction, error) {
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("occurred_at ASC, seq ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_transactions_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	transactions := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.toEntity())
	}
	return transactions, nil
}

// FundsSummary recomputes the balance from the full transaction history;
// there is no materialized running total to drift.
func (r *Repository) FundsSummary(ctx context.Context, caseID string) (ports.FundsSummary, error) {
	caseID = strings.TrimSpace(caseID)
	if _, err := r.GetCase(ctx, caseID); err != nil {
		return ports.FundsSummary{}, err
	}

	var totals struct {
		TotalIn  decimal.Decimal
		TotalOut decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN kind IN ('receipt', 'interest') THEN amount ELSE 0 END), 0) AS total_in, "+
				"COALESCE(SUM(CASE WHEN kind IN ('payment', 'fee') THEN amount ELSE 0 END), 0) AS total_out",
		).
		Where("case_id = ?", caseID).
		Take(&totals).Error
	if err != nil {
		return ports.FundsSummary{}, r.logError("ledger_repo_funds_summary_failed", err, "case_id", caseID)
	}
	return ports.FundsSummary{
		TotalIn:        totals.TotalIn,
		TotalOut:       totals.TotalOut,
		AvailableFunds: totals.TotalIn.Sub(totals.TotalOut),
	}, nil
}

func (r *Repository) LodgeClaim(
	ctx context.Context,
	claim entities.Claim,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	err := r.transact(ctx, func(tx *gorm.DB) error {
		caseRow, err := lockCase(tx, claim.CaseID)
		if err != nil {
			return err
		}
		if caseRow.Status == ports.CaseStatusClosed {
			return domainerrors.ErrCaseClosed
		}
		var creditor creditorModel
		if err := tx.Where("id = ?", claim.CreditorID).First(&creditor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCreditorNotFound
			}
			return err
		}
		row := claimModelFromEntity(claim)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateClaim
			}
			return err
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, claim.CaseID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("ledger_repo_lodge_claim_failed", err,
			"case_id", claim.CaseID,
			"creditor_id", claim.CreditorID,
		)
	}
	return err
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(claimID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, domainerrors.ErrClaimNotFound
		}
		return entities.Claim{}, r.logError("ledger_repo_get_claim_failed", err, "claim_id", strings.TrimSpace(claimID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListClaims(ctx context.Context, caseID string) ([]entities.Claim, error) {
	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("lodged_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_claims_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	claims := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.toEntity())
	}
	return claims, nil
}

// UpdateClaim is an optimistic check-and-commit: the write only lands if
// the claim is still in the status the caller adjudicated from.
func (r *Repository) UpdateClaim(
	ctx context.Context,
	claim entities.Claim,
	expectedStatus entities.ClaimStatus,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	err := r.transact(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(claim.Status),
			"updated_at": claim.UpdatedAt.UTC(),
		}
		if claim.AmountAdmitted != nil {
			updates["amount_admitted"] = *claim.AmountAdmitted
		} else {
			updates["amount_admitted"] = nil
		}
		if claim.AdjudicatedAt != nil {
			adjudicated := claim.AdjudicatedAt.UTC()
			updates["adjudicated_at"] = adjudicated
		}

		result := tx.Model(&claimModel{}).
			Where("id = ?", claim.ID).
			Where("status = ?", string(expectedStatus)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var existing claimModel
			if err := tx.Where("id = ?", claim.ID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrClaimNotFound
				}
				return err
			}
			return domainerrors.ErrConflict
		}
		if err := appendAudit(tx, entry); err != nil {
			return err
		}
		return appendOutbox(tx, event, claim.CaseID)
	})
	if err != nil && !isDomainError(err) {
		return r.logError("ledger_repo_update_claim_failed", err, "claim_id", claim.ID)
	}
	return err
}

func (r *Repository) AdmittedTotal(ctx context.Context, caseID string) (decimal.Decimal, error) {
	var total struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Select("COALESCE(SUM(amount_admitted), 0) AS total").
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Where("status = ?", string(entities.ClaimStatusAdmitted)).
		Take(&total).Error
	if err != nil {
		return decimal.Decimal{}, r.logError("ledger_repo_admitted_total_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return total.Total, nil
}

// DeclareDistribution reads the cross-entity snapshot and commits the
// planner's result inside one serializable transaction holding the case
// row lock, so funds, claims and prior rounds cannot shift mid-plan.
func (r *Repository) DeclareDistribution(
	ctx context.Context,
	caseID string,
	plan ports.DistributionPlanner,
) (entities.Distribution, error) {
	caseID = strings.TrimSpace(caseID)
	var declared entities.Distribution
	err := r.transact(ctx, func(tx *gorm.DB) error {
		caseRow, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}

		snapshot, err := distributionSnapshot(tx, caseRow)
		if err != nil {
			return err
		}
		committed, err := plan(ctx, snapshot)
		if err != nil {
			return err
		}

		distRow := distributionModelFromEntity(committed.Distribution)
		if err := tx.Create(&distRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidRound
			}
			return err
		}
		for _, line := range committed.Distribution.Lines {
			lineRow := distributionLineModel{
				ID:             line.ID,
				DistributionID: line.DistributionID,
				CreditorID:     line.CreditorID,
				Amount:         line.Amount,
			}
			if err := tx.Create(&lineRow).Error; err != nil {
				return err
			}
		}
		if err := appendAudit(tx, committed.Audit); err != nil {
			return err
		}
		if err := appendOutbox(tx, committed.Event, caseID); err != nil {
			return err
		}
		declared = committed.Distribution
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Distribution{}, err
		}
		return entities.Distribution{}, r.logError("ledger_repo_declare_distribution_failed", err, "case_id", caseID)
	}
	return declared, nil
}

func distributionSnapshot(tx *gorm.DB, caseRow caseModel) (ports.DistributionSnapshot, error) {
	var txnTotals struct {
		TotalIn  decimal.Decimal
		TotalOut decimal.Decimal
	}
	if err := tx.Model(&transactionModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN kind IN ('receipt', 'interest') THEN amount ELSE 0 END), 0) AS total_in, "+
				"COALESCE(SUM(CASE WHEN kind IN ('payment', 'fee') THEN amount ELSE 0 END), 0) AS total_out",
		).
		Where("case_id = ?", caseRow.ID).
		Take(&txnTotals).Error; err != nil {
		return ports.DistributionSnapshot{}, err
	}

	var distributed struct {
		Total decimal.Decimal
	}
	if err := tx.Model(&distributionLineModel{}).
		Select("COALESCE(SUM(distribution_lines.amount), 0) AS total").
		Joins("JOIN distributions ON distributions.id = distribution_lines.distribution_id").
		Where("distributions.case_id = ?", caseRow.ID).
		Take(&distributed).Error; err != nil {
		return ports.DistributionSnapshot{}, err
	}

	var rounds struct {
		MaxRound int
		Count    int64
	}
	if err := tx.Model(&distributionModel{}).
		Select("COALESCE(MAX(round_no), 0) AS max_round, COUNT(*) AS count").
		Where("case_id = ?", caseRow.ID).
		Take(&rounds).Error; err != nil {
		return ports.DistributionSnapshot{}, err
	}

	var admittedRows []claimModel
	if err := tx.
		Where("case_id = ?", caseRow.ID).
		Where("status = ?", string(entities.ClaimStatusAdmitted)).
		Order("creditor_id ASC").
		Find(&admittedRows).Error; err != nil {
		return ports.DistributionSnapshot{}, err
	}
	admitted := make([]services.AdmittedClaim, 0, len(admittedRows))
	for _, row := range admittedRows {
		if row.AmountAdmitted == nil {
			continue
		}
		admitted = append(admitted, services.AdmittedClaim{
			CreditorID: row.CreditorID,
			Amount:     *row.AmountAdmitted,
		})
	}

	return ports.DistributionSnapshot{
		Case:             caseRow.toRecord(),
		AvailableFunds:   txnTotals.TotalIn.Sub(txnTotals.TotalOut),
		DistributedTotal: distributed.Total,
		MaxRoundNo:       rounds.MaxRound,
		HasRounds:        rounds.Count > 0,
		AdmittedClaims:   admitted,
	}, nil
}

func (r *Repository) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	var row distributionModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(distributionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Distribution{}, domainerrors.ErrDistributionNotFound
		}
		return entities.Distribution{}, r.logError("ledger_repo_get_distribution_failed", err,
			"distribution_id", strings.TrimSpace(distributionID))
	}
	dist := row.toEntity()
	lines, err := r.linesFor(ctx, []string{dist.ID})
	if err != nil {
		return entities.Distribution{}, err
	}
	dist.Lines = lines[dist.ID]
	return dist, nil
}

func (r *Repository) ListDistributions(ctx context.Context, caseID string) ([]entities.Distribution, error) {
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("round_no ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_distributions_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	if len(rows) == 0 {
		return []entities.Distribution{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	distributions := make([]entities.Distribution, 0, len(rows))
	for _, row := range rows {
		dist := row.toEntity()
		dist.Lines = lines[dist.ID]
		distributions = append(distributions, dist)
	}
	return distributions, nil
}

func (r *Repository) linesFor(ctx context.Context, distributionIDs []string) (map[string][]entities.DistributionLine, error) {
	var rows []distributionLineModel
	if err := r.db.WithContext(ctx).
		Where("distribution_id IN ?", distributionIDs).
		Order("creditor_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_lines_failed", err)
	}
	lines := make(map[string][]entities.DistributionLine, len(distributionIDs))
	for _, row := range rows {
		lines[row.DistributionID] = append(lines[row.DistributionID], entities.DistributionLine{
			ID:             row.ID,
			DistributionID: row.DistributionID,
			CreditorID:     row.CreditorID,
			Amount:         row.Amount,
		})
	}
	return lines, nil
}

func (r *Repository) DistributedTotal(ctx context.Context, caseID string) (decimal.Decimal, error) {
	var total struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&distributionLineModel{}).
		Select("COALESCE(SUM(distribution_lines.amount), 0) AS total").
		Joins("JOIN distributions ON distributions.id = distribution_lines.distribution_id").
		Where("distributions.case_id = ?", strings.TrimSpace(caseID)).
		Take(&total).Error
	if err != nil {
		return decimal.Decimal{}, r.logError("ledger_repo_distributed_total_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return total.Total, nil
}

// DeleteCaseData cascades removal of a case's financial records. Audit
// rows are deliberately left in place.
func (r *Repository) DeleteCaseData(ctx context.Context, caseID string) error {
	caseID = strings.TrimSpace(caseID)
	err := r.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.
			Where("distribution_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
				Model(&distributionModel{}).
				Select("id").
				Where("case_id = ?", caseID)).
			Delete(&distributionLineModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", caseID).Delete(&distributionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", caseID).Delete(&claimModel{}).Error; err != nil {
			return err
		}
		return tx.Where("case_id = ?", caseID).Delete(&transactionModel{}).Error
	})
	if err != nil && !isDomainError(err) {
		return r.logError("ledger_repo_delete_case_data_failed", err, "case_id", caseID)
	}
	return err
}

func (r *Repository) CreditorReferenced(ctx context.Context, creditorID string) (bool, error) {
	creditorID = strings.TrimSpace(creditorID)
	var claimCount int64
	if err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("creditor_id = ?", creditorID).
		Count(&claimCount).Error; err != nil {
		return false, r.logError("ledger_repo_creditor_claims_check_failed", err, "creditor_id", creditorID)
	}
	if claimCount > 0 {
		return true, nil
	}
	var lineCount int64
	if err := r.db.WithContext(ctx).
		Model(&distributionLineModel{}).
		Where("creditor_id = ?", creditorID).
		Count(&lineCount).Error; err != nil {
		return false, r.logError("ledger_repo_creditor_lines_check_failed", err, "creditor_id", creditorID)
	}
	return lineCount > 0, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
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
			"status":       outboxStatusPublished,
			"published_at": published,
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	return nil
}

func lockCase(tx *gorm.DB, caseID string) (caseModel, error) {
	var row caseModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(caseID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return caseModel{}, domainerrors.ErrCaseNotFound
		}
		return caseModel{}, err
	}
	return row, nil
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
		Status:       outboxStatusPending,
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
		"module", "insolvency-core/case-ledger-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("case ledger repository operation failed", fields...)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrCaseNotFound) ||
		errors.Is(err, domainerrors.ErrCaseClosed) ||
		errors.Is(err, domainerrors.ErrCreditorNotFound) ||
		errors.Is(err, domainerrors.ErrClaimNotFound) ||
		errors.Is(err, domainerrors.ErrDuplicateClaim) ||
		errors.Is(err, domainerrors.ErrInvalidTransition) ||
		errors.Is(err, domainerrors.ErrDistributionNotFound) ||
		errors.Is(err, domainerrors.ErrInvalidRound) ||
		errors.Is(err, domainerrors.ErrInsufficientFunds) ||
		errors.Is(err, domainerrors.ErrNoAdmittedClaims) ||
		errors.Is(err, domainerrors.ErrInvalidInput) ||
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

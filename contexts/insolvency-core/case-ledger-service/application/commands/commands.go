package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	application "liquorum/contexts/insolvency-core/case-ledger-service/application"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/services"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

const (
	sourceService   = "insolvency-core/case-ledger-service"
	defaultActor    = "system"
	defaultCurrency = "EUR"
)

type RecordTransactionCommand struct {
	CaseID     string
	Kind       entities.TransactionKind
	Amount     decimal.Decimal
	Currency   string
	OccurredAt time.Time
	Reference  string
	Notes      string
	Actor      string
}

type LodgeClaimCommand struct {
	CaseID        string
	CreditorID    string
	AmountClaimed decimal.Decimal
	Actor         string
}

type TransitionClaimCommand struct {
	ClaimID        string
	ToStatus       entities.ClaimStatus
	AmountAdmitted *decimal.Decimal
	Actor          string
}

type DeclareDistributionCommand struct {
	CaseID      string
	RoundNo     int
	TotalAmount decimal.Decimal
	WindowStart *time.Time
	WindowEnd   *time.Time
	Actor       string
}

type UseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// RecordTransaction appends one immutable money movement to a case's fund
// ledger. The repository verifies the case is still open inside the same
// transaction that persists the row and its audit entry.
func (uc UseCase) RecordTransaction(ctx context.Context, cmd RecordTransactionCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	if caseID == "" || !cmd.Kind.Valid() || !validMoney(cmd.Amount) {
		logger.Warn("transaction record invalid input",
			"event", "ledger_transaction_invalid_input",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"kind", string(cmd.Kind),
		)
		return entities.Transaction{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	occurredAt := cmd.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Transaction{}, err
	}
	txn := entities.Transaction{
		ID:         id,
		CaseID:     caseID,
		Kind:       cmd.Kind,
		Amount:     cmd.Amount,
		Currency:   currency,
		OccurredAt: occurredAt,
		Reference:  strings.TrimSpace(cmd.Reference),
		Notes:      strings.TrimSpace(cmd.Notes),
		RecordedAt: now,
	}

	entry := ports.AuditEntry{
		EntryID:    id + ":audit",
		CaseID:     caseID,
		Actor:      resolveActor(cmd.Actor),
		Action:     "transaction.recorded",
		EntityType: "transaction",
		EntityID:   txn.ID,
		Snapshot:   transactionSnapshot(txn),
		CreatedAt:  now,
	}
	event := ports.EventEnvelope{
		EventID:        id + ":event",
		EventType:      "transaction.recorded",
		SourceService:  sourceService,
		OccurredAtUTC:  now,
		EntityType:     "transaction",
		EntityID:       txn.ID,
		PayloadVersion: 1,
		Payload:        transactionSnapshot(txn),
	}

	recorded, err := uc.Repository.RecordTransaction(ctx, txn, entry, event)
	if err != nil {
		logger.Warn("transaction record failed",
			"event", "ledger_transaction_record_failed",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"transaction_id", txn.ID,
			"error", err.Error(),
		)
		return entities.Transaction{}, err
	}
	logger.Info("transaction recorded",
		"event", "ledger_transaction_recorded",
		"module", sourceService,
		"layer", "application",
		"case_id", caseID,
		"transaction_id", recorded.ID,
		"kind", string(recorded.Kind),
		"amount", recorded.Amount.StringFixed(2),
	)
	return recorded, nil
}

// LodgeClaim registers a creditor claim against a case. At most one claim
// may exist per (case, creditor) pair.
func (uc UseCase) LodgeClaim(ctx context.Context, cmd LodgeClaimCommand) (entities.Claim, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	creditorID := strings.TrimSpace(cmd.CreditorID)
	if caseID == "" || creditorID == "" || !validMoney(cmd.AmountClaimed) {
		logger.Warn("claim lodge invalid input",
			"event", "ledger_claim_lodge_invalid_input",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"creditor_id", creditorID,
		)
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	claim := entities.Claim{
		ID:            id,
		CaseID:        caseID,
		CreditorID:    creditorID,
		AmountClaimed: cmd.AmountClaimed,
		Status:        entities.ClaimStatusLodged,
		LodgedAt:      now,
		UpdatedAt:     now,
	}

	entry := ports.AuditEntry{
		EntryID:    id + ":audit",
		CaseID:     caseID,
		Actor:      resolveActor(cmd.Actor),
		Action:     "claim.lodged",
		EntityType: "claim",
		EntityID:   claim.ID,
		Snapshot:   claimSnapshot(claim),
		CreatedAt:  now,
	}
	event := ports.EventEnvelope{
		EventID:        id + ":event",
		EventType:      "claim.lodged",
		SourceService:  sourceService,
		OccurredAtUTC:  now,
		EntityType:     "claim",
		EntityID:       claim.ID,
		PayloadVersion: 1,
		Payload:        claimSnapshot(claim),
	}

	if err := uc.Repository.LodgeClaim(ctx, claim, entry, event); err != nil {
		logger.Warn("claim lodge failed",
			"event", "ledger_claim_lodge_failed",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"creditor_id", creditorID,
			"error", err.Error(),
		)
		return entities.Claim{}, err
	}
	logger.Info("claim lodged",
		"event", "ledger_claim_lodged",
		"module", sourceService,
		"layer", "application",
		"case_id", caseID,
		"claim_id", claim.ID,
		"creditor_id", creditorID,
		"amount_claimed", claim.AmountClaimed.StringFixed(2),
	)
	return claim, nil
}

// TransitionClaim moves a claim along the adjudication graph. Admission
// binds the admitted amount; rejection clears it. Terminal states cannot
// be left.
func (uc UseCase) TransitionClaim(ctx context.Context, cmd TransitionClaimCommand) (entities.Claim, error) {
	logger := application.ResolveLogger(uc.Logger)
	claimID := strings.TrimSpace(cmd.ClaimID)
	if claimID == "" || !cmd.ToStatus.Valid() {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}

	claim, err := uc.Repository.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !entities.CanTransitionClaim(claim.Status, cmd.ToStatus) {
		logger.Warn("claim transition rejected",
			"event", "ledger_claim_transition_rejected",
			"module", sourceService,
			"layer", "application",
			"claim_id", claim.ID,
			"from_status", string(claim.Status),
			"to_status", string(cmd.ToStatus),
		)
		return entities.Claim{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	previousStatus := claim.Status
	switch cmd.ToStatus {
	case entities.ClaimStatusAdmitted:
		if cmd.AmountAdmitted == nil ||
			!validMoney(*cmd.AmountAdmitted) ||
			cmd.AmountAdmitted.GreaterThan(claim.AmountClaimed) {
			return entities.Claim{}, domainerrors.ErrInvalidTransition
		}
		admitted := *cmd.AmountAdmitted
		claim.AmountAdmitted = &admitted
		claim.AdjudicatedAt = &now
	case entities.ClaimStatusRejected:
		if cmd.AmountAdmitted != nil {
			return entities.Claim{}, domainerrors.ErrInvalidTransition
		}
		claim.AmountAdmitted = nil
		claim.AdjudicatedAt = &now
	default:
		if cmd.AmountAdmitted != nil {
			return entities.Claim{}, domainerrors.ErrInvalidTransition
		}
	}
	claim.Status = cmd.ToStatus
	claim.UpdatedAt = now

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	entry := ports.AuditEntry{
		EntryID:    id + ":audit",
		CaseID:     claim.CaseID,
		Actor:      resolveActor(cmd.Actor),
		Action:     "claim.transitioned",
		EntityType: "claim",
		EntityID:   claim.ID,
		Snapshot:   claimSnapshot(claim),
		CreatedAt:  now,
	}
	event := ports.EventEnvelope{
		EventID:        id + ":event",
		EventType:      "claim.transitioned",
		SourceService:  sourceService,
		OccurredAtUTC:  now,
		EntityType:     "claim",
		EntityID:       claim.ID,
		PayloadVersion: 1,
		Payload:        claimSnapshot(claim),
	}

	if err := uc.Repository.UpdateClaim(ctx, claim, previousStatus, entry, event); err != nil {
		logger.Warn("claim transition failed",
			"event", "ledger_claim_transition_failed",
			"module", sourceService,
			"layer", "application",
			"claim_id", claim.ID,
			"to_status", string(cmd.ToStatus),
			"error", err.Error(),
		)
		return entities.Claim{}, err
	}
	logger.Info("claim transitioned",
		"event", "ledger_claim_transitioned",
		"module", sourceService,
		"layer", "application",
		"claim_id", claim.ID,
		"case_id", claim.CaseID,
		"from_status", string(previousStatus),
		"to_status", string(claim.Status),
	)
	return claim, nil
}

// DeclareDistribution commits a pro-rata payout round. All preconditions
// are checked against a single snapshot of funds, prior rounds and
// admitted claims; the round, its lines, the audit entry and the outbox
// event persist together or not at all.
func (uc UseCase) DeclareDistribution(ctx context.Context, cmd DeclareDistributionCommand) (entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	if caseID == "" || cmd.RoundNo < 1 || !validMoney(cmd.TotalAmount) {
		return entities.Distribution{}, domainerrors.ErrInvalidInput
	}
	if cmd.WindowStart != nil && cmd.WindowEnd != nil && cmd.WindowEnd.Before(*cmd.WindowStart) {
		return entities.Distribution{}, domainerrors.ErrInvalidInput
	}

	distribution, err := uc.Repository.DeclareDistribution(ctx, caseID, uc.distributionPlanner(cmd))
	if err != nil {
		logger.Warn("distribution declare failed",
			"event", "ledger_distribution_declare_failed",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"round_no", cmd.RoundNo,
			"error", err.Error(),
		)
		return entities.Distribution{}, err
	}
	logger.Info("distribution declared",
		"event", "ledger_distribution_declared",
		"module", sourceService,
		"layer", "application",
		"case_id", caseID,
		"distribution_id", distribution.ID,
		"round_no", distribution.RoundNo,
		"total_amount", distribution.TotalAmount.StringFixed(2),
		"line_count", len(distribution.Lines),
	)
	return distribution, nil
}

func (uc UseCase) distributionPlanner(cmd DeclareDistributionCommand) ports.DistributionPlanner {
	return func(ctx context.Context, snapshot ports.DistributionSnapshot) (ports.DistributionPlan, error) {
		if snapshot.Case.Closed() {
			return ports.DistributionPlan{}, domainerrors.ErrCaseClosed
		}
		if snapshot.HasRounds && cmd.RoundNo <= snapshot.MaxRoundNo {
			return ports.DistributionPlan{}, domainerrors.ErrInvalidRound
		}
		undistributed := snapshot.AvailableFunds.Sub(snapshot.DistributedTotal)
		if cmd.TotalAmount.GreaterThan(undistributed) {
			return ports.DistributionPlan{}, domainerrors.ErrInsufficientFunds
		}
		if len(snapshot.AdmittedClaims) == 0 {
			return ports.DistributionPlan{}, domainerrors.ErrNoAdmittedClaims
		}

		allocations := services.Apportion(cmd.TotalAmount, snapshot.AdmittedClaims)
		if cmd.TotalAmount.Sign() > 0 && len(allocations) == 0 {
			// Admitted claims exist but carry no admitted value to share by.
			return ports.DistributionPlan{}, domainerrors.ErrNoAdmittedClaims
		}

		now := uc.now()
		distributionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.DistributionPlan{}, err
		}
		distribution := entities.Distribution{
			ID:          distributionID,
			CaseID:      snapshot.Case.ID,
			RoundNo:     cmd.RoundNo,
			TotalAmount: cmd.TotalAmount,
			WindowStart: cmd.WindowStart,
			WindowEnd:   cmd.WindowEnd,
			DeclaredAt:  now,
		}
		lineSum := decimal.Zero
		for _, allocation := range allocations {
			lineID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return ports.DistributionPlan{}, err
			}
			distribution.Lines = append(distribution.Lines, entities.DistributionLine{
				ID:             lineID,
				DistributionID: distributionID,
				CreditorID:     allocation.CreditorID,
				Amount:         allocation.Amount,
			})
			lineSum = lineSum.Add(allocation.Amount)
		}
		if !lineSum.Equal(cmd.TotalAmount) && cmd.TotalAmount.Sign() > 0 {
			return ports.DistributionPlan{}, domainerrors.ErrInvalidInput
		}

		snapshotPayload := distributionSnapshot(distribution)
		return ports.DistributionPlan{
			Distribution: distribution,
			Audit: ports.AuditEntry{
				EntryID:    distributionID + ":audit",
				CaseID:     distribution.CaseID,
				Actor:      resolveActor(cmd.Actor),
				Action:     "distribution.declared",
				EntityType: "distribution",
				EntityID:   distribution.ID,
				Snapshot:   snapshotPayload,
				CreatedAt:  now,
			},
			Event: ports.EventEnvelope{
				EventID:        distributionID + ":event",
				EventType:      "distribution.declared",
				SourceService:  sourceService,
				OccurredAtUTC:  now,
				EntityType:     "distribution",
				EntityID:       distribution.ID,
				PayloadVersion: 1,
				Payload:        snapshotPayload,
			},
		}, nil
	}
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func resolveActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return defaultActor
	}
	return actor
}

// validMoney accepts non-negative amounts at currency precision.
func validMoney(v decimal.Decimal) bool {
	return v.Sign() >= 0 && v.Equal(v.Round(2))
}

func transactionSnapshot(txn entities.Transaction) map[string]any {
	return map[string]any{
		"transaction_id": txn.ID,
		"case_id":        txn.CaseID,
		"kind":           string(txn.Kind),
		"amount":         txn.Amount.StringFixed(2),
		"currency":       txn.Currency,
		"occurred_at":    txn.OccurredAt.UTC().Format(time.RFC3339),
		"reference":      txn.Reference,
		"notes":          txn.Notes,
		"recorded_at":    txn.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func claimSnapshot(claim entities.Claim) map[string]any {
	snapshot := map[string]any{
		"claim_id":       claim.ID,
		"case_id":        claim.CaseID,
		"creditor_id":    claim.CreditorID,
		"amount_claimed": claim.AmountClaimed.StringFixed(2),
		"status":         string(claim.Status),
		"lodged_at":      claim.LodgedAt.UTC().Format(time.RFC3339),
	}
	if claim.AmountAdmitted != nil {
		snapshot["amount_admitted"] = claim.AmountAdmitted.StringFixed(2)
	}
	if claim.AdjudicatedAt != nil {
		snapshot["adjudicated_at"] = claim.AdjudicatedAt.UTC().Format(time.RFC3339)
	}
	return snapshot
}

func distributionSnapshot(distribution entities.Distribution) map[string]any {
	lines := make([]map[string]any, 0, len(distribution.Lines))
	for _, line := range distribution.Lines {
		lines = append(lines, map[string]any{
			"line_id":     line.ID,
			"creditor_id": line.CreditorID,
			"amount":      line.Amount.StringFixed(2),
		})
	}
	snapshot := map[string]any{
		"distribution_id": distribution.ID,
		"case_id":         distribution.CaseID,
		"round_no":        distribution.RoundNo,
		"total_amount":    distribution.TotalAmount.StringFixed(2),
		"declared_at":     distribution.DeclaredAt.UTC().Format(time.RFC3339),
		"lines":           lines,
	}
	if distribution.WindowStart != nil {
		snapshot["window_start"] = distribution.WindowStart.UTC().Format(time.RFC3339)
	}
	if distribution.WindowEnd != nil {
		snapshot["window_end"] = distribution.WindowEnd.UTC().Format(time.RFC3339)
	}
	return snapshot
}

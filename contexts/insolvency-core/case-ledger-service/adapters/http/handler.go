package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	application "liquorum/contexts/insolvency-core/case-ledger-service/application"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/commands"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/queries"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	httptransport "liquorum/contexts/insolvency-core/case-ledger-service/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) RecordTransactionHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.RecordTransactionRequest,
) (httptransport.TransactionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.TransactionDTO{}, err
	}
	occurredAt, err := parseOptionalTime(req.OccurredAt)
	if err != nil {
		return httptransport.TransactionDTO{}, err
	}
	cmd := commands.RecordTransactionCommand{
		CaseID:    caseID,
		Kind:      entities.TransactionKind(strings.TrimSpace(req.Kind)),
		Amount:    amount,
		Currency:  req.Currency,
		Reference: req.Reference,
		Notes:     req.Notes,
		Actor:     actor,
	}
	if occurredAt != nil {
		cmd.OccurredAt = *occurredAt
	}
	txn, err := h.Commands.RecordTransaction(ctx, cmd)
	if err != nil {
		logger.Warn("ledger http record transaction failed",
			"event", "ledger_http_record_transaction_failed",
			"module", "insolvency-core/case-ledger-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"kind", strings.TrimSpace(req.Kind),
			"error", err.Error(),
		)
		return httptransport.TransactionDTO{}, err
	}
	logger.Info("ledger http transaction recorded",
		"event", "ledger_http_transaction_recorded",
		"module", "insolvency-core/case-ledger-service",
		"layer", "adapter",
		"case_id", txn.CaseID,
		"transaction_id", txn.ID,
		"kind", string(txn.Kind),
	)
	return mapTransaction(txn), nil
}

func (h Handler) ListTransactionsHandler(ctx context.Context, caseID string) ([]httptransport.TransactionDTO, error) {
	transactions, err := h.Queries.ListTransactions(ctx, caseID)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.TransactionDTO, 0, len(transactions))
	for _, txn := range transactions {
		dtos = append(dtos, mapTransaction(txn))
	}
	return dtos, nil
}

func (h Handler) FundsSummaryHandler(ctx context.Context, caseID string) (httptransport.FundsSummaryResponse, error) {
	summary, err := h.Queries.FundsSummary(ctx, caseID)
	if err != nil {
		return httptransport.FundsSummaryResponse{}, err
	}
	return httptransport.FundsSummaryResponse{
		CaseID:         strings.TrimSpace(caseID),
		TotalIn:        summary.TotalIn.StringFixed(2),
		TotalOut:       summary.TotalOut.StringFixed(2),
		AvailableFunds: summary.AvailableFunds.StringFixed(2),
	}, nil
}

func (h Handler) LodgeClaimHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.LodgeClaimRequest,
) (httptransport.ClaimDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	amount, err := parseAmount(req.AmountClaimed)
	if err != nil {
		return httptransport.ClaimDTO{}, err
	}
	claim, err := h.Commands.LodgeClaim(ctx, commands.LodgeClaimCommand{
		CaseID:        caseID,
		CreditorID:    req.CreditorID,
		AmountClaimed: amount,
		Actor:         actor,
	})
	if err != nil {
		logger.Warn("ledger http lodge claim failed",
			"event", "ledger_http_lodge_claim_failed",
			"module", "insolvency-core/case-ledger-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"creditor_id", strings.TrimSpace(req.CreditorID),
			"error", err.Error(),
		)
		return httptransport.ClaimDTO{}, err
	}
	logger.Info("ledger http claim lodged",
		"event", "ledger_http_claim_lodged",
		"module", "insolvency-core/case-ledger-service",
		"layer", "adapter",
		"case_id", claim.CaseID,
		"claim_id", claim.ID,
		"creditor_id", claim.CreditorID,
	)
	return mapClaim(claim), nil
}

func (h Handler) GetClaimHandler(ctx context.Context, claimID string) (httptransport.ClaimDTO, error) {
	claim, err := h.Queries.GetClaim(ctx, claimID)
	if err != nil {
		return httptransport.ClaimDTO{}, err
	}
	return mapClaim(claim), nil
}

func (h Handler) ListClaimsHandler(
	ctx context.Context,
	caseID string,
	status string,
) ([]httptransport.ClaimDTO, error) {
	status = strings.TrimSpace(status)
	if status != "" && !entities.ClaimStatus(status).Valid() {
		return nil, domainerrors.ErrInvalidInput
	}
	claims, err := h.Queries.ListClaims(ctx, caseID)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.ClaimDTO, 0, len(claims))
	for _, claim := range claims {
		if status != "" && string(claim.Status) != status {
			continue
		}
		dtos = append(dtos, mapClaim(claim))
	}
	return dtos, nil
}

func (h Handler) TransitionClaimHandler(
	ctx context.Context,
	claimID string,
	actor string,
	req httptransport.TransitionClaimRequest,
) (httptransport.ClaimDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	cmd := commands.TransitionClaimCommand{
		ClaimID:  claimID,
		ToStatus: entities.ClaimStatus(strings.TrimSpace(req.ToStatus)),
		Actor:    actor,
	}
	if strings.TrimSpace(req.AmountAdmitted) != "" {
		admitted, err := parseAmount(req.AmountAdmitted)
		if err != nil {
			return httptransport.ClaimDTO{}, err
		}
		cmd.AmountAdmitted = &admitted
	}
	claim, err := h.Commands.TransitionClaim(ctx, cmd)
	if err != nil {
		logger.Warn("ledger http claim transition failed",
			"event", "ledger_http_claim_transition_failed",
			"module", "insolvency-core/case-ledger-service",
			"layer", "adapter",
			"claim_id", strings.TrimSpace(claimID),
			"to_status", strings.TrimSpace(req.ToStatus),
			"error", err.Error(),
		)
		return httptransport.ClaimDTO{}, err
	}
	logger.Info("ledger http claim transitioned",
		"event", "ledger_http_claim_transitioned",
		"module", "insolvency-core/case-ledger-service",
		"layer", "adapter",
		"claim_id", claim.ID,
		"case_id", claim.CaseID,
		"to_status", string(claim.Status),
	)
	return mapClaim(claim), nil
}

func (h Handler) ClaimsVerificationHandler(ctx context.Context, caseID string) (httptransport.ClaimsVerificationResponse, error) {
	verification, err := h.Queries.ClaimsVerification(ctx, caseID)
	if err != nil {
		return httptransport.ClaimsVerificationResponse{}, err
	}
	return httptransport.ClaimsVerificationResponse{
		CaseID:          strings.TrimSpace(caseID),
		TotalConsidered: verification.TotalConsidered,
		AdmittedCount:   verification.AdmittedCount,
		AdmittedPct:     verification.AdmittedPct.StringFixed(2),
	}, nil
}

func (h Handler) DeclareDistributionHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.DeclareDistributionRequest,
) (httptransport.DistributionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		return httptransport.DistributionDTO{}, err
	}
	windowStart, err := parseOptionalTime(req.WindowStart)
	if err != nil {
		return httptransport.DistributionDTO{}, err
	}
	windowEnd, err := parseOptionalTime(req.WindowEnd)
	if err != nil {
		return httptransport.DistributionDTO{}, err
	}
	distribution, err := h.Commands.DeclareDistribution(ctx, commands.DeclareDistributionCommand{
		CaseID:      caseID,
		RoundNo:     req.RoundNo,
		TotalAmount: total,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Actor:       actor,
	})
	if err != nil {
		logger.Warn("ledger http declare distribution failed",
			"event", "ledger_http_declare_distribution_failed",
			"module", "insolvency-core/case-ledger-service",
			"layer", "adapter",
			"case_id", strings.TrimSpace(caseID),
			"round_no", req.RoundNo,
			"error", err.Error(),
		)
		return httptransport.DistributionDTO{}, err
	}
	logger.Info("ledger http distribution declared",
		"event", "ledger_http_distribution_declared",
		"module", "insolvency-core/case-ledger-service",
		"layer", "adapter",
		"case_id", distribution.CaseID,
		"distribution_id", distribution.ID,
		"round_no", distribution.RoundNo,
		"line_count", len(distribution.Lines),
	)
	return mapDistribution(distribution), nil
}

func (h Handler) GetDistributionHandler(ctx context.Context, distributionID string) (httptransport.DistributionDTO, error) {
	distribution, err := h.Queries.GetDistribution(ctx, distributionID)
	if err != nil {
		return httptransport.DistributionDTO{}, err
	}
	return mapDistribution(distribution), nil
}

func (h Handler) ListDistributionsHandler(ctx context.Context, caseID string) ([]httptransport.DistributionDTO, error) {
	distributions, err := h.Queries.ListDistributions(ctx, caseID)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.DistributionDTO, 0, len(distributions))
	for _, distribution := range distributions {
		dtos = append(dtos, mapDistribution(distribution))
	}
	return dtos, nil
}

func (h Handler) DistributionProgressHandler(ctx context.Context, caseID string) (httptransport.DistributionProgressResponse, error) {
	progress, err := h.Queries.DistributionProgress(ctx, caseID)
	if err != nil {
		return httptransport.DistributionProgressResponse{}, err
	}
	return httptransport.DistributionProgressResponse{
		CaseID:           strings.TrimSpace(caseID),
		AvailableFunds:   progress.AvailableFunds.StringFixed(2),
		DistributedTotal: progress.DistributedTotal.StringFixed(2),
		Undistributed:    progress.Undistributed.StringFixed(2),
	}, nil
}

func mapTransaction(txn entities.Transaction) httptransport.TransactionDTO {
	return httptransport.TransactionDTO{
		ID:         txn.ID,
		CaseID:     txn.CaseID,
		Kind:       string(txn.Kind),
		Amount:     txn.Amount.StringFixed(2),
		Currency:   txn.Currency,
		OccurredAt: txn.OccurredAt.Format(time.RFC3339),
		Seq:        txn.Seq,
		Reference:  txn.Reference,
		Notes:      txn.Notes,
		RecordedAt: txn.RecordedAt.Format(time.RFC3339),
	}
}

func mapClaim(claim entities.Claim) httptransport.ClaimDTO {
	dto := httptransport.ClaimDTO{
		ID:            claim.ID,
		CaseID:        claim.CaseID,
		CreditorID:    claim.CreditorID,
		AmountClaimed: claim.AmountClaimed.StringFixed(2),
		Status:        string(claim.Status),
		LodgedAt:      claim.LodgedAt.Format(time.RFC3339),
		UpdatedAt:     claim.UpdatedAt.Format(time.RFC3339),
	}
	if claim.AmountAdmitted != nil {
		dto.AmountAdmitted = claim.AmountAdmitted.StringFixed(2)
	}
	if claim.AdjudicatedAt != nil {
		dto.AdjudicatedAt = claim.AdjudicatedAt.Format(time.RFC3339)
	}
	return dto
}

func mapDistribution(distribution entities.Distribution) httptransport.DistributionDTO {
	dto := httptransport.DistributionDTO{
		ID:          distribution.ID,
		CaseID:      distribution.CaseID,
		RoundNo:     distribution.RoundNo,
		TotalAmount: distribution.TotalAmount.StringFixed(2),
		DeclaredAt:  distribution.DeclaredAt.Format(time.RFC3339),
		Lines:       make([]httptransport.DistributionLineDTO, 0, len(distribution.Lines)),
	}
	if distribution.WindowStart != nil {
		dto.WindowStart = distribution.WindowStart.Format(time.RFC3339)
	}
	if distribution.WindowEnd != nil {
		dto.WindowEnd = distribution.WindowEnd.Format(time.RFC3339)
	}
	for _, line := range distribution.Lines {
		dto.Lines = append(dto.Lines, httptransport.DistributionLineDTO{
			ID:         line.ID,
			CreditorID: line.CreditorID,
			Amount:     line.Amount.StringFixed(2),
		})
	}
	return dto
}

func parseAmount(value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return decimal.Decimal{}, domainerrors.ErrInvalidInput
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domainerrors.ErrInvalidInput
	}
	return amount, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domainerrors.ErrInvalidInput
	}
	utc := parsed.UTC()
	return &utc, nil
}

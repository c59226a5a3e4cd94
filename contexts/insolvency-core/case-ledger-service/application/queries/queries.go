package queries

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	application "liquorum/contexts/insolvency-core/case-ledger-service/application"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

const sourceService = "insolvency-core/case-ledger-service"

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// FundsSummary is recomputed from the transaction history on every call;
// no running total is ever the source of truth.
func (uc UseCase) FundsSummary(ctx context.Context, caseID string) (ports.FundsSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return ports.FundsSummary{}, domainerrors.ErrInvalidInput
	}
	summary, err := uc.Repository.FundsSummary(ctx, caseID)
	if err != nil {
		logger.Warn("funds summary failed",
			"event", "ledger_query_funds_summary_failed",
			"module", sourceService,
			"layer", "application",
			"case_id", caseID,
			"error", err.Error(),
		)
		return ports.FundsSummary{}, err
	}
	return summary, nil
}

func (uc UseCase) AvailableFunds(ctx context.Context, caseID string) (decimal.Decimal, error) {
	summary, err := uc.FundsSummary(ctx, caseID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return summary.AvailableFunds, nil
}

func (uc UseCase) ListTransactions(ctx context.Context, caseID string) ([]entities.Transaction, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Repository.ListTransactions(ctx, caseID)
}

func (uc UseCase) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}
	return uc.Repository.GetClaim(ctx, claimID)
}

func (uc UseCase) ListClaims(ctx context.Context, caseID string) ([]entities.Claim, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Repository.ListClaims(ctx, caseID)
}

func (uc UseCase) AdmittedTotal(ctx context.Context, caseID string) (decimal.Decimal, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return decimal.Decimal{}, domainerrors.ErrInvalidInput
	}
	return uc.Repository.AdmittedTotal(ctx, caseID)
}

// ClaimsVerification reports adjudication progress for a case. The
// percentage is zero when no claims have been lodged.
func (uc UseCase) ClaimsVerification(ctx context.Context, caseID string) (ports.ClaimsVerification, error) {
	claims, err := uc.ListClaims(ctx, caseID)
	if err != nil {
		return ports.ClaimsVerification{}, err
	}
	verification := ports.ClaimsVerification{
		TotalConsidered: len(claims),
		AdmittedPct:     decimal.Zero,
	}
	for _, claim := range claims {
		if claim.Status == entities.ClaimStatusAdmitted {
			verification.AdmittedCount++
		}
	}
	if verification.TotalConsidered > 0 {
		verification.AdmittedPct = decimal.NewFromInt(int64(verification.AdmittedCount)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(verification.TotalConsidered))).
			Round(2)
	}
	return verification, nil
}

func (uc UseCase) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	distributionID = strings.TrimSpace(distributionID)
	if distributionID == "" {
		return entities.Distribution{}, domainerrors.ErrInvalidInput
	}
	return uc.Repository.GetDistribution(ctx, distributionID)
}

func (uc UseCase) ListDistributions(ctx context.Context, caseID string) ([]entities.Distribution, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Repository.ListDistributions(ctx, caseID)
}

// DistributionProgress is recomputed from committed lines, mirroring the
// funds summary: derived, never cached.
func (uc UseCase) DistributionProgress(ctx context.Context, caseID string) (ports.DistributionProgress, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return ports.DistributionProgress{}, domainerrors.ErrInvalidInput
	}
	summary, err := uc.Repository.FundsSummary(ctx, caseID)
	if err != nil {
		return ports.DistributionProgress{}, err
	}
	total, err := uc.Repository.DistributedTotal(ctx, caseID)
	if err != nil {
		return ports.DistributionProgress{}, err
	}
	return ports.DistributionProgress{
		AvailableFunds:   summary.AvailableFunds,
		DistributedTotal: total,
		Undistributed:    summary.AvailableFunds.Sub(total),
	}, nil
}

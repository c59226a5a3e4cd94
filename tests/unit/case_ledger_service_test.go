package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/commands"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

func ledgerModule() caseledger.Module {
	return caseledger.NewInMemoryModule(
		[]ports.CaseRecord{{ID: "case-1", Reference: "INS-2026-001", Status: "open", OpenedAt: time.Now().UTC()}},
		[]string{"cred-a", "cred-b"},
		nil,
	)
}

func dec(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func record(t *testing.T, module caseledger.Module, kind entities.TransactionKind, amount string) {
	t.Helper()
	_, err := module.Handler.Commands.RecordTransaction(context.Background(), commands.RecordTransactionCommand{
		CaseID: "case-1",
		Kind:   kind,
		Amount: dec(amount),
	})
	if err != nil {
		t.Fatalf("record %s %s failed: %v", kind, amount, err)
	}
}

func admitClaim(t *testing.T, module caseledger.Module, creditorID string, claimed string, admitted string) entities.Claim {
	t.Helper()
	claim, err := module.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID:        "case-1",
		CreditorID:    creditorID,
		AmountClaimed: dec(claimed),
	})
	if err != nil {
		t.Fatalf("lodge claim for %s failed: %v", creditorID, err)
	}
	amount := dec(admitted)
	claim, err = module.Handler.Commands.TransitionClaim(context.Background(), commands.TransitionClaimCommand{
		ClaimID:        claim.ID,
		ToStatus:       entities.ClaimStatusAdmitted,
		AmountAdmitted: &amount,
	})
	if err != nil {
		t.Fatalf("admit claim for %s failed: %v", creditorID, err)
	}
	return claim
}

func TestFundsSummaryDerivedFromHistory(t *testing.T) {
	module := ledgerModule()
	record(t, module, entities.TransactionKindReceipt, "10000.00")
	record(t, module, entities.TransactionKindPayment, "2000.00")

	summary, err := module.Handler.Queries.FundsSummary(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("funds summary failed: %v", err)
	}
	if !summary.TotalIn.Equal(dec("10000.00")) || !summary.TotalOut.Equal(dec("2000.00")) {
		t.Fatalf("unexpected totals: in %s out %s", summary.TotalIn, summary.TotalOut)
	}
	if !summary.AvailableFunds.Equal(dec("8000.00")) {
		t.Fatalf("expected available 8000.00, got %s", summary.AvailableFunds)
	}
}

func TestDistributionProRataAcrossAdmittedClaims(t *testing.T) {
	module := ledgerModule()
	record(t, module, entities.TransactionKindReceipt, "10000.00")
	admitClaim(t, module, "cred-a", "6000.00", "6000.00")
	admitClaim(t, module, "cred-b", "2500.00", "2000.00")

	distribution, err := module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID:      "case-1",
		RoundNo:     1,
		TotalAmount: dec("4000.00"),
	})
	if err != nil {
		t.Fatalf("declare failed: %v", err)
	}
	if len(distribution.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(distribution.Lines))
	}
	byCreditor := map[string]decimal.Decimal{}
	for _, line := range distribution.Lines {
		byCreditor[line.CreditorID] = line.Amount
	}
	if !byCreditor["cred-a"].Equal(dec("3000.00")) {
		t.Fatalf("expected cred-a 3000.00, got %s", byCreditor["cred-a"])
	}
	if !byCreditor["cred-b"].Equal(dec("1000.00")) {
		t.Fatalf("expected cred-b 1000.00, got %s", byCreditor["cred-b"])
	}

	progress, err := module.Handler.Queries.DistributionProgress(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if !progress.DistributedTotal.Equal(dec("4000.00")) {
		t.Fatalf("expected distributed 4000.00, got %s", progress.DistributedTotal)
	}
	if !progress.Undistributed.Equal(dec("6000.00")) {
		t.Fatalf("expected undistributed 6000.00, got %s", progress.Undistributed)
	}
}

func TestDistributionRoundNumbersMustAdvance(t *testing.T) {
	module := ledgerModule()
	record(t, module, entities.TransactionKindReceipt, "1000.00")
	admitClaim(t, module, "cred-a", "500.00", "500.00")

	if _, err := module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID: "case-1", RoundNo: 1, TotalAmount: dec("100.00"),
	}); err != nil {
		t.Fatalf("first round failed: %v", err)
	}
	_, err := module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID: "case-1", RoundNo: 1, TotalAmount: dec("100.00"),
	})
	if !errors.Is(err, domainerrors.ErrInvalidRound) {
		t.Fatalf("expected invalid round on repeat, got %v", err)
	}
}

func TestDistributionInsufficientFundsPersistsNothing(t *testing.T) {
	module := ledgerModule()
	record(t, module, entities.TransactionKindReceipt, "100.00")
	admitClaim(t, module, "cred-a", "500.00", "500.00")

	_, err := module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID: "case-1", RoundNo: 1, TotalAmount: dec("200.00"),
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	listed, err := module.Handler.Queries.ListDistributions(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no rounds persisted, got %d", len(listed))
	}
}

func TestDistributionRequiresAdmittedClaims(t *testing.T) {
	module := ledgerModule()
	record(t, module, entities.TransactionKindReceipt, "100.00")

	_, err := module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID: "case-1", RoundNo: 1, TotalAmount: dec("50.00"),
	})
	if !errors.Is(err, domainerrors.ErrNoAdmittedClaims) {
		t.Fatalf("expected no admitted claims, got %v", err)
	}
}

func TestClaimAdjudicationIsTerminal(t *testing.T) {
	module := ledgerModule()
	claim := admitClaim(t, module, "cred-a", "500.00", "500.00")

	_, err := module.Handler.Commands.TransitionClaim(context.Background(), commands.TransitionClaimCommand{
		ClaimID:  claim.ID,
		ToStatus: entities.ClaimStatusRejected,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected terminal admitted status, got %v", err)
	}

	// An admitted claim cannot be reopened either.
	_, err = module.Handler.Commands.TransitionClaim(context.Background(), commands.TransitionClaimCommand{
		ClaimID:  claim.ID,
		ToStatus: entities.ClaimStatusLodged,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected no reopening of admitted claim, got %v", err)
	}
}

func TestClaimAdmissionCappedByClaimedAmount(t *testing.T) {
	module := ledgerModule()
	claim, err := module.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID: "case-1", CreditorID: "cred-a", AmountClaimed: dec("100.00"),
	})
	if err != nil {
		t.Fatalf("lodge failed: %v", err)
	}

	over := dec("150.00")
	_, err = module.Handler.Commands.TransitionClaim(context.Background(), commands.TransitionClaimCommand{
		ClaimID: claim.ID, ToStatus: entities.ClaimStatusAdmitted, AmountAdmitted: &over,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected admission above claim rejected, got %v", err)
	}
}

func TestClosedCaseRejectsMutations(t *testing.T) {
	module := ledgerModule()
	closedAt := time.Now().UTC()
	module.Store.UpsertCase(ports.CaseRecord{ID: "case-1", Reference: "INS-2026-001", Status: "closed", ClosedAt: &closedAt})

	_, err := module.Handler.Commands.RecordTransaction(context.Background(), commands.RecordTransactionCommand{
		CaseID: "case-1", Kind: entities.TransactionKindReceipt, Amount: dec("10.00"),
	})
	if !errors.Is(err, domainerrors.ErrCaseClosed) {
		t.Fatalf("expected closed case on record, got %v", err)
	}
	_, err = module.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID: "case-1", CreditorID: "cred-a", AmountClaimed: dec("10.00"),
	})
	if !errors.Is(err, domainerrors.ErrCaseClosed) {
		t.Fatalf("expected closed case on lodge, got %v", err)
	}
	_, err = module.Handler.Commands.DeclareDistribution(context.Background(), commands.DeclareDistributionCommand{
		CaseID: "case-1", RoundNo: 1, TotalAmount: dec("0.00"),
	})
	if !errors.Is(err, domainerrors.ErrCaseClosed) {
		t.Fatalf("expected closed case on declare, got %v", err)
	}
}

func TestClaimsVerificationPercentage(t *testing.T) {
	module := ledgerModule()
	admitClaim(t, module, "cred-a", "100.00", "100.00")
	if _, err := module.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID: "case-1", CreditorID: "cred-b", AmountClaimed: dec("50.00"),
	}); err != nil {
		t.Fatalf("lodge failed: %v", err)
	}

	verification, err := module.Handler.Queries.ClaimsVerification(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if verification.TotalConsidered != 2 || verification.AdmittedCount != 1 {
		t.Fatalf("unexpected counts: %+v", verification)
	}
	if !verification.AdmittedPct.Equal(dec("50.00")) {
		t.Fatalf("expected 50.00 pct, got %s", verification.AdmittedPct)
	}
}

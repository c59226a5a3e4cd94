package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordTransactionRequest struct {
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	OccurredAt string `json:"occurred_at,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type TransactionDTO struct {
	ID         string `json:"id"`
	CaseID     string `json:"case_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	OccurredAt string `json:"occurred_at"`
	Seq        int64  `json:"seq"`
	Reference  string `json:"reference,omitempty"`
	Notes      string `json:"notes,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

type FundsSummaryResponse struct {
	CaseID         string `json:"case_id"`
	TotalIn        string `json:"total_in"`
	TotalOut       string `json:"total_out"`
	AvailableFunds string `json:"available_funds"`
}

type LodgeClaimRequest struct {
	CreditorID    string `json:"creditor_id"`
	AmountClaimed string `json:"amount_claimed"`
}

type TransitionClaimRequest struct {
	ToStatus       string `json:"to_status"`
	AmountAdmitted string `json:"amount_admitted,omitempty"`
}

type ClaimDTO struct {
	ID             string `json:"id"`
	CaseID         string `json:"case_id"`
	CreditorID     string `json:"creditor_id"`
	AmountClaimed  string `json:"amount_claimed"`
	AmountAdmitted string `json:"amount_admitted,omitempty"`
	Status         string `json:"status"`
	LodgedAt       string `json:"lodged_at"`
	AdjudicatedAt  string `json:"adjudicated_at,omitempty"`
	UpdatedAt      string `json:"updated_at"`
}

type ClaimsVerificationResponse struct {
	CaseID          string `json:"case_id"`
	TotalConsidered int    `json:"total_considered"`
	AdmittedCount   int    `json:"admitted_count"`
	AdmittedPct     string `json:"admitted_pct"`
}

type DeclareDistributionRequest struct {
	RoundNo     int    `json:"round_no"`
	TotalAmount string `json:"total_amount"`
	WindowStart string `json:"window_start,omitempty"`
	WindowEnd   string `json:"window_end,omitempty"`
}

type DistributionDTO struct {
	ID          string                `json:"id"`
	CaseID      string                `json:"case_id"`
	RoundNo     int                   `json:"round_no"`
	TotalAmount string                `json:"total_amount"`
	WindowStart string                `json:"window_start,omitempty"`
	WindowEnd   string                `json:"window_end,omitempty"`
	DeclaredAt  string                `json:"declared_at"`
	Lines       []DistributionLineDTO `json:"lines"`
}

type DistributionLineDTO struct {
	ID         string `json:"id"`
	CreditorID string `json:"creditor_id"`
	Amount     string `json:"amount"`
}

type DistributionProgressResponse struct {
	CaseID           string `json:"case_id"`
	AvailableFunds   string `json:"available_funds"`
	DistributedTotal string `json:"distributed_total"`
	Undistributed    string `json:"undistributed"`
}

package postgresadapter

import (
	"time"

	"github.com/shopspring/decimal"

	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

// caseModel and creditorModel map tables owned by case-registry-service.
// The ledger only reads (and row-locks) them; writes stay with the registry.
type caseModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Reference string     `gorm:"column:reference"`
	Status    string     `gorm:"column:status"`
	Stage     string     `gorm:"column:stage"`
	OpenedAt  time.Time  `gorm:"column:opened_at"`
	ClosedAt  *time.Time `gorm:"column:closed_at"`
}

func (caseModel) TableName() string { return "cases" }

func (m caseModel) toRecord() ports.CaseRecord {
	record := ports.CaseRecord{
		ID:        m.ID,
		Reference: m.Reference,
		Status:    m.Status,
		Stage:     m.Stage,
		OpenedAt:  m.OpenedAt.UTC(),
	}
	if m.ClosedAt != nil {
		closed := m.ClosedAt.UTC()
		record.ClosedAt = &closed
	}
	return record
}

type creditorModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name"`
	Active bool   `gorm:"column:active"`
}

func (creditorModel) TableName() string { return "creditors" }

type transactionModel struct {
	ID         string          `gorm:"column:id;primaryKey"`
	CaseID     string          `gorm:"column:case_id;index"`
	Kind       string          `gorm:"column:kind"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(18,2)"`
	Currency   string          `gorm:"column:currency"`
	OccurredAt time.Time       `gorm:"column:occurred_at"`
	Seq        int64           `gorm:"column:seq;autoIncrement"`
	Reference  string          `gorm:"column:reference"`
	Notes      string          `gorm:"column:notes"`
	RecordedAt time.Time       `gorm:"column:recorded_at"`
}

func (transactionModel) TableName() string { return "case_transactions" }

func transactionModelFromEntity(txn entities.Transaction) transactionModel {
	return transactionModel{
		ID:         txn.ID,
		CaseID:     txn.CaseID,
		Kind:       string(txn.Kind),
		Amount:     txn.Amount,
		Currency:   txn.Currency,
		OccurredAt: txn.OccurredAt.UTC(),
		Reference:  txn.Reference,
		Notes:      txn.Notes,
		RecordedAt: txn.RecordedAt.UTC(),
	}
}

func (m transactionModel) toEntity() entities.Transaction {
	return entities.Transaction{
		ID:         m.ID,
		CaseID:     m.CaseID,
		Kind:       entities.TransactionKind(m.Kind),
		Amount:     m.Amount,
		Currency:   m.Currency,
		OccurredAt: m.OccurredAt.UTC(),
		Seq:        m.Seq,
		Reference:  m.Reference,
		Notes:      m.Notes,
		RecordedAt: m.RecordedAt.UTC(),
	}
}

type claimModel struct {
	ID             string           `gorm:"column:id;primaryKey"`
	CaseID         string           `gorm:"column:case_id;uniqueIndex:ux_claims_case_creditor"`
	CreditorID     string           `gorm:"column:creditor_id;uniqueIndex:ux_claims_case_creditor"`
	AmountClaimed  decimal.Decimal  `gorm:"column:amount_claimed;type:numeric(18,2)"`
	AmountAdmitted *decimal.Decimal `gorm:"column:amount_admitted;type:numeric(18,2)"`
	Status         string           `gorm:"column:status"`
	LodgedAt       time.Time        `gorm:"column:lodged_at"`
	AdjudicatedAt  *time.Time       `gorm:"column:adjudicated_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

func (claimModel) TableName() string { return "claims" }

func claimModelFromEntity(claim entities.Claim) claimModel {
	row := claimModel{
		ID:            claim.ID,
		CaseID:        claim.CaseID,
		CreditorID:    claim.CreditorID,
		AmountClaimed: claim.AmountClaimed,
		Status:        string(claim.Status),
		LodgedAt:      claim.LodgedAt.UTC(),
		UpdatedAt:     claim.UpdatedAt.UTC(),
	}
	if claim.AmountAdmitted != nil {
		admitted := *claim.AmountAdmitted
		row.AmountAdmitted = &admitted
	}
	if claim.AdjudicatedAt != nil {
		adjudicated := claim.AdjudicatedAt.UTC()
		row.AdjudicatedAt = &adjudicated
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	claim := entities.Claim{
		ID:            m.ID,
		CaseID:        m.CaseID,
		CreditorID:    m.CreditorID,
		AmountClaimed: m.AmountClaimed,
		Status:        entities.ClaimStatus(m.Status),
		LodgedAt:      m.LodgedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
	if m.AmountAdmitted != nil {
		admitted := *m.AmountAdmitted
		claim.AmountAdmitted = &admitted
	}
	if m.AdjudicatedAt != nil {
		adjudicated := m.AdjudicatedAt.UTC()
		claim.AdjudicatedAt = &adjudicated
	}
	return claim
}

type distributionModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	CaseID      string          `gorm:"column:case_id;uniqueIndex:ux_distributions_case_round"`
	RoundNo     int             `gorm:"column:round_no;uniqueIndex:ux_distributions_case_round"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(18,2)"`
	WindowStart *time.Time      `gorm:"column:window_start"`
	WindowEnd   *time.Time      `gorm:"column:window_end"`
	DeclaredAt  time.Time       `gorm:"column:declared_at"`
}

func (distributionModel) TableName() string { return "distributions" }

func distributionModelFromEntity(dist entities.Distribution) distributionModel {
	row := distributionModel{
		ID:          dist.ID,
		CaseID:      dist.CaseID,
		RoundNo:     dist.RoundNo,
		TotalAmount: dist.TotalAmount,
		DeclaredAt:  dist.DeclaredAt.UTC(),
	}
	if dist.WindowStart != nil {
		start := dist.WindowStart.UTC()
		row.WindowStart = &start
	}
	if dist.WindowEnd != nil {
		end := dist.WindowEnd.UTC()
		row.WindowEnd = &end
	}
	return row
}

func (m distributionModel) toEntity() entities.Distribution {
	dist := entities.Distribution{
		ID:          m.ID,
		CaseID:      m.CaseID,
		RoundNo:     m.RoundNo,
		TotalAmount: m.TotalAmount,
		DeclaredAt:  m.DeclaredAt.UTC(),
	}
	if m.WindowStart != nil {
		start := m.WindowStart.UTC()
		dist.WindowStart = &start
	}
	if m.WindowEnd != nil {
		end := m.WindowEnd.UTC()
		dist.WindowEnd = &end
	}
	return dist
}

type distributionLineModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	DistributionID string          `gorm:"column:distribution_id;uniqueIndex:ux_lines_distribution_creditor"`
	CreditorID     string          `gorm:"column:creditor_id;uniqueIndex:ux_lines_distribution_creditor"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(18,2)"`
}

func (distributionLineModel) TableName() string { return "distribution_lines" }

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

func (outboxModel) TableName() string { return "ledger_outbox" }

// Models returns every gorm model this service migrates.
func Models() []any {
	return []any{
		&transactionModel{},
		&claimModel{},
		&distributionModel{},
		&distributionLineModel{},
		&activityLogModel{},
		&outboxModel{},
	}
}

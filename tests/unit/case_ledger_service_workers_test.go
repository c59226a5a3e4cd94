package unit

import (
	"context"
	"sync"
	"testing"
	"time"

	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/commands"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() ([]string, []ports.EventEnvelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...), append([]ports.EventEnvelope(nil), p.events...)
}

func TestOutboxRelayPublishesAndDrains(t *testing.T) {
	module := caseledger.NewInMemoryModule(
		[]ports.CaseRecord{{ID: "case-1", Status: "open", OpenedAt: time.Now().UTC()}},
		[]string{"cred-a"},
		nil,
	)

	if _, err := module.Handler.Commands.RecordTransaction(context.Background(), commands.RecordTransactionCommand{
		CaseID: "case-1",
		Kind:   entities.TransactionKindReceipt,
		Amount: dec("250.00"),
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := module.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID:        "case-1",
		CreditorID:    "cred-a",
		AmountClaimed: dec("100.00"),
	}); err != nil {
		t.Fatalf("lodge failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := caseledger.NewOutboxRelay(module.Store, publisher, module.Store, nil)

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	topics, published := publisher.published()
	if len(published) != 2 {
		t.Fatalf("expected 2 events published, got %d", len(published))
	}
	seen := map[string]bool{}
	for _, topic := range topics {
		seen[topic] = true
	}
	if !seen["transaction.recorded"] || !seen["claim.lodged"] {
		t.Fatalf("expected event-type topics, got %v", topics)
	}
	for _, event := range published {
		if event.SourceService != "insolvency-core/case-ledger-service" {
			t.Fatalf("unexpected source service: %s", event.SourceService)
		}
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d pending", len(pending))
	}

	// A second run is a no-op.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay run failed: %v", err)
	}
	_, published = publisher.published()
	if len(published) != 2 {
		t.Fatalf("expected no republish, got %d events", len(published))
	}
}

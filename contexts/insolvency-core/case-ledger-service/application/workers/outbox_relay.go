package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "liquorum/contexts/insolvency-core/case-ledger-service/application"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

// OutboxRelay drains pending outbox rows and publishes them to the event
// bus, marking each row published once the publish succeeds. Rows are
// written transactionally with the mutations they describe, so delivery
// is at-least-once and consumers dedupe by event id.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		logger.Error("outbox relay list failed",
			"event", "ledger_outbox_relay_list_failed",
			"module", "insolvency-core/case-ledger-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox relay payload decode failed",
				"event", "ledger_outbox_relay_decode_failed",
				"module", "insolvency-core/case-ledger-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, message.EventType, envelope); err != nil {
			logger.Error("outbox relay publish failed",
				"event", "ledger_outbox_relay_publish_failed",
				"module", "insolvency-core/case-ledger-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", message.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, r.now()); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay batch published",
			"event", "ledger_outbox_relay_published",
			"module", "insolvency-core/case-ledger-service",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}

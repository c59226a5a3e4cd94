package outbox

import "time"

// Outbox row persisted inside the same DB transaction as state changes.
// Worker relay reads pending rows and publishes to the message bus.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string // pending, published
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

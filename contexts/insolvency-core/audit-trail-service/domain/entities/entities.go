package entities

import (
	"encoding/json"
	"time"
)

// Entry is one immutable row of the shared activity log. Snapshot holds
// the entity state as serialized by the writing module.
type Entry struct {
	ID         string
	CaseID     string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Snapshot   json.RawMessage
	CreatedAt  time.Time
}

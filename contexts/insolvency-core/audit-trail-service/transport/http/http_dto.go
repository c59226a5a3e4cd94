package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordNoteRequest struct {
	Note string `json:"note"`
}

type EntryDTO struct {
	ID         string          `json:"id"`
	CaseID     string          `json:"case_id,omitempty"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type HistoryResponse struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

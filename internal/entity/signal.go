package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Signal mirrors the `signals` PostgreSQL table schema. A signal is an event
// extraction materialized for exactly one post; immutable once created.
type Signal struct {
	ID                 uuid.UUID
	CreatedAt          time.Time
	UserID             uuid.UUID
	PostID             uuid.UUID
	EventType          *string
	EventTiming        EventTiming
	EventDate          *time.Time
	EventDateInferred  bool
	CompaniesMentioned []string
	PeopleMentioned    []string
	RelevanceScore     float64
	Summary            string
	RawExtraction      json.RawMessage // full LLM output, stored as JSONB
}

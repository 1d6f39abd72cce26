package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted audit record, mirroring what is published to NATS.
type Event struct {
	ID          int64           `json:"id"`
	Topic       string          `json:"topic"`
	HackathonID string          `json:"hackathon_id"`
	SubjectID   string          `json:"subject_id,omitempty"` // participant or team the event is about
	Actor       string          `json:"actor,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

package models

import "time"

type Response struct {
	ID             string
	SessionID      string
	ConversationID string
	PanelCount     int
	CreatedAt      time.Time
}

type PanelRecord struct {
	ID         string
	ResponseID string
	Position   int
	Open       bool
	Diagram    bool
	ByteSize   int
	CreatedAt  time.Time
}

// SelectionEvent is the audit record for one match-on-selection call.
// It is also served back on the history endpoint, hence the tags.
// Outcome is one of "hit", "no_match", "stale", "empty_selection",
// "no_response".
type SelectionEvent struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	ResponseID     string    `json:"response_id,omitempty"`
	Selection      string    `json:"selection"`
	Outcome        string    `json:"outcome"`
	MatchedText    string    `json:"matched_text,omitempty"`
	PanelID        string    `json:"panel_id,omitempty"`
	SegmentID      int       `json:"segment_id"`
	LatencyMS      int       `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

type SessionRecord struct {
	ID          string
	TokenDigest string
	Username    string
	ValidatedAt time.Time
	CreatedAt   time.Time
}

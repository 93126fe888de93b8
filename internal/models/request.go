package models

import (
	"encoding/json"
	"time"
)

// SearchStatus is the lifecycle state carried on a MatchRequest message.
type SearchStatus string

const (
	SearchStarted  SearchStatus = "search_started"
	SearchCanceled SearchStatus = "search_canceled"
	SearchComplete SearchStatus = "search_completed"
	SearchExpired  SearchStatus = "waiting_time_expired"
)

// MatchRequest is one message on the request stream: a user's desire to find
// (or stop finding) a conversation partner.
//
// UserID together with CreatedAt identifies one logical search; every
// redelivery or retry of the same search carries the same pair. CurrentTime
// advances on each republish and RetryCount counts unsuccessful pairing
// attempts, driving criteria relaxation.
type MatchRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Gender   string `json:"gender,omitempty"`
	LangCode string `json:"lang_code,omitempty"`

	Criteria Criteria     `json:"criteria"`
	Status   SearchStatus `json:"status"`

	CreatedAt   time.Time `json:"created_at"`
	CurrentTime time.Time `json:"current_time"`
	RetryCount  int       `json:"retry_count"`
}

// Terminal reports whether the message signals the end of a search rather
// than a pairing attempt.
func (r *MatchRequest) Terminal() bool {
	return r.Status == SearchCanceled || r.Status == SearchComplete
}

// Waited returns how long the logical search has been running as of the
// given instant.
func (r *MatchRequest) Waited(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// MarshalBinary lets go-redis serialize the request directly as a stream
// field value.
func (r MatchRequest) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (r *MatchRequest) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

package matchhub

import (
	"time"

	"linguamatch/backend/internal/models"
)

// Decision is the tracker's verdict on an incoming message, taken before any
// queue mutation.
type Decision int

const (
	// DecisionProcess means the message is a genuinely fresh or still
	// pending search and must go through the pairing algorithm.
	DecisionProcess Decision = iota
	// DecisionDrop means the message is a duplicate or stale echo:
	// acknowledge it and do nothing else.
	DecisionDrop
	// DecisionTerminal means the message is a cancel/completion signal:
	// acknowledge it and clean the user out of the queue, but never pair.
	DecisionTerminal
)

type trackedStatus struct {
	status    models.SearchStatus
	acked     bool
	createdAt time.Time
}

// StatusTracker absorbs redelivered and stale messages from the at-least-once
// request stream. Requests are re-published on purpose with the same user id
// and created_at but an advancing current_time, so presence in the stream
// says nothing by itself; the tracker is what makes processing effectively
// idempotent.
//
// The tracker is owned by the single consumer goroutine and is deliberately
// unsynchronized. Nothing else may touch it.
type StatusTracker struct {
	tracked    map[string]*trackedStatus
	tombstones map[string]time.Time
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		tracked:    make(map[string]*trackedStatus),
		tombstones: make(map[string]time.Time),
	}
}

// Evaluate classifies one incoming message. The rules run in a fixed order;
// reordering them reintroduces the duplicate-requeue deadlocks this type
// exists to prevent.
func (t *StatusTracker) Evaluate(req *models.MatchRequest) Decision {
	userID := req.UserID

	// Terminal signals tombstone the tracked search instance so its
	// straggling retries can be recognized and dropped later.
	if req.Terminal() {
		if entry, ok := t.tracked[userID]; ok {
			t.tombstones[userID] = entry.createdAt
			entry.acked = true
			entry.status = req.Status
		}
		return DecisionTerminal
	}

	if tombstoned, ok := t.tombstones[userID]; ok {
		if tombstoned.Equal(req.CreatedAt) {
			// Stale predecessor of a search that already ended.
			return DecisionDrop
		}
		// The created_at changed: this user started a new search.
		delete(t.tombstones, userID)
		delete(t.tracked, userID)
	}

	if entry, ok := t.tracked[userID]; ok {
		if entry.acked {
			if entry.createdAt.Equal(req.CreatedAt) {
				// Matched by a concurrent pairing attempt since
				// this message was published.
				return DecisionDrop
			}
			// A new search after a completed one resets the entry.
			entry.acked = false
		}
		if !entry.createdAt.Equal(req.CreatedAt) {
			// A restart without an explicit cancel; the newer
			// created_at wins.
			entry.createdAt = req.CreatedAt
		}
		entry.status = req.Status
		return DecisionProcess
	}

	t.tracked[userID] = &trackedStatus{
		status:    req.Status,
		acked:     false,
		createdAt: req.CreatedAt,
	}
	return DecisionProcess
}

// Acked reports whether the user's current search already reached a terminal
// outcome. Used as the pairing status guard.
func (t *StatusTracker) Acked(userID string) bool {
	entry, ok := t.tracked[userID]
	return ok && entry.acked
}

// MarkMatched records a committed match for the user, so any in-flight
// duplicates of their request get dropped on arrival.
func (t *StatusTracker) MarkMatched(userID string) {
	if entry, ok := t.tracked[userID]; ok {
		entry.acked = true
		entry.status = models.SearchComplete
		return
	}
	// Candidate popped from the queue without a live entry (e.g. after a
	// consumer restart): synthesize one so the ack still sticks.
	t.tracked[userID] = &trackedStatus{
		status: models.SearchComplete,
		acked:  true,
	}
}

// Retire ends the user's search after a timeout: the search instance is
// tombstoned so late retries are dropped, and the entry is released.
func (t *StatusTracker) Retire(userID string) {
	if entry, ok := t.tracked[userID]; ok {
		t.tombstones[userID] = entry.createdAt
		delete(t.tracked, userID)
	}
}

// TrackedCount is exposed for observability.
func (t *StatusTracker) TrackedCount() int {
	return len(t.tracked)
}

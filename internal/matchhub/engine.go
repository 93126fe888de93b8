package matchhub

import (
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/internal/storage"
	"linguamatch/backend/pkg/logger"

	"github.com/google/uuid"
)

// Engine owns the pairing algorithm: it pops candidates off the wait queue,
// compares criteria and either commits exactly one match or puts the
// candidates back for a later attempt.
type Engine struct {
	Storage  storage.Storage
	Tracker  *StatusTracker
	Notifier Notifier
	RoomTTL  time.Duration
}

func NewEngine(s storage.Storage, tracker *StatusTracker, notifier Notifier, roomTTL time.Duration) *Engine {
	return &Engine{
		Storage:  s,
		Tracker:  tracker,
		Notifier: notifier,
		RoomTTL:  roomTTL,
	}
}

// TryMatch runs one pairing attempt for the given request. It returns true
// when a match was committed (the requester may or may not be part of it).
// A false return with a nil error means "no match yet": the caller is
// expected to schedule a redelivery.
func (e *Engine) TryMatch(req *models.MatchRequest) (bool, error) {
	// Admit the requester to the queue with their current (possibly
	// relaxed) criteria. Enqueue deduplicates, so retries never grow the
	// queue.
	if err := e.Storage.EnqueueSearcher(req.UserID, req.Criteria); err != nil {
		return false, err
	}
	if err := e.Storage.SetSearching(req.UserID); err != nil {
		logger.Warn("Failed to set searching flag", "user_id", req.UserID, "error", err)
	}

	user1, user2, err := e.Storage.DequeueCandidatePair()
	if err != nil {
		return false, err
	}
	if user1 == "" {
		// Fewer than two waiting; the requester stays queued.
		return false, nil
	}

	// Self-match guard: duplicate slots for one user should be impossible
	// with the deduplicating enqueue, but a stale queue from before a
	// restart can still contain them. Keep one occurrence and bail out;
	// the redelivery cycle re-attempts.
	if user1 == user2 {
		logger.Warn("Duplicate queue slots for one user", "user_id", user1)
		e.requeue(user1)
		return false, nil
	}

	// Status guard: never pair a candidate whose search already reached a
	// terminal outcome through another message.
	acked1, acked2 := e.Tracker.Acked(user1), e.Tracker.Acked(user2)
	if acked1 || acked2 {
		if !acked1 {
			e.requeue(user1)
		}
		if !acked2 {
			e.requeue(user2)
		}
		logger.Debug("Pairing rejected by status guard", "user1", user1, "user2", user2)
		return false, nil
	}

	criteria1, err := e.Storage.GetCriteria(user1)
	if err != nil {
		e.requeue(user1)
		e.requeue(user2)
		return false, err
	}
	criteria2, err := e.Storage.GetCriteria(user2)
	if err != nil {
		e.requeue(user1)
		e.requeue(user2)
		return false, err
	}

	if !criteria1.Matches(criteria2) {
		// Mismatch only: both stay eligible, back of the queue.
		e.requeue(user1)
		e.requeue(user2)
		return false, nil
	}

	if err := e.commit(user1, user2); err != nil {
		return false, err
	}
	return true, nil
}

// commit creates the room, clears both users out of the waiting structures
// and signals the notifier. This is the only place a match outcome is
// recorded.
func (e *Engine) commit(user1, user2 string) error {
	now := time.Now()
	room := &models.ChatRoom{
		RoomID:    uuid.New().String(),
		User1ID:   user1,
		User2ID:   user2,
		IsActive:  true,
		StartedAt: now,
		ExpiresAt: now.Add(e.RoomTTL),
	}

	if err := e.Storage.SaveRoom(room, e.RoomTTL); err != nil {
		// Nothing committed; both candidates go back for a retry.
		e.requeue(user1)
		e.requeue(user2)
		return err
	}

	for _, userID := range []string{user1, user2} {
		if err := e.Storage.RemoveSearcher(userID); err != nil {
			logger.Error("Failed to remove matched user from queue", "user_id", userID, "error", err)
		}
		if err := e.Storage.ClearSearching(userID); err != nil {
			logger.Warn("Failed to clear searching flag", "user_id", userID, "error", err)
		}
		e.Tracker.MarkMatched(userID)
	}

	if err := e.Notifier.NotifyMatch(room); err != nil {
		// Fire-and-forget boundary: the match stands even if the
		// notification fails.
		logger.Error("Failed to notify matched pair", "room_id", room.RoomID, "error", err)
	}

	logger.Info("Match committed", "room_id", room.RoomID, "user1", user1, "user2", user2)
	return nil
}

// requeue puts a popped candidate back. The criteria store is never written
// here; a failed pairing attempt must not change what the user asked for.
func (e *Engine) requeue(userID string) {
	if err := e.Storage.RequeueSearcher(userID); err != nil {
		logger.Error("Failed to requeue user", "user_id", userID, "error", err)
	}
}

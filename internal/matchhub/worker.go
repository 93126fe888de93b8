package matchhub

import (
	"context"
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/internal/storage"
	"linguamatch/backend/pkg/logger"
)

// Worker is the single consumer of the request stream. It processes one
// message at a time to completion, which is what lets the wait queue and the
// status tracker go without locks: no two pairing attempts ever run
// concurrently against the same queue.
type Worker struct {
	Source    RequestSource
	Tracker   *StatusTracker
	Engine    *Engine
	Scheduler *RedeliveryScheduler
	Storage   storage.Storage
	Notifier  Notifier

	MaxWaitWindow time.Duration

	// Overridable for tests.
	Now func() time.Time
}

func NewWorker(src RequestSource, tracker *StatusTracker, engine *Engine,
	scheduler *RedeliveryScheduler, s storage.Storage, notifier Notifier,
	maxWaitWindow time.Duration) *Worker {
	return &Worker{
		Source:        src,
		Tracker:       tracker,
		Engine:        engine,
		Scheduler:     scheduler,
		Storage:       s,
		Notifier:      notifier,
		MaxWaitWindow: maxWaitWindow,
		Now:           time.Now,
	}
}

// Run consumes until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	logger.Info("Match worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Match worker stopping")
			return
		default:
		}

		deliveries, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to fetch from request stream", "error", err)
			time.Sleep(time.Second)
			continue
		}
		for i := range deliveries {
			w.Handle(&deliveries[i])
		}
	}
}

// Handle processes a single delivery end to end and always acknowledges it:
// every failure mode degrades to "retry later" or "expire gracefully", never
// to an unacked message wedging the stream.
func (w *Worker) Handle(d *Delivery) {
	req := &d.Request

	switch w.Tracker.Evaluate(req) {
	case DecisionDrop:
		logger.Debug("Dropped duplicate or stale request",
			"user_id", req.UserID, "status", req.Status)
		w.ack(d)
		return
	case DecisionTerminal:
		w.retire(req.UserID)
		logger.Info("Search ended by terminal message",
			"user_id", req.UserID, "status", req.Status)
		w.ack(d)
		return
	}

	// Global wait budget, measured on the message's own clock so the
	// check is deterministic across redeliveries.
	if req.CurrentTime.Sub(req.CreatedAt) > w.MaxWaitWindow {
		w.expire(req)
		w.ack(d)
		return
	}

	matched, err := w.Engine.TryMatch(req)
	if err != nil {
		// Transient infra trouble: the redelivery below retries it.
		logger.Error("Pairing attempt failed", "user_id", req.UserID, "error", err)
	}
	if !matched {
		w.Scheduler.Reschedule(req)
	}
	w.ack(d)
}

// retire clears a user out of the waiting structures after a cancel or
// completion signal.
func (w *Worker) retire(userID string) {
	if err := w.Storage.RemoveSearcher(userID); err != nil {
		logger.Error("Failed to remove user from queue", "user_id", userID, "error", err)
	}
	if err := w.Storage.ClearSearching(userID); err != nil {
		logger.Warn("Failed to clear searching flag", "user_id", userID, "error", err)
	}
}

// expire ends a search that exhausted its wait window: the user leaves every
// structure, late retries are tombstoned, and the notifier tells them.
func (w *Worker) expire(req *models.MatchRequest) {
	w.retire(req.UserID)
	w.Tracker.Retire(req.UserID)
	if err := w.Notifier.NotifyExpired(req.UserID); err != nil {
		logger.Error("Failed to send expiry notification", "user_id", req.UserID, "error", err)
	}
	logger.Info("Search expired", "user_id", req.UserID,
		"waited", req.CurrentTime.Sub(req.CreatedAt), "retry_count", req.RetryCount)
}

func (w *Worker) ack(d *Delivery) {
	if err := w.Source.Ack(d.ID); err != nil {
		logger.Error("Failed to ack delivery", "id", d.ID, "error", err)
	}
}

package matchhub

import (
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/pkg/logger"
)

// Publisher re-injects a request into the inbound stream for a later
// evaluation round.
type Publisher interface {
	Publish(req *models.MatchRequest) error
}

// RelaxationPolicy holds the retry-count thresholds at which a search's
// criteria are widened. Each stage only ever moves criteria toward "anyone",
// never back.
type RelaxationPolicy struct {
	DatingAfter  int
	TopicAfter   int
	FluencyAfter int
}

// RedeliveryScheduler republishes still-unmatched requests after a fixed
// grace period, carrying forward retry counters and relaxed criteria.
type RedeliveryScheduler struct {
	Publisher      Publisher
	ProactiveDelay time.Duration
	Policy         RelaxationPolicy

	// Overridable for tests.
	Sleep func(time.Duration)
	Now   func() time.Time
}

func NewRedeliveryScheduler(pub Publisher, proactiveDelay time.Duration, policy RelaxationPolicy) *RedeliveryScheduler {
	return &RedeliveryScheduler{
		Publisher:      pub,
		ProactiveDelay: proactiveDelay,
		Policy:         policy,
		Sleep:          time.Sleep,
		Now:            time.Now,
	}
}

// Reschedule throttles, relaxes and republishes. The returned request is the
// message that went out (useful for tests). Republish failures are logged and
// swallowed: blocking the consumer on a broken channel would only grow the
// backlog, so the search stalls until the user acts again.
func (s *RedeliveryScheduler) Reschedule(req *models.MatchRequest) *models.MatchRequest {
	// Proactive-delay gating: messages that came back too quickly sleep
	// out the remainder, throttling tight republish loops.
	if elapsed := s.Now().Sub(req.CurrentTime); elapsed < s.ProactiveDelay {
		s.Sleep(s.ProactiveDelay - elapsed)
	}

	next := *req
	next.Criteria = req.Criteria.Clone()
	next.RetryCount++
	next.CurrentTime = s.Now()
	next.Status = models.SearchStarted
	s.relax(&next)

	if err := s.Publisher.Publish(&next); err != nil {
		logger.Error("Failed to republish match request",
			"user_id", next.UserID, "retry_count", next.RetryCount, "error", err)
	}
	return &next
}

// relax applies the staged criteria widening. The >= comparisons make each
// stage idempotent across redeliveries, and every stage only writes wider
// values, so the ratchet cannot re-tighten within one search.
func (s *RedeliveryScheduler) relax(req *models.MatchRequest) {
	before := req.Criteria.Clone()

	if req.RetryCount >= s.Policy.DatingAfter {
		req.Criteria.RelaxDating()
	}
	if req.RetryCount >= s.Policy.TopicAfter {
		req.Criteria.RelaxTopic()
	}
	if req.RetryCount == s.Policy.FluencyAfter {
		// Fluency drops a single level, exactly once; retry counts
		// advance by one per cycle so the equality fires reliably.
		req.Criteria.RelaxFluency()
	}

	for key, value := range req.Criteria {
		if before[key] != value {
			logger.Info("Relaxed search criterion",
				"user_id", req.UserID, "criterion", key,
				"from", before[key], "to", value, "retry_count", req.RetryCount)
		}
	}
}

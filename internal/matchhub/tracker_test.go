package matchhub_test

import (
	"testing"
	"time"

	"linguamatch/backend/internal/matchhub"
	"linguamatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func startedAt(userID string, createdAt time.Time) *models.MatchRequest {
	return &models.MatchRequest{
		UserID:      userID,
		Status:      models.SearchStarted,
		CreatedAt:   createdAt,
		CurrentTime: createdAt,
	}
}

func canceledAt(userID string, createdAt time.Time) *models.MatchRequest {
	return &models.MatchRequest{
		UserID:      userID,
		Status:      models.SearchCanceled,
		CreatedAt:   createdAt,
		CurrentTime: createdAt,
	}
}

func TestTrackerFreshSearchIsProcessed(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	req := startedAt("user_A", time.Now())

	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(req))
	assert.False(t, tracker.Acked("user_A"))
	assert.Equal(t, 1, tracker.TrackedCount())
}

func TestTrackerRetryOfPendingSearchIsProcessed(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))

	retry := startedAt("user_A", created)
	retry.RetryCount = 3
	retry.CurrentTime = created.Add(10 * time.Second)
	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(retry))
}

func TestTrackerDropsDuplicateAfterMatch(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))
	tracker.MarkMatched("user_A")

	// Replaying the already-acked message any number of times changes
	// nothing.
	for i := 0; i < 5; i++ {
		assert.Equal(t, matchhub.DecisionDrop, tracker.Evaluate(startedAt("user_A", created)))
	}
	assert.True(t, tracker.Acked("user_A"))
}

func TestTrackerNewSearchAfterMatchIsProcessed(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))
	tracker.MarkMatched("user_A")

	fresh := startedAt("user_A", created.Add(time.Minute))
	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(fresh))
	assert.False(t, tracker.Acked("user_A"))
}

func TestTrackerCancellationTombstonesSearch(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))
	assert.Equal(t, matchhub.DecisionTerminal, tracker.Evaluate(canceledAt("user_A", created)))

	// A straggling retry of the canceled search instance is dropped.
	assert.Equal(t, matchhub.DecisionDrop, tracker.Evaluate(startedAt("user_A", created)))

	// A search with a fresh created_at is a new search and goes through.
	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(startedAt("user_A", created.Add(time.Second))))
}

func TestTrackerTerminalForUnknownUser(t *testing.T) {
	tracker := matchhub.NewStatusTracker()

	// Cancel arriving before any started message: still terminal, no entry
	// created.
	assert.Equal(t, matchhub.DecisionTerminal, tracker.Evaluate(canceledAt("ghost", time.Now())))
	assert.Equal(t, 0, tracker.TrackedCount())
}

func TestTrackerRetireDropsLateRetries(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))
	tracker.Retire("user_A")

	assert.Equal(t, matchhub.DecisionDrop, tracker.Evaluate(startedAt("user_A", created)))
	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(startedAt("user_A", created.Add(time.Second))))
}

func TestTrackerRestartWithoutCancelAdoptsNewSearch(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))

	// Same user starts over without canceling; the newer created_at wins
	// and the search stays pending.
	restarted := startedAt("user_A", created.Add(30*time.Second))
	assert.Equal(t, matchhub.DecisionProcess, tracker.Evaluate(restarted))
	assert.False(t, tracker.Acked("user_A"))
	assert.Equal(t, 1, tracker.TrackedCount())
}

func TestTrackerCompletionBehavesLikeCancellation(t *testing.T) {
	tracker := matchhub.NewStatusTracker()
	created := time.Now()

	tracker.Evaluate(startedAt("user_A", created))

	complete := &models.MatchRequest{
		UserID:    "user_A",
		Status:    models.SearchComplete,
		CreatedAt: created,
	}
	assert.Equal(t, matchhub.DecisionTerminal, tracker.Evaluate(complete))
	assert.Equal(t, matchhub.DecisionDrop, tracker.Evaluate(startedAt("user_A", created)))
}

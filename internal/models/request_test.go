package models_test

import (
	"testing"
	"time"

	"linguamatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRequestTerminal(t *testing.T) {
	req := &models.MatchRequest{Status: models.SearchStarted}
	assert.False(t, req.Terminal())

	req.Status = models.SearchCanceled
	assert.True(t, req.Terminal())

	req.Status = models.SearchComplete
	assert.True(t, req.Terminal())

	req.Status = models.SearchExpired
	assert.False(t, req.Terminal())
}

func TestMatchRequestWaited(t *testing.T) {
	created := time.Now()
	req := &models.MatchRequest{CreatedAt: created}
	assert.Equal(t, 90*time.Second, req.Waited(created.Add(90*time.Second)))
}

func TestMatchRequestBinaryRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	req := models.MatchRequest{
		UserID:   "user_A",
		Username: "anna",
		Criteria: models.Criteria{
			models.CriterionLanguage: "en",
			models.CriterionFluency:  "2",
		},
		Status:      models.SearchStarted,
		CreatedAt:   created,
		CurrentTime: created.Add(9 * time.Second),
		RetryCount:  3,
	}

	raw, err := req.MarshalBinary()
	require.NoError(t, err)

	var decoded models.MatchRequest
	require.NoError(t, decoded.UnmarshalBinary(raw))

	assert.Equal(t, req.UserID, decoded.UserID)
	assert.Equal(t, req.Criteria, decoded.Criteria)
	assert.Equal(t, req.Status, decoded.Status)
	assert.True(t, decoded.CreatedAt.Equal(req.CreatedAt))
	assert.True(t, decoded.CurrentTime.Equal(req.CurrentTime))
	assert.Equal(t, req.RetryCount, decoded.RetryCount)
}

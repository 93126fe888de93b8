package models_test

import (
	"testing"

	"linguamatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaMatchesSharedKeysMustAgree(t *testing.T) {
	a := models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionTopic:    "music",
	}
	b := models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionTopic:    "music",
	}
	assert.True(t, a.Matches(b))
	assert.True(t, b.Matches(a))

	b[models.CriterionTopic] = "sports"
	assert.False(t, a.Matches(b))
	assert.False(t, b.Matches(a))
}

func TestCriteriaAbsentKeyIsWildcard(t *testing.T) {
	full := models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionTopic:    "music",
		models.CriterionDating:   "true",
	}
	sparse := models.Criteria{models.CriterionLanguage: "en"}

	assert.True(t, full.Matches(sparse))
	assert.True(t, sparse.Matches(full))
	assert.True(t, models.Criteria{}.Matches(full))
}

func TestCriteriaCloneIsIndependent(t *testing.T) {
	original := models.Criteria{models.CriterionLanguage: "en"}
	copied := original.Clone()
	copied[models.CriterionLanguage] = "de"

	assert.Equal(t, "en", original[models.CriterionLanguage])
	assert.Equal(t, "de", copied[models.CriterionLanguage])
}

func TestRelaxDating(t *testing.T) {
	c := models.Criteria{models.CriterionDating: "true"}
	c.RelaxDating()
	assert.Equal(t, "false", c[models.CriterionDating])

	c.RelaxDating()
	assert.Equal(t, "false", c[models.CriterionDating])
}

func TestRelaxTopic(t *testing.T) {
	c := models.Criteria{models.CriterionTopic: "books"}
	c.RelaxTopic()
	assert.Equal(t, models.TopicAny, c[models.CriterionTopic])
}

func TestRelaxFluencyStepsDownAndStopsAtFloor(t *testing.T) {
	c := models.Criteria{models.CriterionFluency: "2"}

	c.RelaxFluency()
	assert.Equal(t, "1", c[models.CriterionFluency])

	c.RelaxFluency()
	assert.Equal(t, "0", c[models.CriterionFluency])

	c.RelaxFluency()
	assert.Equal(t, "0", c[models.CriterionFluency])
}

func TestRelaxFluencyIgnoresUnsetOrGarbage(t *testing.T) {
	c := models.Criteria{}
	c.RelaxFluency()
	_, ok := c[models.CriterionFluency]
	assert.False(t, ok)

	c = models.Criteria{models.CriterionFluency: "native"}
	c.RelaxFluency()
	assert.Equal(t, "native", c[models.CriterionFluency])
}

func TestCriteriaValid(t *testing.T) {
	assert.False(t, models.Criteria{}.Valid())
	assert.True(t, models.Criteria{models.CriterionLanguage: "en"}.Valid())
	assert.True(t, models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionFluency:  "3",
	}.Valid())
	assert.False(t, models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionFluency:  "4",
	}.Valid())
	assert.False(t, models.Criteria{
		models.CriterionLanguage: "en",
		models.CriterionFluency:  "high",
	}.Valid())
}

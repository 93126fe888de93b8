package models

import "strconv"

// Criterion keys understood by the match engine. A key absent from a user's
// criteria acts as a wildcard for that user.
const (
	CriterionLanguage = "language"
	CriterionFluency  = "fluency"
	CriterionTopic    = "topic"
	CriterionDating   = "dating"
)

// TopicAny is the generic topic every topic-relaxed search falls back to.
const TopicAny = "any"

// Fluency is an ordinal 0..3 (beginner..native), stored as a string like every
// other criterion value.
const (
	FluencyMin = 0
	FluencyMax = 3
)

// Criteria is the set of match criteria for one search. Values are plain
// strings so the set survives JSON and Redis hashes unchanged.
type Criteria map[string]string

// Matches reports whether two criteria sets are compatible for pairing:
// every key present on both sides must have an equal value.
func (c Criteria) Matches(other Criteria) bool {
	for key, value := range c {
		if otherValue, ok := other[key]; ok && otherValue != value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c Criteria) Clone() Criteria {
	copied := make(Criteria, len(c))
	for key, value := range c {
		copied[key] = value
	}
	return copied
}

// RelaxDating disables dating-exclusive matching, widening the pool.
func (c Criteria) RelaxDating() {
	c[CriterionDating] = "false"
}

// RelaxTopic falls back to the generic topic.
func (c Criteria) RelaxTopic() {
	c[CriterionTopic] = TopicAny
}

// RelaxFluency lowers the requested fluency by one level, stopping at the
// lowest one. An unset or unparsable fluency is left alone.
func (c Criteria) RelaxFluency() {
	raw, ok := c[CriterionFluency]
	if !ok {
		return
	}
	level, err := strconv.Atoi(raw)
	if err != nil || level <= FluencyMin {
		return
	}
	c[CriterionFluency] = strconv.Itoa(level - 1)
}

// Valid reports whether the required criteria are present. The API layer
// rejects requests failing this before they ever reach the queue.
func (c Criteria) Valid() bool {
	if c[CriterionLanguage] == "" {
		return false
	}
	if raw, ok := c[CriterionFluency]; ok {
		level, err := strconv.Atoi(raw)
		if err != nil || level < FluencyMin || level > FluencyMax {
			return false
		}
	}
	return true
}

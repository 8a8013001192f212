package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswerFencedJSON(t *testing.T) {
	value, conf, reported := parseAnswer("```json\n{\"value\": \"Community Voice\", \"confidence\": 0.8}\n```")
	assert.Equal(t, "Community Voice", value)
	assert.InDelta(t, 0.8, conf, 0.001)
	assert.True(t, reported)
}

func TestParseAnswerPlainTextFallback(t *testing.T) {
	value, _, reported := parseAnswer("The title is probably Community Voice")
	assert.Equal(t, "The title is probably Community Voice", value)
	assert.False(t, reported)
}

func TestParseAnswerNumericValue(t *testing.T) {
	value, _, _ := parseAnswer(`{"value": 1986}`)
	assert.Equal(t, "1986", value)
}

func TestParseAnswerOutOfRangeConfidenceDiscarded(t *testing.T) {
	_, _, reported := parseAnswer(`{"value": "x", "confidence": 7.5}`)
	assert.False(t, reported)
}

func TestIsEmptyAnswer(t *testing.T) {
	assert.True(t, isEmptyAnswer(""))
	assert.True(t, isEmptyAnswer("  None "))
	assert.True(t, isEmptyAnswer("not found"))
	assert.False(t, isEmptyAnswer("Volume 3"))
	// A bare "No" is an odd answer, not a refusal.
	assert.False(t, isEmptyAnswer("No"))
}

func TestDeriveConfidenceVolume(t *testing.T) {
	got := deriveConfidence("volume_issue", "Volume 3, Issue 1", "masthead Volume 3, Issue 1 text")
	assert.InDelta(t, 1.0, got, 0.001)

	got = deriveConfidence("volume_issue", "3/1", "masthead text")
	assert.InDelta(t, 0.5, got, 0.001)
}

func TestDeriveConfidenceDescription(t *testing.T) {
	long := "A newsletter issue covering local events. It includes meeting notes. Also member updates."
	got := deriveConfidence("description", long, "")
	assert.InDelta(t, 0.9, got, 0.001)
}

package provider

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theimaginaryfoundation/chat-insight/analysis"
	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

var _ analysis.SentimentScorer = (*SentimentScorer)(nil)

func TestGenerateSchema_Strict(t *testing.T) {
	t.Parallel()
	s := GenerateSchema[sentimentResponse]()

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, false, s["additionalProperties"])

	// Declaration order of sentimentResponse.
	assert.Equal(t, []any{"compound", "pos", "neg", "neu"}, s["required"])

	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 4)
}

type sentimentBatch struct {
	Label  string              `json:"label"`
	Scores []sentimentResponse `json:"scores"`
}

func TestGenerateSchema_ClosesNestedObjects(t *testing.T) {
	t.Parallel()
	s := GenerateSchema[sentimentBatch]()
	assert.Equal(t, []any{"label", "scores"}, s["required"])

	props := s["properties"].(map[string]any)
	scores := props["scores"].(map[string]any)
	assert.Equal(t, "array", scores["type"])
	items, ok := scores["items"].(map[string]any)
	require.True(t, ok, "items=%T", scores["items"])
	assert.Equal(t, false, items["additionalProperties"])
	assert.Equal(t, []any{"compound", "pos", "neg", "neu"}, items["required"])
}

func TestNewSentimentScorer(t *testing.T) {
	t.Parallel()
	_, err := NewSentimentScorer("  ")
	require.Error(t, err)

	s, err := NewSentimentScorer("sk-test", WithModel("gpt-test"), WithMaxInputChars(10))
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", s.Model())
	assert.Equal(t, 10, s.maxInputChars)

	s, err = NewSentimentScorer("sk-test", WithModel(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.Model())
}

func TestSentimentResponseScoresClamped(t *testing.T) {
	t.Parallel()
	got := sentimentResponse{Compound: 1.7, Positive: -0.2, Negative: 0.3, Neutral: math.NaN()}.scores()
	assert.Equal(t, transcript.SentimentScores{Compound: 1, Positive: 0, Negative: 0.3, Neutral: 0}, got)
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 65*time.Second, retryDelay(errors.New("429 Too Many Requests"), 0))
	assert.Equal(t, 30*time.Second, retryDelay(errors.New("500 Internal Server Error"), 1))
	assert.Zero(t, retryDelay(errors.New("401 invalid api key"), 0))
}

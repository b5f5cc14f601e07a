package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

var topicCorpus = []string{
	"pizza pasta dinner tonight",
	"pizza dinner with friends",
	"football match tonight stadium",
	"football stadium tickets match",
	"pasta recipe dinner",
	"match tickets football",
	"recipe pasta pizza",
	"stadium football tonight",
}

func TestVectorize(t *testing.T) {
	t.Parallel()
	m, err := Vectorize(context.Background(),
		[]string{"The apple banana", "apple cherry", "apple banana durian"},
		DefaultVectorizerOptions())
	require.NoError(t, err)
	// apple is in every document (above max_df); cherry and durian are below min_df.
	assert.Equal(t, []string{"banana"}, m.Vocabulary)
	require.Len(t, m.Docs, 3)
	assert.Equal(t, map[int]int{0: 1}, m.Docs[0])
	assert.Empty(t, m.Docs[1])
}

func TestVectorize_Degenerate(t *testing.T) {
	t.Parallel()
	_, err := Vectorize(context.Background(), []string{"only one document here"}, DefaultVectorizerOptions())
	assert.ErrorIs(t, err, ErrDegenerateCorpus)

	_, err = Vectorize(context.Background(), []string{"alpha", "beta", "gamma"}, DefaultVectorizerOptions())
	assert.ErrorIs(t, err, ErrDegenerateCorpus)
}

func TestTokenize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"café", "au", "lait_2"}, Tokenize("Café au lait_2 a !"))
	assert.Equal(t, Tokenize("caf\u00e9"), Tokenize("CAFE\u0301"))
}

func TestExtractTopics_TooFewDocuments(t *testing.T) {
	t.Parallel()
	tm := NewTopicModeler()
	for _, texts := range [][]string{nil, {"just one message about pizza"}} {
		topics, err := tm.ExtractTopics(context.Background(), texts, 3)
		require.Error(t, err)
		assert.Equal(t, PlaceholderTopics(), topics)
	}
}

func TestExtractTopics_Deterministic(t *testing.T) {
	t.Parallel()
	tm := NewTopicModeler()
	first, err := tm.ExtractTopics(context.Background(), topicCorpus, 3)
	require.NoError(t, err)
	second, err := tm.ExtractTopics(context.Background(), topicCorpus, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	for i, topic := range first {
		assert.Equal(t, []string{"Topic 1", "Topic 2", "Topic 3"}[i], topic.Label)
		assert.NotEmpty(t, topic.Terms)
		assert.LessOrEqual(t, len(topic.Terms), DefaultTopTerms)
	}
}

type failingFitter struct{}

func (failingFitter) Fit(context.Context, DocTermMatrix, int) ([][]float64, error) {
	return nil, errors.New("did not converge")
}

func TestTopicAnalyze_FitterFailure(t *testing.T) {
	t.Parallel()
	tm := NewTopicModeler()
	tm.Fitter = failingFitter{}
	var raw string
	for _, text := range topicCorpus {
		raw += "1/1/24, 10:00 - Alice: " + text + "\n"
	}

	res := tm.Analyze(context.Background(), transcript.Parse(raw))
	assert.True(t, res.Degraded())
	assert.Equal(t, PlaceholderTopics(), res.Value)
	assert.ErrorIs(t, res.Diagnostics[0], transcript.ErrAnalyzerRuntime)
}

func TestTopicAnalyze_Placeholder(t *testing.T) {
	t.Parallel()
	res := NewTopicModeler().Analyze(context.Background(), transcript.Parse(aliceBob))
	assert.True(t, res.Degraded())
	assert.Equal(t, []Topic{{Label: "Topic 1", Terms: []string{PlaceholderTerm}}}, res.Value)
}

func TestTopTerms_TiesKeepVocabularyOrder(t *testing.T) {
	t.Parallel()
	got := topTerms([]float64{0.5, 0.5, 0.9, 0.1}, []string{"a", "b", "c", "d"}, 3)
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestGibbsLDA_RowsAreDistributions(t *testing.T) {
	t.Parallel()
	m, err := Vectorize(context.Background(), topicCorpus, DefaultVectorizerOptions())
	require.NoError(t, err)

	weights, err := NewGibbsLDA().Fit(context.Background(), m, 2)
	require.NoError(t, err)
	require.Len(t, weights, 2)
	for _, row := range weights {
		require.Len(t, row, m.NumTerms())
		var sum float64
		for _, w := range row {
			assert.Greater(t, w, 0.0)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	_, err = NewGibbsLDA().Fit(context.Background(), m, 0)
	assert.Error(t, err)
}

func TestGibbsLDA_Cancelled(t *testing.T) {
	t.Parallel()
	m, err := Vectorize(context.Background(), topicCorpus, DefaultVectorizerOptions())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewGibbsLDA().Fit(ctx, m, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStopWordSet(t *testing.T) {
	t.Parallel()
	set := StopWordSet(" Pizza ")
	assert.Contains(t, set, "the")
	assert.Contains(t, set, "pizza")
	assert.Len(t, EnglishStopWords(), 318)
}

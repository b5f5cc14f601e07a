package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

const (
	DefaultTopicCount = 3
	DefaultTopTerms   = 9

	// PlaceholderTerm fills the single topic returned when the corpus cannot be modeled.
	PlaceholderTerm = "insufficient data for topic modeling"
)

// Topic is one extracted theme.
type Topic struct {
	Label string   `json:"label"`
	Terms []string `json:"terms"`
}

// PlaceholderTopics is the output for a corpus too small or too uniform to model.
func PlaceholderTopics() []Topic {
	return []Topic{{Label: "Topic 1", Terms: []string{PlaceholderTerm}}}
}

// TopicModeler extracts topics from message texts.
type TopicModeler struct {
	Fitter     TopicFitter
	TopicCount int
	TopTerms   int
	Vectorizer VectorizerOptions
}

// NewTopicModeler returns a modeler with the seeded Gibbs sampler and default bounds.
func NewTopicModeler() *TopicModeler {
	return &TopicModeler{
		Fitter:     NewGibbsLDA(),
		TopicCount: DefaultTopicCount,
		TopTerms:   DefaultTopTerms,
		Vectorizer: DefaultVectorizerOptions(),
	}
}

// ExtractTopics fits topicCount topics (the modeler's default when <= 0) to texts. A degenerate
// corpus or a fitter failure returns PlaceholderTopics together with the cause.
func (tm *TopicModeler) ExtractTopics(ctx context.Context, texts []string, topicCount int) ([]Topic, error) {
	if tm == nil || tm.Fitter == nil {
		return PlaceholderTopics(), errors.New("ExtractTopics: no topic fitter configured")
	}
	if topicCount <= 0 {
		topicCount = tm.TopicCount
	}
	if topicCount <= 0 {
		topicCount = DefaultTopicCount
	}
	top := tm.TopTerms
	if top <= 0 {
		top = DefaultTopTerms
	}

	m, err := Vectorize(ctx, texts, tm.Vectorizer)
	if err != nil {
		return PlaceholderTopics(), fmt.Errorf("ExtractTopics: %w", err)
	}
	weights, err := tm.Fitter.Fit(ctx, m, topicCount)
	if err != nil {
		return PlaceholderTopics(), fmt.Errorf("ExtractTopics: fit: %w", err)
	}

	topics := make([]Topic, len(weights))
	for i, row := range weights {
		topics[i] = Topic{Label: fmt.Sprintf("Topic %d", i+1), Terms: topTerms(row, m.Vocabulary, top)}
	}
	return topics, nil
}

// topTerms ranks terms by descending weight; ties keep vocabulary order.
func topTerms(row []float64, vocab []string, n int) []string {
	ids := make([]int, 0, len(row))
	for id := range row {
		if id < len(vocab) {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool { return row[ids[a]] > row[ids[b]] })
	if len(ids) > n {
		ids = ids[:n]
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = vocab[id]
	}
	return out
}

// Analyze models every message text of store.
func (tm *TopicModeler) Analyze(ctx context.Context, store *transcript.Store) (res Result[[]Topic]) {
	defer func() {
		if v := recover(); v != nil {
			res = degradedResult(PassTopics, PlaceholderTopics(), recovered(PassTopics, v))
		}
	}()

	topicCount := 0
	if tm != nil {
		topicCount = tm.TopicCount
	}
	topics, err := tm.ExtractTopics(ctx, store.Texts(), topicCount)
	if err == nil {
		return okResult(PassTopics, topics)
	}
	if cerr := ctxErr(ctx); cerr != nil {
		return degradedResult(PassTopics, PlaceholderTopics(), interrupted(PassTopics, cerr))
	}
	return degradedResult(PassTopics, PlaceholderTopics(), runtimeFailure(PassTopics, err))
}

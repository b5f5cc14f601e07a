package analysis

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// SentimentScorer produces VADER-shaped polarity scores for a text.
type SentimentScorer interface {
	PolarityScores(ctx context.Context, text string) (transcript.SentimentScores, error)
}

// VaderScorer is the rule-based lexicon scorer (negation, boosters, punctuation and caps emphasis).
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the bundled VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) PolarityScores(_ context.Context, text string) (transcript.SentimentScores, error) {
	if v == nil || v.analyzer == nil {
		return transcript.SentimentScores{}, errors.New("VaderScorer: lexicon not loaded")
	}
	s := v.analyzer.PolarityScores(text)
	return transcript.SentimentScores{
		Compound: s.Compound,
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
	}, nil
}

// LabelFor maps a compound score onto a label.
func LabelFor(compound float64) transcript.SentimentLabel {
	switch {
	case compound > PositiveThreshold:
		return transcript.SentimentPositive
	case compound < NegativeThreshold:
		return transcript.SentimentNegative
	default:
		return transcript.SentimentNeutral
	}
}

// Sentiment is the classification of one text.
type Sentiment struct {
	Label  transcript.SentimentLabel  `json:"label"`
	Scores transcript.SentimentScores `json:"scores"`
}

var neutralSentiment = Sentiment{Label: transcript.SentimentNeutral}

// SentimentRow is the sentiment of one message.
type SentimentRow struct {
	Index  int                        `json:"index"`
	Sender string                     `json:"sender"`
	Label  transcript.SentimentLabel  `json:"label"`
	Scores transcript.SentimentScores `json:"scores"`
}

// SenderSentiment summarizes the labels of one sender.
type SenderSentiment struct {
	Sender       string  `json:"sender"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	MeanCompound float64 `json:"mean_compound"`
}

// SentimentReport is the output of the sentiment pass.
type SentimentReport struct {
	Messages []SentimentRow    `json:"messages"`
	Senders  []SenderSentiment `json:"senders"`
}

// SentimentClassifier labels messages with a pluggable scorer.
type SentimentClassifier struct {
	scorer  SentimentScorer
	initErr error
}

// NewSentimentClassifier wraps scorer. A nil scorer or a non-nil initErr makes the classifier
// unavailable: every message is then labelled neutral.
func NewSentimentClassifier(scorer SentimentScorer, initErr error) *SentimentClassifier {
	if scorer == nil && initErr == nil {
		initErr = errors.New("no sentiment scorer configured")
	}
	return &SentimentClassifier{scorer: scorer, initErr: initErr}
}

// Available reports whether a scorer is usable.
func (c *SentimentClassifier) Available() bool {
	return c != nil && c.initErr == nil && c.scorer != nil
}

// Classify scores text. Blank text and an unavailable classifier yield neutral with zero scores.
func (c *SentimentClassifier) Classify(ctx context.Context, text string) (Sentiment, error) {
	if !c.Available() || strings.TrimSpace(text) == "" {
		return neutralSentiment, nil
	}
	scores, err := c.scorer.PolarityScores(ctx, text)
	if err != nil {
		return neutralSentiment, err
	}
	return Sentiment{Label: LabelFor(scores.Compound), Scores: scores}, nil
}

// ClassifyValue scores v when it is a string; anything else is neutral with zero scores.
func (c *SentimentClassifier) ClassifyValue(ctx context.Context, v any) (Sentiment, error) {
	switch s := v.(type) {
	case string:
		return c.Classify(ctx, s)
	case *string:
		if s == nil {
			return neutralSentiment, nil
		}
		return c.Classify(ctx, *s)
	default:
		return neutralSentiment, nil
	}
}

// Analyze classifies every message of store and attaches the sentiment slot.
func (c *SentimentClassifier) Analyze(ctx context.Context, store *transcript.Store) Result[SentimentReport] {
	if !c.Available() {
		err := errors.New("no sentiment scorer configured")
		if c != nil && c.initErr != nil {
			err = c.initErr
		}
		d := transcript.NewDiagnostic(transcript.KindAnalyzerUnavailable, PassSentiment, "%v", err)
		return degradedResult(PassSentiment, allNeutral(store), d)
	}

	msgs := store.Messages()
	rows := make([]SentimentRow, len(msgs))
	var (
		failures int
		firstErr error
	)
	for i, m := range msgs {
		if err := ctxErr(ctx); err != nil {
			return degradedResult(PassSentiment, allNeutral(store), interrupted(PassSentiment, err))
		}
		s, err := c.Classify(ctx, m.Text)
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
		}
		rows[i] = SentimentRow{Index: m.Index, Sender: m.Sender, Label: s.Label, Scores: s.Scores}
	}

	report := SentimentReport{Messages: rows, Senders: summarizeSentiment(rows)}
	attachSentiment(store, rows)
	if failures > 0 {
		d := runtimeFailure(PassSentiment, firstErr)
		d.Count = failures
		return degradedResult(PassSentiment, report, d)
	}
	return okResult(PassSentiment, report)
}

func allNeutral(store *transcript.Store) SentimentReport {
	r := neutralReport(store)
	attachSentiment(store, r.Messages)
	return r
}

// neutralReport labels every message neutral without touching the store.
func neutralReport(store *transcript.Store) SentimentReport {
	msgs := store.Messages()
	rows := make([]SentimentRow, len(msgs))
	for i, m := range msgs {
		rows[i] = SentimentRow{Index: m.Index, Sender: m.Sender, Label: transcript.SentimentNeutral}
	}
	return SentimentReport{Messages: rows, Senders: summarizeSentiment(rows)}
}

func attachSentiment(store *transcript.Store, rows []SentimentRow) {
	labels := make([]transcript.SentimentLabel, len(rows))
	scores := make([]transcript.SentimentScores, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		scores[i] = r.Scores
	}
	// Lengths come from the same store, so this cannot fail.
	_ = store.AttachSentiment(labels, scores)
}

func summarizeSentiment(rows []SentimentRow) []SenderSentiment {
	bySender := make(map[string]*SenderSentiment)
	sums := make(map[string]float64)
	for _, r := range rows {
		s, ok := bySender[r.Sender]
		if !ok {
			s = &SenderSentiment{Sender: r.Sender}
			bySender[r.Sender] = s
		}
		switch r.Label {
		case transcript.SentimentPositive:
			s.Positive++
		case transcript.SentimentNegative:
			s.Negative++
		default:
			s.Neutral++
		}
		sums[r.Sender] += r.Scores.Compound
	}

	out := make([]SenderSentiment, 0, len(bySender))
	for sender, s := range bySender {
		n := s.Positive + s.Negative + s.Neutral
		s.MeanCompound = sums[sender] / float64(n)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sender < out[j].Sender })
	return out
}

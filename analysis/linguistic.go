package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// TokenTagger tokenizes text and tags each token with its part of speech.
type TokenTagger interface {
	TagText(text string) ([]transcript.TaggedToken, error)
}

// ProseTagger uses prose's Treebank tokenizer and averaged-perceptron tagger (English model
// bundled with the library). The model is decoded once and shared by every call.
type ProseTagger struct {
	once  sync.Once
	model *prose.Model
	err   error
}

// NewProseTagger returns a tagger that loads its model on first use.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

func (t *ProseTagger) load() (*prose.Model, error) {
	t.once.Do(func() {
		doc, err := prose.NewDocument("",
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			t.err = fmt.Errorf("ProseTagger: load model: %w", err)
			return
		}
		t.model = doc.Model
	})
	return t.model, t.err
}

func (t *ProseTagger) TagText(text string) ([]transcript.TaggedToken, error) {
	model, err := t.load()
	if err != nil {
		return nil, err
	}
	doc, err := prose.NewDocument(text,
		prose.UsingModel(model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("ProseTagger.TagText: %w", err)
	}
	toks := doc.Tokens()
	out := make([]transcript.TaggedToken, len(toks))
	for i, tok := range toks {
		out[i] = transcript.TaggedToken{Token: tok.Text, Tag: tok.Tag}
	}
	return out, nil
}

// WordCount counts whitespace-separated words, independent of the tagger's tokenization.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// LinguisticRow is the linguistic profile of one message.
type LinguisticRow struct {
	Index     int                      `json:"index"`
	Sender    string                   `json:"sender"`
	Text      string                   `json:"text"`
	WordCount int                      `json:"word_count"`
	Tags      []transcript.TaggedToken `json:"tags"`
}

// LinguisticAnalyzer attaches word counts and part-of-speech tags.
type LinguisticAnalyzer struct {
	Tagger TokenTagger
}

// NewLinguisticAnalyzer returns an analyzer backed by ProseTagger.
func NewLinguisticAnalyzer() *LinguisticAnalyzer {
	return &LinguisticAnalyzer{Tagger: NewProseTagger()}
}

// Analyze tags every message. Any tagger failure empties the whole result and attaches nothing.
func (la *LinguisticAnalyzer) Analyze(ctx context.Context, store *transcript.Store) (res Result[[]LinguisticRow]) {
	defer func() {
		if v := recover(); v != nil {
			res = degradedResult(PassLinguistic, []LinguisticRow{}, recovered(PassLinguistic, v))
		}
	}()

	if la == nil || la.Tagger == nil {
		d := transcript.NewDiagnostic(transcript.KindAnalyzerUnavailable, PassLinguistic, "%v",
			errors.New("no tagger configured"))
		return degradedResult(PassLinguistic, []LinguisticRow{}, d)
	}

	msgs := store.Messages()
	rows := make([]LinguisticRow, len(msgs))
	counts := make([]int, len(msgs))
	tags := make([][]transcript.TaggedToken, len(msgs))
	for i, m := range msgs {
		if err := ctxErr(ctx); err != nil {
			return degradedResult(PassLinguistic, []LinguisticRow{}, interrupted(PassLinguistic, err))
		}
		tt, err := la.Tagger.TagText(m.Text)
		if err != nil {
			return degradedResult(PassLinguistic, []LinguisticRow{},
				runtimeFailure(PassLinguistic, fmt.Errorf("message %d: %w", m.Index, err)))
		}
		if tt == nil {
			tt = []transcript.TaggedToken{}
		}
		counts[i] = WordCount(m.Text)
		tags[i] = tt
		rows[i] = LinguisticRow{Index: m.Index, Sender: m.Sender, Text: m.Text, WordCount: counts[i], Tags: tt}
	}

	if err := store.AttachWordCounts(counts); err != nil {
		return degradedResult(PassLinguistic, []LinguisticRow{}, runtimeFailure(PassLinguistic, err))
	}
	if err := store.AttachPOSTags(tags); err != nil {
		return degradedResult(PassLinguistic, []LinguisticRow{}, runtimeFailure(PassLinguistic, err))
	}
	return okResult(PassLinguistic, rows)
}

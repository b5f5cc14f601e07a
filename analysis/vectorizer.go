package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrDegenerateCorpus means the document-frequency bounds leave nothing to model.
var ErrDegenerateCorpus = errors.New("degenerate corpus")

// Runs of two or more letters, digits or underscores.
var termRegex = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorizerOptions bounds which terms enter the vocabulary.
type VectorizerOptions struct {
	// MinDF is the minimum number of documents a term must appear in.
	MinDF int
	// MaxDF is the maximum proportion of documents a term may appear in.
	MaxDF float64
	// StopWords are dropped before counting. Nil means none.
	StopWords map[string]struct{}
}

// DefaultVectorizerOptions: min_df 2 documents, max_df 95%, English stop words.
func DefaultVectorizerOptions() VectorizerOptions {
	return VectorizerOptions{MinDF: 2, MaxDF: 0.95, StopWords: EnglishStopWords()}
}

// DocTermMatrix holds sparse term counts per document. Vocabulary is sorted, so term ids follow
// alphabetical order.
type DocTermMatrix struct {
	Vocabulary []string
	// Docs[d] maps term id to count; documents left empty after pruning are kept as empty maps.
	Docs []map[int]int
}

// NumTerms is the vocabulary size.
func (m DocTermMatrix) NumTerms() int { return len(m.Vocabulary) }

// Tokenize lowercases text, composes it to NFC and returns its terms.
func Tokenize(text string) []string {
	return termRegex.FindAllString(norm.NFC.String(strings.ToLower(text)), -1)
}

// Vectorize builds the document-term matrix for docs.
func Vectorize(ctx context.Context, docs []string, opts VectorizerOptions) (DocTermMatrix, error) {
	n := len(docs)
	maxDocs := opts.MaxDF * float64(n)
	if maxDocs < float64(opts.MinDF) {
		return DocTermMatrix{}, fmt.Errorf("Vectorize: max_df %.2f of %d documents is below min_df %d: %w",
			opts.MaxDF, n, opts.MinDF, ErrDegenerateCorpus)
	}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	for i, doc := range docs {
		if err := ctxErr(ctx); err != nil {
			return DocTermMatrix{}, err
		}
		c := make(map[string]int)
		for _, tok := range Tokenize(doc) {
			if _, stop := opts.StopWords[tok]; stop {
				continue
			}
			c[tok]++
		}
		for tok := range c {
			df[tok]++
		}
		counts[i] = c
	}

	var vocab []string
	for tok, d := range df {
		if d < opts.MinDF || float64(d) > maxDocs {
			continue
		}
		vocab = append(vocab, tok)
	}
	if len(vocab) == 0 {
		return DocTermMatrix{}, fmt.Errorf("Vectorize: no terms remain after pruning: %w", ErrDegenerateCorpus)
	}
	sort.Strings(vocab)
	ids := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		ids[tok] = i
	}

	m := DocTermMatrix{Vocabulary: vocab, Docs: make([]map[int]int, n)}
	for i, c := range counts {
		row := make(map[int]int)
		for tok, k := range c {
			if id, ok := ids[tok]; ok {
				row[id] = k
			}
		}
		m.Docs[i] = row
	}
	return m, nil
}

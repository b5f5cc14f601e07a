package analysis

import (
	_ "embed"
	"strings"
)

//go:embed stopwords_en.txt
var stopWordsEN string

// EnglishStopWords returns a fresh set of the bundled English stop words.
func EnglishStopWords() map[string]struct{} {
	set := make(map[string]struct{}, 320)
	for _, w := range strings.Split(stopWordsEN, "\n") {
		w = strings.TrimSpace(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// StopWordSet returns the English stop words plus extras (lowercased).
func StopWordSet(extras ...string) map[string]struct{} {
	set := EnglishStopWords()
	for _, w := range extras {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

package analysis

import (
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// DefaultCommonWords is the length of the most-common-words table.
const DefaultCommonWords = 20

// FrequencyEntry is one ranked term.
type FrequencyEntry struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type counter map[string]int

// ranked orders entries by count desc, then term. limit <= 0 keeps everything.
func (c counter) ranked(limit int) []FrequencyEntry {
	out := make([]FrequencyEntry, 0, len(c))
	for term, n := range c {
		out = append(out, FrequencyEntry{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MostCommonWords ranks lowercase whitespace tokens, skipping system lines, media placeholders
// and stop words. Tokens are compared in NFC so composed and decomposed spellings count together.
func MostCommonWords(store *transcript.Store, limit int, stopWords map[string]struct{}) []FrequencyEntry {
	c := counter{}
	for _, m := range store.Messages() {
		if m.IsNotification() || strings.TrimSpace(m.Text) == transcript.MediaPlaceholder {
			continue
		}
		for _, w := range strings.Fields(norm.NFC.String(strings.ToLower(m.Text))) {
			if _, stop := stopWords[w]; stop {
				continue
			}
			c[w]++
		}
	}
	return c.ranked(limit)
}

// EmojiFrequency ranks emoji grapheme clusters (skin tones, keycaps and ZWJ sequences stay whole).
// A cluster counts when it appears in the Unicode emoji list.
func EmojiFrequency(store *transcript.Store) []FrequencyEntry {
	c := counter{}
	for _, m := range store.Messages() {
		g := uniseg.NewGraphemes(m.Text)
		for g.Next() {
			if cluster := g.Str(); gomoji.ContainsEmoji(cluster) {
				c[cluster]++
			}
		}
	}
	return c.ranked(0)
}

// UserOptions lists the selections offered for a transcript: OverallSelection, then every
// human sender sorted.
func UserOptions(store *transcript.Store) []string {
	var senders []string
	for _, s := range store.Senders() {
		if s != transcript.GroupNotification {
			senders = append(senders, s)
		}
	}
	senders = dedupeStrings(senders)
	sort.Strings(senders)
	return append([]string{transcript.OverallSelection}, senders...)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

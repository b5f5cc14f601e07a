package transcript

import (
	"fmt"
	"slices"
	"sync"
)

// OverallSelection selects every sender.
const OverallSelection = "Overall"

// Store is the ordered, in-memory collection of messages produced by Parse.
//
// Core fields are written once, before the store is handed out. Each annotation slot is an
// independent column owned by one analyzer; attaching a column never touches the others.
type Store struct {
	messages    []Message
	format      Format
	valid       bool
	diagnostics []Diagnostic

	mu             sync.RWMutex
	wordCounts     []int
	messageLengths []int
	sentimentLabel []SentimentLabel
	sentimentScore []SentimentScores
	posTags        [][]TaggedToken
	responseTimes  []*float64
}

func newStore(messages []Message, format Format, valid bool, diags []Diagnostic) *Store {
	return &Store{
		messages:    messages,
		format:      format,
		valid:       valid,
		diagnostics: diags,
	}
}

// Len returns the number of messages.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.messages)
}

// Message returns a copy of message i.
func (s *Store) Message(i int) Message {
	m := s.messages[i]
	if m.Calendar != nil {
		c := *m.Calendar
		m.Calendar = &c
	}
	return m
}

// Messages returns a copy of every message in transcript order.
func (s *Store) Messages() []Message {
	out := make([]Message, s.Len())
	for i := range out {
		out[i] = s.Message(i)
	}
	return out
}

// Texts returns the message bodies in order.
func (s *Store) Texts() []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.messages[i].Text
	}
	return out
}

// Valid is false only when no timestamp in a non-empty transcript could be parsed.
func (s *Store) Valid() bool { return s.valid }

// Format returns the detected timestamp notation.
func (s *Store) Format() Format { return s.format }

// Diagnostics returns the parse diagnostics.
func (s *Store) Diagnostics() []Diagnostic {
	return slices.Clone(s.diagnostics)
}

// Senders returns distinct senders in order of first appearance.
func (s *Store) Senders() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.messages {
		if _, ok := seen[m.Sender]; ok {
			continue
		}
		seen[m.Sender] = struct{}{}
		out = append(out, m.Sender)
	}
	return out
}

// ForSender returns a store restricted to one sender. Indexes are renumbered; annotations are not
// carried over. An empty name or OverallSelection returns s itself.
func (s *Store) ForSender(name string) *Store {
	if name == "" || name == OverallSelection {
		return s
	}
	var msgs []Message
	for i := range s.messages {
		if s.messages[i].Sender != name {
			continue
		}
		m := s.Message(i)
		m.Index = len(msgs)
		msgs = append(msgs, m)
	}
	return newStore(msgs, s.format, s.valid, s.Diagnostics())
}

// HasValidTimestamps reports whether at least one message has a timestamp.
func (s *Store) HasValidTimestamps() bool {
	for _, m := range s.messages {
		if m.HasTimestamp {
			return true
		}
	}
	return false
}

func (s *Store) checkLen(slot string, n int) error {
	if n != len(s.messages) {
		return fmt.Errorf("Attach%s: column has %d values, store has %d messages", slot, n, len(s.messages))
	}
	return nil
}

// AttachWordCounts sets the word-count slot.
func (s *Store) AttachWordCounts(counts []int) error {
	if err := s.checkLen("WordCounts", len(counts)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wordCounts = slices.Clone(counts)
	return nil
}

// AttachMessageLengths sets the message-length slot.
func (s *Store) AttachMessageLengths(lengths []int) error {
	if err := s.checkLen("MessageLengths", len(lengths)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageLengths = slices.Clone(lengths)
	return nil
}

// AttachSentiment sets the sentiment label and score slots.
func (s *Store) AttachSentiment(labels []SentimentLabel, scores []SentimentScores) error {
	if err := s.checkLen("Sentiment", len(labels)); err != nil {
		return err
	}
	if err := s.checkLen("Sentiment", len(scores)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentimentLabel = slices.Clone(labels)
	s.sentimentScore = slices.Clone(scores)
	return nil
}

// AttachPOSTags sets the part-of-speech slot.
func (s *Store) AttachPOSTags(tags [][]TaggedToken) error {
	if err := s.checkLen("POSTags", len(tags)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posTags = slices.Clone(tags)
	return nil
}

// AttachResponseTimes sets the response-time slot; nil entries have no delta.
func (s *Store) AttachResponseTimes(seconds []*float64) error {
	if err := s.checkLen("ResponseTimes", len(seconds)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = slices.Clone(seconds)
	return nil
}

// Annotations merges the attached slots of message i.
func (s *Store) Annotations(i int) Annotations {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a Annotations
	if s.wordCounts != nil {
		n := s.wordCounts[i]
		a.WordCount = &n
	}
	if s.messageLengths != nil {
		n := s.messageLengths[i]
		a.MessageLength = &n
	}
	if s.sentimentLabel != nil {
		a.SentimentLabel = s.sentimentLabel[i]
		sc := s.sentimentScore[i]
		a.SentimentScores = &sc
	}
	if s.posTags != nil {
		a.POSTags = slices.Clone(s.posTags[i])
	}
	if s.responseTimes != nil && s.responseTimes[i] != nil {
		v := *s.responseTimes[i]
		a.ResponseTimeSeconds = &v
	}
	return a
}

package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

const parserComponent = "parser"

var (
	// Probe for a 12-hour prefix anywhere in the transcript: "12/31/23, 9:05 PM - ".
	// Newer exports put U+202F or U+00A0 before the meridiem.
	prefix12Regex = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4},[\s\x{00a0}\x{202f}]\d{1,2}:\d{2}[\s\x{00a0}\x{202f}](?:AM|PM|am|pm)\s-\s`)

	// 24-hour prefix: "31/12/23, 21:05 - ".
	prefix24Regex = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4},[\s\x{00a0}\x{202f}]\d{1,2}:\d{2}\s-\s`)

	// Sender is the shortest run followed by ": ".
	senderRegex = regexp.MustCompile(`(?s)^(.+?):\s(.*)$`)
)

// dateCandidate is one interpretation of the date part. Every layout in the list is tried per
// entry, so a transcript mixing 2- and 4-digit years still parses under one candidate.
type dateCandidate struct {
	order   string
	layouts []string
}

var (
	candidates24 = []dateCandidate{
		{order: "day-first", layouts: []string{"2/1/06, 15:04 -", "2/1/2006, 15:04 -"}},
		{order: "month-first", layouts: []string{"1/2/06, 15:04 -", "1/2/2006, 15:04 -"}},
	}
	candidates12 = []dateCandidate{
		{order: "day-first", layouts: []string{"2/1/06, 3:04 PM -", "2/1/2006, 3:04 PM -"}},
		{order: "month-first", layouts: []string{"1/2/06, 3:04 PM -", "1/2/2006, 3:04 PM -"}},
	}
)

// ParseFile reads and parses a transcript file.
func ParseFile(ctx context.Context, path string) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("ParseFile: ctx is nil")
	}
	if path == "" {
		return nil, errors.New("ParseFile: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ParseFile: open input: %w", err)
	}
	defer f.Close()

	store, err := ParseReader(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("ParseFile: %w", err)
	}
	return store, nil
}

// ParseReader reads all of r and parses it. Only I/O and cancellation produce errors.
func ParseReader(ctx context.Context, r io.Reader) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("ParseReader: ctx is nil")
	}
	if r == nil {
		return nil, errors.New("ParseReader: reader is nil")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ParseReader: read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(string(b)), nil
}

// Parse converts raw transcript text into a Store. It never fails: a transcript without any
// timestamp prefix yields an empty store, and unparseable timestamps are reported through
// Store.Diagnostics and Store.Valid.
//
// Message bodies are kept exactly as split, apart from trimming surrounding whitespace.
func Parse(text string) *Store {
	clock := Clock24Hour
	prefixRegex := prefix24Regex
	candidates := candidates24
	if prefix12Regex.MatchString(text) {
		clock = Clock12Hour
		prefixRegex = prefix12Regex
		candidates = candidates12
	}

	locs := prefixRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return newStore(nil, Format{Clock: clock}, true, nil)
	}

	stamps := make([]string, len(locs))
	blocks := make([]string, len(locs))
	for i, loc := range locs {
		stamps[i] = text[loc[0]:loc[1]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks[i] = text[loc[1]:end]
	}

	times, ok, order, failures := parseTimestamps(stamps, candidates)

	var diags []Diagnostic
	valid := true
	switch {
	case failures == len(stamps):
		valid = false
		order = ""
		d := NewDiagnostic(KindTotalFailure, parserComponent,
			"none of %d timestamps matched a %s date layout", len(stamps), clock)
		d.Count = failures
		diags = append(diags, d)
	case failures > 0:
		d := NewDiagnostic(KindFormatAmbiguous, parserComponent,
			"%d of %d timestamps did not match the %s %s layout", failures, len(stamps), order, clock)
		d.Count = failures
		diags = append(diags, d)
	}

	messages := make([]Message, len(blocks))
	for i, block := range blocks {
		sender, body := SplitSender(block)
		m := Message{
			Index:  i,
			Sender: sender,
			Text:   body,
		}
		if ok[i] {
			m.Timestamp = times[i]
			m.HasTimestamp = true
			cal := CalendarOf(times[i])
			m.Calendar = &cal
			m.Period = PeriodLabel(cal.Hour)
		}
		messages[i] = m
	}

	return newStore(messages, Format{Clock: clock, Order: order}, valid, diags)
}

// SplitSender splits a message block into sender and body. Blocks without a "name: " lead are
// system notifications.
func SplitSender(block string) (sender, text string) {
	if m := senderRegex.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return GroupNotification, strings.TrimSpace(block)
}

// parseTimestamps picks the first candidate that parses every stamp, or else the one with the
// fewest failures (earlier candidates win ties).
func parseTimestamps(stamps []string, candidates []dateCandidate) ([]time.Time, []bool, string, int) {
	var (
		bestTimes    []time.Time
		bestOK       []bool
		bestOrder    string
		bestFailures = -1
	)
	for _, c := range candidates {
		times := make([]time.Time, len(stamps))
		ok := make([]bool, len(stamps))
		failures := 0
		for i, s := range stamps {
			t, err := parseStamp(s, c.layouts)
			if err != nil {
				failures++
				continue
			}
			times[i] = t
			ok[i] = true
		}
		if bestFailures == -1 || failures < bestFailures {
			bestTimes, bestOK, bestOrder, bestFailures = times, ok, c.order, failures
		}
		if failures == 0 {
			break
		}
	}
	return bestTimes, bestOK, bestOrder, bestFailures
}

// parseStamp collapses every Unicode space run (U+202F and U+00A0 included) to one ASCII space
// before trying the layouts.
func parseStamp(stamp string, layouts []string) (time.Time, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(stamp), " "))
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return naive(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

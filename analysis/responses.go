package analysis

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// ResponseStats aggregates the next-message deltas that follow one sender's messages.
// Stats are nil when they are undefined (no deltas, or fewer than two for Std).
type ResponseStats struct {
	Sender string   `json:"sender"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Std    *float64 `json:"std,omitempty"`
}

// ResponseDeltas returns, for each message, the seconds until the next message in store order,
// whoever sent it. The last message and any pair missing a timestamp have no delta.
//
// This measures conversation tempo over the global sequence, not how long someone took to
// answer a specific person.
func ResponseDeltas(msgs []transcript.Message) []*float64 {
	out := make([]*float64, len(msgs))
	for i := 0; i+1 < len(msgs); i++ {
		cur, next := msgs[i], msgs[i+1]
		if !cur.HasTimestamp || !next.HasTimestamp {
			continue
		}
		d := next.Timestamp.Sub(cur.Timestamp).Seconds()
		out[i] = &d
	}
	return out
}

// AnalyzeResponsePatterns groups the global next-message deltas by the sender of the earlier
// message and attaches the response-time slot. It never panics out; failures yield an empty,
// degraded result.
func AnalyzeResponsePatterns(ctx context.Context, store *transcript.Store) (res Result[[]ResponseStats]) {
	defer func() {
		if v := recover(); v != nil {
			res = degradedResult[[]ResponseStats](PassResponses, nil, recovered(PassResponses, v))
		}
	}()

	if err := ctxErr(ctx); err != nil {
		return degradedResult[[]ResponseStats](PassResponses, nil, interrupted(PassResponses, err))
	}
	if store.Len() == 0 {
		return okResult(PassResponses, []ResponseStats{})
	}
	if !store.HasValidTimestamps() {
		return degradedResult[[]ResponseStats](PassResponses, nil,
			runtimeFailure(PassResponses, errors.New("no message has a valid timestamp")))
	}

	msgs := store.Messages()
	deltas := ResponseDeltas(msgs)
	if err := store.AttachResponseTimes(deltas); err != nil {
		return degradedResult[[]ResponseStats](PassResponses, nil, runtimeFailure(PassResponses, err))
	}

	bySender := make(map[string][]float64)
	for i, m := range msgs {
		if _, ok := bySender[m.Sender]; !ok {
			bySender[m.Sender] = nil
		}
		if deltas[i] != nil {
			bySender[m.Sender] = append(bySender[m.Sender], *deltas[i])
		}
	}

	out := make([]ResponseStats, 0, len(bySender))
	for sender, values := range bySender {
		out = append(out, responseStats(sender, values))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sender < out[j].Sender })
	return okResult(PassResponses, out)
}

func responseStats(sender string, values []float64) ResponseStats {
	rs := ResponseStats{Sender: sender, Count: len(values)}
	if len(values) == 0 {
		return rs
	}
	mean := Mean(values)
	median := Median(values)
	rs.Mean = &mean
	rs.Median = &median
	if len(values) > 1 {
		std := SampleStd(values)
		rs.Std = &std
	}
	return rs
}

// Mean of values; NaN when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median of values; NaN when empty.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := slices.Clone(values)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// SampleStd is the n-1 standard deviation; NaN for fewer than two values.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

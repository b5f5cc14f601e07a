package analysis

import (
	"context"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// Engagement row kinds.
const (
	EngagementHour   = "hour"
	EngagementSender = "sender"
)

// EngagementRow is one row of the outer join of hourly activity and per-sender message length.
// The side a key does not belong to is nil.
type EngagementRow struct {
	Kind             string   `json:"kind"`
	Key              string   `json:"key"`
	HourlyActivity   *int     `json:"hourly_activity"`
	AvgMessageLength *float64 `json:"avg_message_length"`
}

// AnalyzeEngagement counts messages per hour of day and averages message length (in runes) per
// sender, and attaches the message-length slot.
func AnalyzeEngagement(ctx context.Context, store *transcript.Store) (res Result[[]EngagementRow]) {
	defer func() {
		if v := recover(); v != nil {
			res = degradedResult(PassEngagement, []EngagementRow{}, recovered(PassEngagement, v))
		}
	}()

	msgs := store.Messages()
	lengths := make([]int, len(msgs))
	hourly := make(map[int]int)
	lengthSum := make(map[string]int)
	lengthN := make(map[string]int)
	for i, m := range msgs {
		if err := ctxErr(ctx); err != nil {
			return degradedResult(PassEngagement, []EngagementRow{}, interrupted(PassEngagement, err))
		}
		lengths[i] = utf8.RuneCountInString(m.Text)
		lengthSum[m.Sender] += lengths[i]
		lengthN[m.Sender]++
		if m.Calendar != nil {
			hourly[m.Calendar.Hour]++
		}
	}
	if err := store.AttachMessageLengths(lengths); err != nil {
		return degradedResult(PassEngagement, []EngagementRow{}, runtimeFailure(PassEngagement, err))
	}

	hours := make([]int, 0, len(hourly))
	for h := range hourly {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	senders := make([]string, 0, len(lengthN))
	for s := range lengthN {
		senders = append(senders, s)
	}
	sort.Strings(senders)

	rows := make([]EngagementRow, 0, len(hours)+len(senders))
	for _, h := range hours {
		n := hourly[h]
		rows = append(rows, EngagementRow{Kind: EngagementHour, Key: strconv.Itoa(h), HourlyActivity: &n})
	}
	for _, s := range senders {
		avg := float64(lengthSum[s]) / float64(lengthN[s])
		rows = append(rows, EngagementRow{Kind: EngagementSender, Key: s, AvgMessageLength: &avg})
	}
	return okResult(PassEngagement, rows)
}

package analysis

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)

// Stats are the headline counts of a transcript or one sender.
type Stats struct {
	Messages int `json:"messages"`
	Words    int `json:"words"`
	Media    int `json:"media"`
	Links    int `json:"links"`
}

// MonthCount is one point of the monthly timeline.
type MonthCount struct {
	Year     int    `json:"year"`
	MonthNum int    `json:"month_num"`
	Month    string `json:"month"`
	Label    string `json:"label"` // "January-2024"
	Count    int    `json:"count"`
}

// DayCount is one point of the daily timeline.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// NamedCount is a bar of the weekday or month activity charts.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Heatmap counts messages per weekday (rows, Monday first) and period (columns, by hour).
type Heatmap struct {
	Days    []string `json:"days"`
	Periods []string `json:"periods"`
	Counts  [][]int  `json:"counts"`
}

// Activity bundles the tables behind the dashboard's activity views.
type Activity struct {
	Stats           Stats            `json:"stats"`
	MonthlyTimeline []MonthCount     `json:"monthly_timeline"`
	DailyTimeline   []DayCount       `json:"daily_timeline"`
	WeekActivity    []NamedCount     `json:"week_activity"`
	MonthActivity   []NamedCount     `json:"month_activity"`
	Heatmap         Heatmap          `json:"heatmap"`
	CommonWords     []FrequencyEntry `json:"common_words"`
	Emoji           []FrequencyEntry `json:"emoji"`
}

// ActivityOptions tunes the frequency tables.
type ActivityOptions struct {
	CommonWords int
	StopWords   map[string]struct{}
}

// DefaultActivityOptions: 20 common words, English stop words.
func DefaultActivityOptions() ActivityOptions {
	return ActivityOptions{CommonWords: DefaultCommonWords, StopWords: EnglishStopWords()}
}

var heatmapDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// FetchStats counts messages, words, media placeholders and links.
func FetchStats(store *transcript.Store) Stats {
	var s Stats
	for _, m := range store.Messages() {
		s.Messages++
		s.Words += WordCount(m.Text)
		if strings.TrimSpace(m.Text) == transcript.MediaPlaceholder {
			s.Media++
		}
		s.Links += len(extractURLs(m.Text))
	}
	return s
}

func extractURLs(text string) []string {
	var out []string
	for _, u := range urlRegex.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?)")
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// MonthlyTimeline counts timestamped messages per calendar month, oldest first.
func MonthlyTimeline(store *transcript.Store) []MonthCount {
	byKey := make(map[int]*MonthCount)
	for _, m := range store.Messages() {
		if m.Calendar == nil {
			continue
		}
		key := m.Calendar.Year*12 + m.Calendar.MonthNum
		mc, ok := byKey[key]
		if !ok {
			mc = &MonthCount{
				Year:     m.Calendar.Year,
				MonthNum: m.Calendar.MonthNum,
				Month:    m.Calendar.Month,
				Label:    fmt.Sprintf("%s-%d", m.Calendar.Month, m.Calendar.Year),
			}
			byKey[key] = mc
		}
		mc.Count++
	}
	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]MonthCount, len(keys))
	for i, k := range keys {
		out[i] = *byKey[k]
	}
	return out
}

// DailyTimeline counts timestamped messages per date, oldest first.
func DailyTimeline(store *transcript.Store) []DayCount {
	c := make(map[string]int)
	for _, m := range store.Messages() {
		if m.Calendar != nil {
			c[m.Calendar.Date]++
		}
	}
	out := make([]DayCount, 0, len(c))
	for d, n := range c {
		out = append(out, DayCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// WeekActivity counts messages per weekday name, busiest first.
func WeekActivity(store *transcript.Store) []NamedCount {
	return namedCounts(store, func(c *transcript.Calendar) string { return c.DayName })
}

// MonthActivity counts messages per month name, busiest first.
func MonthActivity(store *transcript.Store) []NamedCount {
	return namedCounts(store, func(c *transcript.Calendar) string { return c.Month })
}

func namedCounts(store *transcript.Store, key func(*transcript.Calendar) string) []NamedCount {
	c := counter{}
	for _, m := range store.Messages() {
		if m.Calendar != nil {
			c[key(m.Calendar)]++
		}
	}
	ranked := c.ranked(0)
	out := make([]NamedCount, len(ranked))
	for i, e := range ranked {
		out[i] = NamedCount{Name: e.Term, Count: e.Count}
	}
	return out
}

// ActivityHeatmap builds the zero-filled 7x24 weekday by period table.
func ActivityHeatmap(store *transcript.Store) Heatmap {
	h := Heatmap{
		Days:    make([]string, len(heatmapDays)),
		Periods: transcript.PeriodLabels(),
		Counts:  make([][]int, len(heatmapDays)),
	}
	row := make(map[time.Weekday]int, len(heatmapDays))
	for i, d := range heatmapDays {
		h.Days[i] = d.String()
		h.Counts[i] = make([]int, 24)
		row[d] = i
	}
	for _, m := range store.Messages() {
		if !m.HasTimestamp {
			continue
		}
		h.Counts[row[m.Timestamp.Weekday()]][m.Timestamp.Hour()]++
	}
	return h
}

// BuildActivity computes every activity table for store.
func BuildActivity(ctx context.Context, store *transcript.Store, opts ActivityOptions) (res Result[Activity]) {
	defer func() {
		if v := recover(); v != nil {
			res = degradedResult(PassActivity, Activity{}, recovered(PassActivity, v))
		}
	}()

	if err := ctxErr(ctx); err != nil {
		return degradedResult(PassActivity, Activity{}, interrupted(PassActivity, err))
	}
	limit := opts.CommonWords
	if limit <= 0 {
		limit = DefaultCommonWords
	}
	a := Activity{
		Stats:           FetchStats(store),
		MonthlyTimeline: MonthlyTimeline(store),
		DailyTimeline:   DailyTimeline(store),
		WeekActivity:    WeekActivity(store),
		MonthActivity:   MonthActivity(store),
		Heatmap:         ActivityHeatmap(store),
		CommonWords:     MostCommonWords(store, limit, opts.StopWords),
		Emoji:           EmojiFrequency(store),
	}
	return okResult(PassActivity, a)
}

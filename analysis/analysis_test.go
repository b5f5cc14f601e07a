package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

const aliceBob = "1/1/24, 10:00 - Alice: Hello\n1/1/24, 10:05 - Bob: Hi\n"

func TestAnalyzeResponsePatterns_AliceBob(t *testing.T) {
	t.Parallel()
	store := transcript.Parse(aliceBob)

	res := AnalyzeResponsePatterns(context.Background(), store)
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Value, 2)

	alice := res.Value[0]
	assert.Equal(t, "Alice", alice.Sender)
	assert.Equal(t, 1, alice.Count)
	require.NotNil(t, alice.Mean)
	assert.InDelta(t, 300.0, *alice.Mean, 1e-9)
	assert.InDelta(t, 300.0, *alice.Median, 1e-9)
	assert.Nil(t, alice.Std)

	bob := res.Value[1]
	assert.Equal(t, "Bob", bob.Sender)
	assert.Equal(t, 0, bob.Count)
	assert.Nil(t, bob.Mean)

	a := store.Annotations(0)
	require.NotNil(t, a.ResponseTimeSeconds)
	assert.InDelta(t, 300.0, *a.ResponseTimeSeconds, 1e-9)
	assert.Nil(t, store.Annotations(1).ResponseTimeSeconds)
}

func TestAnalyzeResponsePatterns_GlobalTempo(t *testing.T) {
	t.Parallel()
	// Alice's second message answers nobody in particular; the delta still counts for her.
	store := transcript.Parse("1/1/24, 10:00 - Alice: a\n1/1/24, 10:01 - Alice: b\n1/1/24, 10:04 - Bob: c\n")

	res := AnalyzeResponsePatterns(context.Background(), store)
	require.Len(t, res.Value, 2)
	alice := res.Value[0]
	assert.Equal(t, 2, alice.Count)
	assert.InDelta(t, 120.0, *alice.Mean, 1e-9)
	require.NotNil(t, alice.Std)
	assert.InDelta(t, 84.8528137, *alice.Std, 1e-6)
}

func TestAnalyzeResponsePatterns_Empty(t *testing.T) {
	t.Parallel()
	res := AnalyzeResponsePatterns(context.Background(), transcript.Parse(""))
	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, res.Value)
}

func TestAnalyzeResponsePatterns_NoTimestamps(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("45/45/24, 10:00 - Alice: a\n46/46/24, 10:01 - Bob: b\n")
	require.False(t, store.Valid())

	res := AnalyzeResponsePatterns(context.Background(), store)
	assert.True(t, res.Degraded())
	assert.Empty(t, res.Value)
	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0], transcript.ErrAnalyzerRuntime)
}

func TestStatsHelpers(t *testing.T) {
	t.Parallel()
	v := []float64{3, 1, 2, 4}
	assert.InDelta(t, 2.5, Mean(v), 1e-9)
	assert.InDelta(t, 2.5, Median(v), 1e-9)
	assert.InDelta(t, 1.2909944, SampleStd(v), 1e-6)
	assert.Equal(t, []float64{3, 1, 2, 4}, v)
}

func TestAnalyzeEngagement_OuterJoin(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("1/1/24, 10:00 - Alice: Hello\n1/1/24, 10:05 - Bob: Hi\n1/1/24, 11:00 - Alice: Héllo!\n")

	res := AnalyzeEngagement(context.Background(), store)
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Value, 4)

	assert.Equal(t, EngagementHour, res.Value[0].Kind)
	assert.Equal(t, "10", res.Value[0].Key)
	require.NotNil(t, res.Value[0].HourlyActivity)
	assert.Equal(t, 2, *res.Value[0].HourlyActivity)
	assert.Nil(t, res.Value[0].AvgMessageLength)

	assert.Equal(t, "11", res.Value[1].Key)
	assert.Equal(t, 1, *res.Value[1].HourlyActivity)

	alice := res.Value[2]
	assert.Equal(t, EngagementSender, alice.Kind)
	assert.Equal(t, "Alice", alice.Key)
	assert.Nil(t, alice.HourlyActivity)
	require.NotNil(t, alice.AvgMessageLength)
	assert.InDelta(t, 5.5, *alice.AvgMessageLength, 1e-9)

	require.NotNil(t, store.Annotations(2).MessageLength)
	assert.Equal(t, 6, *store.Annotations(2).MessageLength)
}

func TestAnalyzeEngagement_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := AnalyzeEngagement(ctx, transcript.Parse(aliceBob))
	assert.True(t, res.Degraded())
	assert.Empty(t, res.Value)
	assert.ErrorIs(t, res.Diagnostics[0], transcript.ErrAnalyzerUnavailable)
}

type fakeTagger struct{ err error }

func (f fakeTagger) TagText(text string) ([]transcript.TaggedToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []transcript.TaggedToken
	for _, w := range strings.Fields(text) {
		out = append(out, transcript.TaggedToken{Token: w, Tag: "NN"})
	}
	return out, nil
}

func TestLinguisticAnalyze(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("1/1/24, 10:00 - Alice: good morning all\n1/1/24, 10:05 - Bob: hey\n")
	la := &LinguisticAnalyzer{Tagger: fakeTagger{}}

	res := la.Analyze(context.Background(), store)
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Value, 2)
	assert.Equal(t, 3, res.Value[0].WordCount)
	assert.Len(t, res.Value[0].Tags, 3)

	a := store.Annotations(0)
	require.NotNil(t, a.WordCount)
	assert.Equal(t, 3, *a.WordCount)
	assert.Len(t, a.POSTags, 3)
}

func TestLinguisticAnalyze_TaggerFailure(t *testing.T) {
	t.Parallel()
	store := transcript.Parse(aliceBob)
	la := &LinguisticAnalyzer{Tagger: fakeTagger{err: errors.New("model missing")}}

	res := la.Analyze(context.Background(), store)
	assert.True(t, res.Degraded())
	assert.Empty(t, res.Value)
	assert.ErrorIs(t, res.Diagnostics[0], transcript.ErrAnalyzerRuntime)
	assert.Nil(t, store.Annotations(0).WordCount)
	assert.Nil(t, store.Annotations(0).POSTags)
}

func TestLinguisticAnalyze_NoTagger(t *testing.T) {
	t.Parallel()
	res := (&LinguisticAnalyzer{}).Analyze(context.Background(), transcript.Parse(aliceBob))
	assert.True(t, res.Degraded())
	assert.ErrorIs(t, res.Diagnostics[0], transcript.ErrAnalyzerUnavailable)
}

func TestProseTagger(t *testing.T) {
	t.Parallel()
	tags, err := NewProseTagger().TagText("The dog runs quickly.")
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, "The", tags[0].Token)
	assert.Equal(t, "DT", tags[0].Tag)
}

func TestProseTagger_ModelLoadedOnce(t *testing.T) {
	t.Parallel()
	tagger := NewProseTagger()
	first, err := tagger.load()
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 200; i++ {
		tags, err := tagger.TagText("Alice sends a quick message about dinner plans.")
		require.NoError(t, err)
		require.NotEmpty(t, tags)
	}
	// Reloading the model costs a fraction of a second per call.
	assert.Less(t, time.Since(start), 10*time.Second)

	again, err := tagger.load()
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestWordCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 3, WordCount(" don't  stop\tnow "))
}

func TestBuildActivity(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"1/1/24, 10:00 - Alice: see https://example.com/a, nice 😀😀",
		"1/1/24, 23:30 - Bob: <Media omitted>",
		"2/1/24, 00:10 - Bob: pizza pizza tonight",
		"5/2/24, 09:00 - Alice: pizza 👍🏽",
		"5/2/24, 09:01 - Alice added Carol",
	}, "\n")
	store := transcript.Parse(raw)
	require.Equal(t, 5, store.Len())

	res := BuildActivity(context.Background(), store, DefaultActivityOptions())
	require.Equal(t, StatusOK, res.Status)
	a := res.Value

	assert.Equal(t, Stats{Messages: 5, Words: 14, Media: 1, Links: 1}, a.Stats)

	require.Len(t, a.MonthlyTimeline, 2)
	assert.Equal(t, "January-2024", a.MonthlyTimeline[0].Label)
	assert.Equal(t, 3, a.MonthlyTimeline[0].Count)
	assert.Equal(t, "February-2024", a.MonthlyTimeline[1].Label)

	require.Len(t, a.DailyTimeline, 3)
	assert.Equal(t, DayCount{Date: "2024-01-01", Count: 2}, a.DailyTimeline[0])

	// 2024-01-01 is a Monday, 2024-01-02 a Tuesday, 2024-02-05 a Monday.
	assert.Equal(t, NamedCount{Name: "Monday", Count: 4}, a.WeekActivity[0])
	assert.Equal(t, NamedCount{Name: "January", Count: 3}, a.MonthActivity[0])

	require.Len(t, a.Heatmap.Counts, 7)
	assert.Equal(t, "Monday", a.Heatmap.Days[0])
	assert.Equal(t, "Sunday", a.Heatmap.Days[6])
	assert.Equal(t, "23-00", a.Heatmap.Periods[23])
	assert.Equal(t, 1, a.Heatmap.Counts[0][10])
	assert.Equal(t, 1, a.Heatmap.Counts[0][23])
	assert.Equal(t, 1, a.Heatmap.Counts[1][0])
	assert.Equal(t, 2, a.Heatmap.Counts[0][9])

	require.NotEmpty(t, a.CommonWords)
	assert.Equal(t, FrequencyEntry{Term: "pizza", Count: 3}, a.CommonWords[0])
	for _, e := range a.CommonWords {
		assert.NotEqual(t, "<media", e.Term)
		assert.NotEqual(t, "added", e.Term)
	}

	require.Len(t, a.Emoji, 2)
	assert.Equal(t, FrequencyEntry{Term: "😀", Count: 2}, a.Emoji[0])
	assert.Equal(t, "👍🏽", a.Emoji[1].Term)
}

func TestExtractURLs(t *testing.T) {
	t.Parallel()
	got := extractURLs(`see (https://a.example/x). and http://b.example/y?z=1!`)
	assert.Equal(t, []string{"https://a.example/x", "http://b.example/y?z=1"}, got)
}

func TestUserOptions(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("1/1/24, 10:00 - Zed: a\n1/1/24, 10:01 - Alice joined\n1/1/24, 10:02 - Amy: b\n")
	assert.Equal(t, []string{"Overall", "Amy", "Zed"}, UserOptions(store))
}

func TestMostCommonWords_Limit(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("1/1/24, 10:00 - A: b a c a b a\n")
	got := MostCommonWords(store, 2, nil)
	assert.Equal(t, []FrequencyEntry{{Term: "a", Count: 3}, {Term: "b", Count: 2}}, got)
}

func TestMostCommonWords_ComposesUnicode(t *testing.T) {
	t.Parallel()
	store := transcript.Parse("1/1/24, 10:00 - Alice: caf\u00e9\n1/1/24, 10:01 - Bob: cafe\u0301\n")
	got := MostCommonWords(store, 0, nil)
	assert.Equal(t, []FrequencyEntry{{Term: "caf\u00e9", Count: 2}}, got)
}

func TestEmojiFrequency_Clusters(t *testing.T) {
	t.Parallel()
	raw := "1/1/24, 10:00 - Alice: \u23f0 \u231a #\ufe0f\u20e3 1\ufe0f\u20e3 \u25b6\ufe0f\n" +
		"1/1/24, 10:01 - Bob: \u2139\ufe0f \u2764\ufe0f \u2764\ufe0f a ! 1 #\n" +
		"1/1/24, 10:02 - Alice: \u231b \u21a9\ufe0f \u2934\ufe0f \u24c2\ufe0f\n"
	got := EmojiFrequency(transcript.Parse(raw))

	counts := make(map[string]int, len(got))
	for _, e := range got {
		counts[e.Term] = e.Count
	}
	assert.Equal(t, map[string]int{
		"\u23f0":        1,
		"\u231a":        1,
		"#\ufe0f\u20e3": 1,
		"1\ufe0f\u20e3": 1,
		"\u25b6\ufe0f":  1,
		"\u2139\ufe0f":  1,
		"\u2764\ufe0f":  2,
		"\u231b":        1,
		"\u21a9\ufe0f":  1,
		"\u2934\ufe0f":  1,
		"\u24c2\ufe0f":  1,
	}, counts)
	assert.Equal(t, FrequencyEntry{Term: "\u2764\ufe0f", Count: 2}, got[0])
}

func TestReportSchema(t *testing.T) {
	t.Parallel()
	b, err := ReportSchema()
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `"session_id"`)
	assert.Contains(t, s, `"sentiment"`)
	assert.Contains(t, s, `"heatmap"`)
}

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

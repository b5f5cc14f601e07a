// Package transcript turns an exported plain-text chat transcript into an ordered store of
// timestamped messages.
package transcript

import "time"

// GroupNotification is the sender recorded for system lines (joins, removals, subject changes)
// that carry no human author.
const GroupNotification = "group_notification"

// MediaPlaceholder is the body exports write in place of an attachment.
const MediaPlaceholder = "<Media omitted>"

// Message is one timestamp-prefixed entry of a transcript.
// Core fields are fixed at parse time; the store only ever hands out copies.
type Message struct {
	Index  int    `json:"index"`
	Sender string `json:"sender"`
	Text   string `json:"text"`

	// Timestamp is timezone-naive: it is parsed as UTC and never converted.
	Timestamp    time.Time `json:"timestamp,omitzero"`
	HasTimestamp bool      `json:"has_timestamp"`

	Calendar *Calendar `json:"calendar,omitempty"`
	Period   string    `json:"period,omitempty"`
}

// IsNotification reports whether the message is a system line.
func (m Message) IsNotification() bool {
	return m.Sender == GroupNotification
}

// Calendar holds the fields derived from a parsed timestamp.
type Calendar struct {
	Date     string `json:"date"` // 2006-01-02
	Year     int    `json:"year"`
	MonthNum int    `json:"month_num"`
	Month    string `json:"month"`
	Day      int    `json:"day"`
	DayName  string `json:"day_name"`
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
}

// CalendarOf derives the calendar fields of t.
func CalendarOf(t time.Time) Calendar {
	return Calendar{
		Date:     t.Format(time.DateOnly),
		Year:     t.Year(),
		MonthNum: int(t.Month()),
		Month:    t.Month().String(),
		Day:      t.Day(),
		DayName:  t.Weekday().String(),
		Hour:     t.Hour(),
		Minute:   t.Minute(),
	}
}

// SentimentLabel is the categorical sentiment of a message.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentScores mirrors the VADER polarity score shape.
type SentimentScores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
}

// TaggedToken is a token with its part-of-speech tag.
type TaggedToken struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
}

// Annotations are the analyzer-attached slots of one message. A nil or empty field means the
// responsible pass has not run (or degraded).
type Annotations struct {
	WordCount           *int             `json:"word_count,omitempty"`
	MessageLength       *int             `json:"message_length,omitempty"`
	SentimentLabel      SentimentLabel   `json:"sentiment,omitempty"`
	SentimentScores     *SentimentScores `json:"sentiment_scores,omitempty"`
	POSTags             []TaggedToken    `json:"pos_tags,omitempty"`
	ResponseTimeSeconds *float64         `json:"response_time_seconds,omitempty"`
}

// Clock is the time-of-day notation detected in a transcript.
type Clock string

const (
	Clock12Hour Clock = "12h"
	Clock24Hour Clock = "24h"
)

// Format describes how the timestamps of a transcript were read.
type Format struct {
	Clock Clock `json:"clock"`
	// Order is the winning date order ("day-first" or "month-first"); empty when nothing parsed.
	Order string `json:"order,omitempty"`
}

package transcript

import (
	"strconv"
	"time"
)

// PeriodLabel buckets an hour for display: 23 -> "23-00", 0 -> "00-1", otherwise "h-(h+1)".
// Downstream charts key on these exact strings.
func PeriodLabel(hour int) string {
	switch hour {
	case 23:
		return strconv.Itoa(hour) + "-00"
	case 0:
		return "00-" + strconv.Itoa(hour+1)
	default:
		return strconv.Itoa(hour) + "-" + strconv.Itoa(hour+1)
	}
}

// PeriodLabels returns the labels of hours 0..23 in order.
func PeriodLabels() []string {
	out := make([]string, 24)
	for h := range out {
		out[h] = PeriodLabel(h)
	}
	return out
}

// FormatTimestamp renders a naive timestamp as "2006-01-02T15:04:05" (no zone), or "" when unset.
func FormatTimestamp(m Message) string {
	if !m.HasTimestamp {
		return ""
	}
	return m.Timestamp.Format("2006-01-02T15:04:05")
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

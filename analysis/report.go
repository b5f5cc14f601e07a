package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// Report is the document written for one analysis session. A pass that was not selected is nil.
type Report struct {
	SessionID        string                  `json:"session_id"`
	GeneratedAt      time.Time               `json:"generated_at"`
	Selection        string                  `json:"selection"`
	Users            []string                `json:"users"`
	Messages         int                     `json:"messages"`
	Format           transcript.Format       `json:"format"`
	Valid            bool                    `json:"valid"`
	ParseDiagnostics []transcript.Diagnostic `json:"parse_diagnostics,omitempty"`

	Sentiment  *Result[SentimentReport] `json:"sentiment,omitempty"`
	Responses  *Result[[]ResponseStats] `json:"responses,omitempty"`
	Topics     *Result[[]Topic]         `json:"topics,omitempty"`
	Engagement *Result[[]EngagementRow] `json:"engagement,omitempty"`
	Linguistic *Result[[]LinguisticRow] `json:"linguistic,omitempty"`
	Activity   *Result[Activity]        `json:"activity,omitempty"`
}

// Degraded lists the passes that fell back to their default output.
func (r *Report) Degraded() []string {
	var out []string
	add := func(pass string, degraded bool) {
		if degraded {
			out = append(out, pass)
		}
	}
	if r.Sentiment != nil {
		add(PassSentiment, r.Sentiment.Degraded())
	}
	if r.Responses != nil {
		add(PassResponses, r.Responses.Degraded())
	}
	if r.Topics != nil {
		add(PassTopics, r.Topics.Degraded())
	}
	if r.Engagement != nil {
		add(PassEngagement, r.Engagement.Degraded())
	}
	if r.Linguistic != nil {
		add(PassLinguistic, r.Linguistic.Degraded())
	}
	if r.Activity != nil {
		add(PassActivity, r.Activity.Degraded())
	}
	return out
}

// Diagnostics collects parse diagnostics followed by every pass diagnostic in report order.
func (r *Report) Diagnostics() []transcript.Diagnostic {
	out := append([]transcript.Diagnostic(nil), r.ParseDiagnostics...)
	if r.Sentiment != nil {
		out = append(out, r.Sentiment.Diagnostics...)
	}
	if r.Responses != nil {
		out = append(out, r.Responses.Diagnostics...)
	}
	if r.Topics != nil {
		out = append(out, r.Topics.Diagnostics...)
	}
	if r.Engagement != nil {
		out = append(out, r.Engagement.Diagnostics...)
	}
	if r.Linguistic != nil {
		out = append(out, r.Linguistic.Diagnostics...)
	}
	if r.Activity != nil {
		out = append(out, r.Activity.Diagnostics...)
	}
	return out
}

// ReportSchema returns the JSON Schema of Report, for consumers of the written document.
func ReportSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Report{})
	schema.Title = "chat-insight report"
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ReportSchema: marshal: %w", err)
	}
	return b, nil
}

// Package analysis runs the analytical passes over a parsed transcript: sentiment, response
// patterns, topics, engagement, linguistic tagging and activity tables.
//
// Every pass returns a Result. A pass never fails another pass: problems are reported as a
// degraded Result carrying diagnostics and a safe default value.
package analysis

import (
	"context"
	"fmt"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// Pass names.
const (
	PassSentiment  = "sentiment"
	PassResponses  = "responses"
	PassTopics     = "topics"
	PassEngagement = "engagement"
	PassLinguistic = "linguistic"
	PassActivity   = "activity"
)

// AllPasses lists every pass in report order.
var AllPasses = []string{PassSentiment, PassResponses, PassTopics, PassEngagement, PassLinguistic, PassActivity}

// Status tags a Result.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Result is the outcome of one pass.
type Result[T any] struct {
	Pass        string                  `json:"pass"`
	Status      Status                  `json:"status"`
	Value       T                       `json:"value"`
	Diagnostics []transcript.Diagnostic `json:"diagnostics,omitempty"`
}

// Degraded reports whether the pass fell back to its default output.
func (r Result[T]) Degraded() bool {
	return r.Status == StatusDegraded
}

func okResult[T any](pass string, v T) Result[T] {
	return Result[T]{Pass: pass, Status: StatusOK, Value: v}
}

func degradedResult[T any](pass string, v T, diags ...transcript.Diagnostic) Result[T] {
	return Result[T]{Pass: pass, Status: StatusDegraded, Value: v, Diagnostics: diags}
}

// interrupted converts a cancelled or expired context into an "unavailable" diagnostic.
func interrupted(pass string, err error) transcript.Diagnostic {
	return transcript.NewDiagnostic(transcript.KindAnalyzerUnavailable, pass, "interrupted: %v", err)
}

func runtimeFailure(pass string, err error) transcript.Diagnostic {
	return transcript.NewDiagnostic(transcript.KindAnalyzerRuntime, pass, "%v", err)
}

// recovered turns a panic value into a runtime diagnostic.
func recovered(pass string, v any) transcript.Diagnostic {
	return runtimeFailure(pass, fmt.Errorf("panic: %v", v))
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies a degradation.
type Kind string

const (
	// KindFormatAmbiguous: the best date layout parsed only part of the timestamps.
	KindFormatAmbiguous Kind = "parse_format_ambiguous"
	// KindTotalFailure: no date layout parsed any timestamp.
	KindTotalFailure Kind = "parse_total_failure"
	// KindAnalyzerUnavailable: a model, lexicon or tagger could not be used at all.
	KindAnalyzerUnavailable Kind = "analyzer_unavailable"
	// KindAnalyzerRuntime: an analyzer failed while running.
	KindAnalyzerRuntime Kind = "analyzer_runtime_error"
)

var (
	ErrFormatAmbiguous     = errors.New("timestamp format only partially matched")
	ErrTotalFailure        = errors.New("no timestamp could be parsed")
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")
	ErrAnalyzerRuntime     = errors.New("analyzer runtime error")
)

// Diagnostic reports a contained failure. It never aborts the run that produced it.
type Diagnostic struct {
	Kind      Kind   `json:"kind"`
	Component string `json:"component"`
	Message   string `json:"message"`
	// Count is the number of affected entries, when that is meaningful.
	Count int `json:"count,omitempty"`
}

// NewDiagnostic builds a diagnostic, formatting the message like fmt.Sprintf.
func NewDiagnostic(kind Kind, component, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Component: component, Message: fmt.Sprintf(format, args...)}
}

func (d Diagnostic) Error() string {
	if d.Component == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Component, d.Kind, d.Message)
}

// Unwrap maps the diagnostic onto its sentinel so callers can use errors.Is.
func (d Diagnostic) Unwrap() error {
	switch d.Kind {
	case KindFormatAmbiguous:
		return ErrFormatAmbiguous
	case KindTotalFailure:
		return ErrTotalFailure
	case KindAnalyzerUnavailable:
		return ErrAnalyzerUnavailable
	case KindAnalyzerRuntime:
		return ErrAnalyzerRuntime
	default:
		return nil
	}
}

// Package provider scores sentiment with an OpenAI model through the Responses API.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/chat-insight/fileutils"
	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

const (
	DefaultModel = "gpt-4.1-mini"

	// DefaultMaxInputChars caps the message text sent per request.
	DefaultMaxInputChars = 4000
)

const sentimentInstructions = `You score the sentiment of one chat message the way the VADER lexicon does.
Return "compound" in [-1, 1] (overall polarity) and "pos", "neg", "neu" in [0, 1] summing to 1
(proportions of positive, negative and neutral content). Account for negation, intensifiers,
emphasis by punctuation or capital letters, slang and emoji. Output JSON only.`

type sentimentResponse struct {
	Compound float64 `json:"compound" jsonschema:"description=Overall polarity from -1 (most negative) to 1 (most positive)"`
	Positive float64 `json:"pos" jsonschema:"description=Proportion of positive content"`
	Negative float64 `json:"neg" jsonschema:"description=Proportion of negative content"`
	Neutral  float64 `json:"neu" jsonschema:"description=Proportion of neutral content"`
}

var sentimentSchema = GenerateSchema[sentimentResponse]()

// SentimentScorer asks a model for VADER-shaped polarity scores.
type SentimentScorer struct {
	client        *openai.Client
	model         string
	maxInputChars int
}

// Option configures a SentimentScorer.
type Option func(*SentimentScorer)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(s *SentimentScorer) {
		if m := strings.TrimSpace(model); m != "" {
			s.model = m
		}
	}
}

// WithMaxInputChars overrides DefaultMaxInputChars.
func WithMaxInputChars(n int) Option {
	return func(s *SentimentScorer) {
		if n > 0 {
			s.maxInputChars = n
		}
	}
}

// NewSentimentScorer builds a scorer. It fails when no API key is given, which callers report
// as an unavailable sentiment analyzer.
func NewSentimentScorer(apiKey string, opts ...Option) (*SentimentScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("NewSentimentScorer: api key is empty (set OPENAI_API_KEY or -api-key)")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	s := &SentimentScorer{client: &client, model: DefaultModel, maxInputChars: DefaultMaxInputChars}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Model returns the model name requests are sent to.
func (s *SentimentScorer) Model() string { return s.model }

func (s *SentimentScorer) PolarityScores(ctx context.Context, text string) (transcript.SentimentScores, error) {
	if s == nil || s.client == nil {
		return transcript.SentimentScores{}, errors.New("SentimentScorer: client is nil")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "MessageSentiment",
			Schema:      sentimentSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("VADER-style polarity scores"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(sentimentInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(fileutils.Truncate(text, s.maxInputChars), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := CallWithRetry(ctx, s.client, params)
	if err != nil {
		return transcript.SentimentScores{}, fmt.Errorf("SentimentScorer: %w", err)
	}
	var out sentimentResponse
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return transcript.SentimentScores{}, fmt.Errorf("SentimentScorer: unmarshal scores: %w", err)
	}
	return out.scores(), nil
}

// scores clamps model output into the VADER ranges.
func (r sentimentResponse) scores() transcript.SentimentScores {
	return transcript.SentimentScores{
		Compound: clamp(r.Compound, -1, 1),
		Positive: clamp(r.Positive, 0, 1),
		Negative: clamp(r.Negative, 0, 1),
		Neutral:  clamp(r.Neutral, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

var (
	rateLimitWaitTimes   = []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes = []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}
)

// CallWithRetry retries rate-limit and server errors with fixed back-off, giving up early when
// ctx is done.
func CallWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		wait := retryDelay(err, attempt)
		if wait == 0 || attempt == maxRetries-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

// retryDelay is zero for errors that should not be retried.
func retryDelay(err error, attempt int) time.Duration {
	switch {
	case isRateLimitError(err):
		return rateLimitWaitTimes[attempt]
	case isServerError(err):
		return serverErrorWaitTimes[attempt]
	default:
		return 0
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// GenerateSchema reflects T into the shape strict structured outputs accept: nested types
// inlined, every object closed, and every property required in declaration order.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{DoNotReference: true}
	var v T
	schema := reflector.Reflect(v)
	closeObjects(schema)

	b, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("GenerateSchema: marshal: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("GenerateSchema: unmarshal: %v", err))
	}
	return out
}

// closeObjects walks the reflected schema tree before it is serialized.
func closeObjects(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.Properties != nil {
		s.AdditionalProperties = jsonschema.FalseSchema
		s.Required = nil
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			s.Required = append(s.Required, pair.Key)
			closeObjects(pair.Value)
		}
	}
	closeObjects(s.Items)
}

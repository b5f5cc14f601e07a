package analysis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

// Runner fans the selected passes out over one store and assembles a Report.
type Runner struct {
	Sentiment  *SentimentClassifier
	Topics     *TopicModeler
	Linguistic *LinguisticAnalyzer
	Activity   ActivityOptions

	// PassTimeout bounds each pass; zero means no per-pass deadline.
	PassTimeout time.Duration
	// Passes selects passes by name; empty runs AllPasses.
	Passes []string

	Logger  zerolog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// NewRunner returns a runner with the default analyzers and a disabled logger.
func NewRunner() *Runner {
	return &Runner{
		Sentiment:  NewSentimentClassifier(NewVaderScorer(), nil),
		Topics:     NewTopicModeler(),
		Linguistic: NewLinguisticAnalyzer(),
		Activity:   DefaultActivityOptions(),
		Logger:     zerolog.Nop(),
	}
}

// ValidatePasses rejects unknown pass names.
func ValidatePasses(passes []string) error {
	for _, p := range passes {
		if !slices.Contains(AllPasses, p) {
			return fmt.Errorf("unknown pass %q (want one of %v)", p, AllPasses)
		}
	}
	return nil
}

// Run analyzes store restricted to selection ("" or OverallSelection for everyone). Only an
// invalid configuration or selection is an error; pass failures are reported inside the Report.
func (r *Runner) Run(ctx context.Context, store *transcript.Store, selection string) (*Report, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Runner.Run: ctx is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("Runner.Run: store is nil")
	}
	passes := r.Passes
	if len(passes) == 0 {
		passes = AllPasses
	}
	if err := ValidatePasses(passes); err != nil {
		return nil, fmt.Errorf("Runner.Run: %w", err)
	}
	if selection == "" {
		selection = transcript.OverallSelection
	}
	users := UserOptions(store)
	if !slices.Contains(users, selection) {
		return nil, fmt.Errorf("Runner.Run: unknown selection %q", selection)
	}

	view := store.ForSender(selection)
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	rep := &Report{
		SessionID:        uuid.NewString(),
		GeneratedAt:      now().UTC(),
		Selection:        selection,
		Users:            users,
		Messages:         view.Len(),
		Format:           store.Format(),
		Valid:            store.Valid(),
		ParseDiagnostics: store.Diagnostics(),
	}
	r.Metrics.setMessages(view.Len())

	log := r.Logger.With().Str("session", rep.SessionID).Str("selection", selection).Logger()
	log.Info().Int("messages", view.Len()).Strs("passes", passes).Msg("analysis started")
	for _, d := range rep.ParseDiagnostics {
		log.Warn().Str("kind", string(d.Kind)).Int("count", d.Count).Msg(d.Message)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pass := range passes {
		switch pass {
		case PassSentiment:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, func() SentimentReport { return neutralReport(view) },
					func(ctx context.Context) Result[SentimentReport] { return r.Sentiment.Analyze(ctx, view) })
				rep.Sentiment = &res
				return nil
			})
		case PassResponses:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, func() []ResponseStats { return nil },
					func(ctx context.Context) Result[[]ResponseStats] {
						return responsesFor(AnalyzeResponsePatterns(ctx, store), selection)
					})
				rep.Responses = &res
				return nil
			})
		case PassTopics:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, PlaceholderTopics,
					func(ctx context.Context) Result[[]Topic] { return r.Topics.Analyze(ctx, view) })
				rep.Topics = &res
				return nil
			})
		case PassEngagement:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, func() []EngagementRow { return []EngagementRow{} },
					func(ctx context.Context) Result[[]EngagementRow] { return AnalyzeEngagement(ctx, view) })
				rep.Engagement = &res
				return nil
			})
		case PassLinguistic:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, func() []LinguisticRow { return []LinguisticRow{} },
					func(ctx context.Context) Result[[]LinguisticRow] { return r.Linguistic.Analyze(ctx, view) })
				rep.Linguistic = &res
				return nil
			})
		case PassActivity:
			g.Go(func() error {
				res := runPass(gctx, r, log, pass, func() Activity { return Activity{} },
					func(ctx context.Context) Result[Activity] { return BuildActivity(ctx, view, r.Activity) })
				rep.Activity = &res
				return nil
			})
		}
	}
	// Passes never return errors; Wait only joins them.
	_ = g.Wait()

	log.Info().Strs("degraded", rep.Degraded()).Msg("analysis finished")
	return rep, nil
}

// runPass runs fn under the pass deadline. When the deadline fires first, the pass's fallback is
// returned with an "unavailable" diagnostic and fn's eventual result is discarded.
func runPass[T any](ctx context.Context, r *Runner, log zerolog.Logger, pass string, fallback func() T, fn func(context.Context) Result[T]) Result[T] {
	start := time.Now()
	pctx, cancel := ctx, context.CancelFunc(func() {})
	if r.PassTimeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, r.PassTimeout)
	}
	defer cancel()

	done := make(chan Result[T], 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- degradedResult(pass, fallback(), recovered(pass, v))
			}
		}()
		done <- fn(pctx)
	}()

	var res Result[T]
	select {
	case res = <-done:
	case <-pctx.Done():
		select {
		case res = <-done:
		default:
			res = degradedResult(pass, fallback(), interrupted(pass, pctx.Err()))
		}
	}
	res.Pass = pass

	elapsed := time.Since(start)
	r.Metrics.observePass(pass, res.Status, elapsed)
	ev := log.Info()
	if res.Degraded() {
		ev = log.Warn()
	}
	ev.Str("pass", pass).Str("status", string(res.Status)).Dur("elapsed", elapsed).Msg("pass finished")
	for _, d := range res.Diagnostics {
		log.Warn().Str("pass", pass).Str("kind", string(d.Kind)).Int("count", d.Count).Msg(d.Message)
	}
	return res
}

// responsesFor keeps the selected sender's row. Deltas are always measured over the whole
// transcript, so a selection narrows the table without changing who answered whom.
func responsesFor(res Result[[]ResponseStats], selection string) Result[[]ResponseStats] {
	if selection == transcript.OverallSelection || res.Value == nil {
		return res
	}
	rows := []ResponseStats{}
	for _, row := range res.Value {
		if row.Sender == selection {
			rows = append(rows, row)
		}
	}
	res.Value = rows
	return res
}

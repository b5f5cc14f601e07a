package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/theimaginaryfoundation/chat-insight/analysis"
	"github.com/theimaginaryfoundation/chat-insight/analysis/provider"
	"github.com/theimaginaryfoundation/chat-insight/config"
	"github.com/theimaginaryfoundation/chat-insight/fileutils"
	"github.com/theimaginaryfoundation/chat-insight/logging"
	"github.com/theimaginaryfoundation/chat-insight/transcript"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to the exported chat transcript (.txt)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Path to write the report JSON (or the schema with -schema)")
	fs.StringVar(&cfg.SettingsPath, "config", "", "Optional YAML settings file; explicit flags win over it")
	fs.StringVar(&cfg.User, "user", transcript.OverallSelection, "Analyze one sender, or Overall for everyone")
	fs.IntVar(&cfg.Topics, "topics", 0, "Number of topics to extract (0 = settings default)")
	fs.StringVar(&cfg.Passes, "passes", "", "Comma-separated passes to run (default all: "+strings.Join(analysis.AllPasses, ",")+")")
	fs.StringVar(&cfg.SentimentBackend, "sentiment-backend", cfg.SentimentBackend, "Sentiment scorer: vader (lexicon) or openai (model)")
	fs.StringVar(&cfg.Model, "model", "", "Model for -sentiment-backend openai")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	fs.DurationVar(&cfg.PassTimeout, "pass-timeout", 0, "Per-pass time budget; a pass over budget degrades (0 = none)")
	fs.StringVar(&cfg.MetricsOut, "metrics-out", "", "Optional path to write Prometheus textfile metrics")
	fs.BoolVar(&cfg.Schema, "schema", false, "Write the report JSON Schema to -out and exit")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "Emit JSON logs instead of console output")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chat-report -in chat.txt -out out/report.json -pretty")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chat-report -in chat.txt -user Alice -passes sentiment,topics -topics 5")
		fmt.Fprintln(fs.Output(), "  OPENAI_API_KEY=... go run ./cmd/chat-report -in chat.txt -sentiment-backend openai -pass-timeout 2m")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chat-report -schema -out out/report.schema.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	if cfg.InputPath != "" {
		cfg.InputPath = filepath.Clean(cfg.InputPath)
	}
	cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	if err := fileutils.CheckOutput(cfg.OutputPath, cfg.Overwrite); err != nil {
		return err
	}
	if cfg.Schema {
		b, err := analysis.ReportSchema()
		if err != nil {
			return err
		}
		if err := fileutils.WriteFileAtomicSameDir(cfg.OutputPath, b, 0o644); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		fmt.Fprintf(stdout, "schema=%s\n", cfg.OutputPath)
		return nil
	}
	if cfg.MetricsOut != "" {
		if err := fileutils.CheckOutput(cfg.MetricsOut, cfg.Overwrite); err != nil {
			return err
		}
	}

	settings, err := cfg.settings()
	if err != nil {
		return err
	}
	level, _ := logging.ParseLevel(settings.Log.Level)
	log := logging.New(logging.Config{
		Level:      level,
		Tool:       "chat-report",
		JSONFormat: settings.Log.JSON,
		Output:     stderr,
	})

	store, err := transcript.ParseFile(ctx, cfg.InputPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	runner := newRunner(settings, cfg.APIKey, log)
	runner.Metrics = analysis.NewMetrics(reg)

	rep, err := runner.Run(ctx, store, cfg.User)
	if err != nil {
		return err
	}
	if err := fileutils.WriteJSONFileAtomic(cfg.OutputPath, rep, cfg.Pretty); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if cfg.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	fmt.Fprintf(stdout, "messages=%d selection=%s degraded=%s diagnostics=%d out=%s\n",
		rep.Messages, rep.Selection, strings.Join(rep.Degraded(), ","), len(rep.Diagnostics()), cfg.OutputPath)
	return nil
}

func newRunner(s config.Settings, apiKey string, log zerolog.Logger) *analysis.Runner {
	r := analysis.NewRunner()
	r.Logger = log
	r.Passes = s.Analysis.Passes
	r.PassTimeout = s.Analysis.PassTimeout

	if s.Sentiment.Backend == backendOpenAI {
		scorer, err := provider.NewSentimentScorer(apiKey,
			provider.WithModel(s.Sentiment.Model),
			provider.WithMaxInputChars(s.Sentiment.MaxInputChars),
		)
		if err != nil {
			// The pass still runs and reports itself unavailable.
			r.Sentiment = analysis.NewSentimentClassifier(nil, err)
		} else {
			r.Sentiment = analysis.NewSentimentClassifier(scorer, nil)
		}
	}

	stopWords := analysis.StopWordSet(s.Analysis.ExtraStopWords...)
	r.Topics.TopicCount = s.Analysis.Topics
	r.Topics.TopTerms = s.Analysis.TopTerms
	r.Topics.Vectorizer = analysis.VectorizerOptions{
		MinDF:     s.Analysis.MinDF,
		MaxDF:     s.Analysis.MaxDF,
		StopWords: stopWords,
	}
	r.Activity = analysis.ActivityOptions{CommonWords: s.Analysis.CommonWords, StopWords: stopWords}
	return r
}

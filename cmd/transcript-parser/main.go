package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/theimaginaryfoundation/chat-insight/fileutils"
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

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to the exported chat transcript (.txt)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Path to write the parsed records JSON")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/transcript-parser -in chat.txt -out out/records.json -pretty")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.InputPath != "" {
		cfg.InputPath = filepath.Clean(cfg.InputPath)
	}
	cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	return cfg, nil
}

// record is one message as written to disk; the timestamp is naive local time without a zone.
type record struct {
	Index     int                  `json:"index"`
	Sender    string               `json:"sender"`
	Text      string               `json:"text"`
	Timestamp string               `json:"timestamp,omitempty"`
	Calendar  *transcript.Calendar `json:"calendar,omitempty"`
	Period    string               `json:"period,omitempty"`
}

type recordsDoc struct {
	Source      string                  `json:"source"`
	Format      transcript.Format       `json:"format"`
	Valid       bool                    `json:"valid"`
	Senders     []string                `json:"senders"`
	Diagnostics []transcript.Diagnostic `json:"diagnostics,omitempty"`
	Messages    []record                `json:"messages"`
}

func run(ctx context.Context, cfg Config, stdout io.Writer) error {
	if err := fileutils.CheckOutput(cfg.OutputPath, cfg.Overwrite); err != nil {
		return err
	}
	store, err := transcript.ParseFile(ctx, cfg.InputPath)
	if err != nil {
		return err
	}

	doc := recordsDoc{
		Source:      cfg.InputPath,
		Format:      store.Format(),
		Valid:       store.Valid(),
		Senders:     store.Senders(),
		Diagnostics: store.Diagnostics(),
		Messages:    make([]record, 0, store.Len()),
	}
	if doc.Senders == nil {
		doc.Senders = []string{}
	}
	for _, m := range store.Messages() {
		doc.Messages = append(doc.Messages, record{
			Index:     m.Index,
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: transcript.FormatTimestamp(m),
			Calendar:  m.Calendar,
			Period:    m.Period,
		})
	}

	if err := fileutils.WriteJSONFileAtomic(cfg.OutputPath, doc, cfg.Pretty); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	for _, d := range doc.Diagnostics {
		fmt.Fprintf(stdout, "warning: %s\n", d.Error())
	}
	fmt.Fprintf(stdout, "messages=%d senders=%d clock=%s order=%s valid=%t out=%s\n",
		store.Len(), len(doc.Senders), doc.Format.Clock, doc.Format.Order, doc.Valid, cfg.OutputPath)
	return nil
}

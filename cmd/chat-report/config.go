package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/chat-insight/analysis"
	"github.com/theimaginaryfoundation/chat-insight/config"
	"github.com/theimaginaryfoundation/chat-insight/logging"
)

const (
	backendVader  = "vader"
	backendOpenAI = "openai"
)

type Config struct {
	InputPath    string
	OutputPath   string
	SettingsPath string
	User         string

	Topics           int
	Passes           string
	SentimentBackend string
	Model            string
	APIKey           string
	PassTimeout      time.Duration

	MetricsOut string
	Schema     bool

	LogLevel string
	LogJSON  bool

	Pretty    bool
	Overwrite bool

	// set records which flags were given explicitly; only those override the settings file.
	set map[string]bool
}

func (c Config) Validate() error {
	if c.OutputPath == "" {
		return fmt.Errorf("missing -out")
	}
	if c.Schema {
		return nil
	}
	if c.InputPath == "" {
		return fmt.Errorf("missing -in")
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		return fmt.Errorf("-out must differ from -in")
	}
	if c.Topics < 0 {
		return fmt.Errorf("-topics must be >= 0")
	}
	if c.PassTimeout < 0 {
		return fmt.Errorf("-pass-timeout must be >= 0")
	}
	switch c.SentimentBackend {
	case "", backendVader, backendOpenAI:
	default:
		return fmt.Errorf("-sentiment-backend must be %q or %q", backendVader, backendOpenAI)
	}
	if err := analysis.ValidatePasses(c.passList()); err != nil {
		return fmt.Errorf("-passes: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("-log-level: %w", err)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		OutputPath:       filepath.FromSlash("out/report.json"),
		SentimentBackend: backendVader,
		LogLevel:         string(logging.LevelInfo),
	}
}

func (c Config) passList() []string {
	var out []string
	for _, p := range strings.Split(c.Passes, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// settings overlays the explicitly set flags on the settings file.
func (c Config) settings() (config.Settings, error) {
	s, err := config.Load(c.SettingsPath)
	if err != nil {
		return config.Settings{}, err
	}
	if c.set["topics"] && c.Topics > 0 {
		s.Analysis.Topics = c.Topics
	}
	if c.set["passes"] {
		s.Analysis.Passes = c.passList()
	}
	if c.set["pass-timeout"] {
		s.Analysis.PassTimeout = c.PassTimeout
	}
	if c.set["sentiment-backend"] {
		s.Sentiment.Backend = c.SentimentBackend
	}
	if c.set["model"] {
		s.Sentiment.Model = c.Model
	}
	if c.set["log-level"] {
		s.Log.Level = c.LogLevel
	}
	if c.set["log-json"] {
		s.Log.JSON = c.LogJSON
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

// Package config loads the optional YAML settings file of chat-report.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings mirrors the settings file. Command-line flags that are set explicitly take
// precedence over these values.
type Settings struct {
	Analysis  Analysis  `yaml:"analysis"`
	Sentiment Sentiment `yaml:"sentiment"`
	Log       Log       `yaml:"log"`
}

type Analysis struct {
	Passes         []string      `yaml:"passes"           validate:"dive,oneof=sentiment responses topics engagement linguistic activity"`
	PassTimeout    time.Duration `yaml:"pass_timeout"     validate:"gte=0s,lte=1h"`
	Topics         int           `yaml:"topics"           validate:"min=1,max=50"`
	TopTerms       int           `yaml:"top_terms"        validate:"min=1,max=100"`
	MinDF          int           `yaml:"min_df"           validate:"min=1"`
	MaxDF          float64       `yaml:"max_df"           validate:"gt=0,lte=1"`
	CommonWords    int           `yaml:"common_words"     validate:"min=1,max=1000"`
	ExtraStopWords []string      `yaml:"extra_stop_words"`
}

type Sentiment struct {
	Backend       string `yaml:"backend"         validate:"oneof=vader openai"`
	Model         string `yaml:"model"           validate:"required_if=Backend openai"`
	MaxInputChars int    `yaml:"max_input_chars" validate:"min=1"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Analysis: Analysis{
			Topics:      3,
			TopTerms:    9,
			MinDF:       2,
			MaxDF:       0.95,
			CommonWords: 20,
		},
		Sentiment: Sentiment{
			Backend:       "vader",
			Model:         "gpt-4.1-mini",
			MaxInputChars: 4000,
		},
		Log: Log{Level: "info"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return fmt.Errorf("invalid setting %s: failed %q (value %v)", v.Namespace(), v.Tag(), v.Value())
		}
		return err
	}
	return nil
}

// Load reads path over Default. An empty path returns Default. Unknown keys are rejected.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("Load: read file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("Load: decode %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("Load: %s: %w", path, err)
	}
	return s, nil
}

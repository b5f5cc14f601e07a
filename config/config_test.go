package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Empty(t *testing.T) {
	t.Parallel()
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeSettings(t, `
analysis:
  passes: [sentiment, topics]
  pass_timeout: 30s
  topics: 5
  extra_stop_words: [lol, ok]
sentiment:
  backend: openai
log:
  level: debug
  json: true
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sentiment", "topics"}, s.Analysis.Passes)
	assert.Equal(t, 30*time.Second, s.Analysis.PassTimeout)
	assert.Equal(t, 5, s.Analysis.Topics)
	assert.Equal(t, 9, s.Analysis.TopTerms)
	assert.Equal(t, []string{"lol", "ok"}, s.Analysis.ExtraStopWords)
	assert.Equal(t, "openai", s.Sentiment.Backend)
	assert.Equal(t, "gpt-4.1-mini", s.Sentiment.Model)
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Log.JSON)
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Parallel()
	s, err := Load(writeSettings(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"unknown pass":    "analysis:\n  passes: [vibes]\n",
		"bad backend":     "sentiment:\n  backend: magic\n",
		"max_df too big":  "analysis:\n  max_df: 1.5\n",
		"zero topics":     "analysis:\n  topics: 0\n",
		"unknown key":     "analysis:\n  topicz: 3\n",
		"bad level":       "log:\n  level: loud\n",
		"negative budget": "analysis:\n  pass_timeout: -1s\n",
	}
	for name, body := range tests {
		_, err := Load(writeSettings(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read file")
}

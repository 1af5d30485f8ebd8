package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 5, cfg.FreeDailyPromptLimit)
	assert.Equal(t, 2, cfg.GuestPromptLimit)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 45*time.Second, cfg.LLMRequestTimeout)
	assert.False(t, cfg.PersistPartialStreams)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FREE_DAILY_PROMPT_LIMIT", "20")
	t.Setenv("LLM_REQUEST_TIMEOUT", "10s")
	t.Setenv("PERSIST_PARTIAL_STREAMS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 20, cfg.FreeDailyPromptLimit)
	assert.Equal(t, 10*time.Second, cfg.LLMRequestTimeout)
	assert.True(t, cfg.PersistPartialStreams)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FREE_DAILY_PROMPT_LIMIT", "lots")

	cfg := Load()
	assert.Equal(t, 5, cfg.FreeDailyPromptLimit)
}

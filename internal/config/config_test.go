package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config discovery at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  promotion_threshold: 4
  learning_rate: 0.25
store:
  backend: memory
llm:
  provider: openai
  openai:
    api_key: sk-test
  retry:
    initial_wait: 250ms
grading:
  use_llm: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Engine.PromotionThreshold)
	assert.Equal(t, 2, cfg.Engine.DemotionThreshold)
	assert.InDelta(t, 0.25, cfg.Engine.LearningRate, 1e-9)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.Retry.InitialWait)
	assert.True(t, cfg.Grading.UseLLM)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POLEGION_ENGINE_DEMOTION_THRESHOLD", "5")
	t.Setenv("POLEGION_STORE_BACKEND", "redis")
	t.Setenv("POLEGION_REDIS_ADDR", "cache:6380")
	t.Setenv("POLEGION_LLM_ANTHROPIC_API_KEY", "ak")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.DemotionThreshold)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "ak", cfg.LLM.Anthropic.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad backend", map[string]string{"POLEGION_STORE_BACKEND": "postgres"}},
		{"bad learning rate", map[string]string{"POLEGION_ENGINE_LEARNING_RATE": "1.5"}},
		{"llm without key", map[string]string{"POLEGION_GRADING_USE_LLM": "true", "POLEGION_LLM_PROVIDER": "gemini"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

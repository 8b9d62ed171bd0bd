package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.MaxPromptTokens)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LLM_TIMEOUT_MS", "1500")
	t.Setenv("EXCLUDE_PATTERNS", "**/dist, **/.git ,")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("LLM_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout)
	assert.Equal(t, []string{"**/dist", "**/.git"}, cfg.ExcludePatterns)
	assert.Equal(t, "sk-openai", cfg.LLMAPIKey)
}

func TestLoadInvalidIntKeepsDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: 7000
llm_model: local-model
root_dir: /srv/projects
fence_languages: [python, go]
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.HTTPPort)
	assert.Equal(t, "env-model", cfg.LLMModel)
	assert.Equal(t, "/srv/projects", cfg.RootDir)
	assert.Equal(t, []string{"python", "go"}, cfg.FenceLanguages)
	assert.Equal(t, "gpt-4o-mini", Default().LLMModel)
}

func TestLoadFileErrors(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("http_port: [oops"), 0o644))
	assert.Error(t, LoadFile(bad, Default()))
}

func TestLoadWebsocketSettings(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("WS_PING_INTERVAL_MS", "250")
	t.Setenv("WS_MAX_MESSAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.WSPingInterval)
	assert.Equal(t, 60*time.Second, cfg.WSReadTimeout)
	assert.Equal(t, int64(1<<20), cfg.WSMaxMessageSize)
}

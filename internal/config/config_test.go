package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "YODA_CONFIG", "YODA_MODEL_PATH", "YODA_MODEL_BACKEND", "ARK_API_KEY", "ARK_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendOllama, cfg.Model.Backend)
	assert.Equal(t, "./yoda-chatbot-cornell", cfg.Model.Path)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
	assert.Equal(t, 80, cfg.Model.MaxNewTokens)
	assert.Equal(t, 2*time.Minute, cfg.Model.Timeout)
	assert.Equal(t, time.Second, cfg.UI.ThinkDelay)
	assert.Equal(t, "yoda.png", cfg.UI.AvatarPath)
	assert.False(t, cfg.Emotion.ScoreReplies)
	assert.False(t, cfg.Ark.Enabled())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "yoda.toml")
	content := `
[model]
backend = "OpenAI"
path = "/models/from-file"
max_new_tokens = 64

[ui]
think_delay = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("YODA_MODEL_PATH", "/models/from-env")
	t.Setenv("ARK_API_KEY", "secret")
	t.Setenv("ARK_MODEL", "ep-123")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Model.Backend)
	assert.Equal(t, "/models/from-env", cfg.Model.Path)
	assert.Equal(t, 64, cfg.Model.MaxNewTokens)
	assert.Equal(t, 250*time.Millisecond, cfg.UI.ThinkDelay)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Ark.Enabled())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Model: ModelConfig{MaxNewTokens: 0, Temperature: 3},
		UI:    UIConfig{ThinkDelay: -time.Second},
		Log:   LogConfig{Format: "xml"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_new_tokens")
	assert.Contains(t, err.Error(), "temperature")
	assert.Contains(t, err.Error(), "think_delay")
	assert.Contains(t, err.Error(), "log.format")
}

func TestListenAddr(t *testing.T) {
	tests := map[string]string{
		"8080":           ":8080",
		":9000":          ":9000",
		"127.0.0.1:8080": "127.0.0.1:8080",
	}
	for in, want := range tests {
		got, err := listenAddr(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := listenAddr("80 80")
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	key, value := envKey("YODA_MODEL_MAX_NEW_TOKENS", " 40 ")
	assert.Equal(t, "model.max_new_tokens", key)
	assert.Equal(t, "40", value)

	key, _ = envKey("YODA_UI_AVATAR_PATH", "img/yoda.png")
	assert.Equal(t, "ui.avatar_path", key)

	key, _ = envKey("YODA_CONFIG", "yoda.toml")
	assert.Empty(t, key)

	key, _ = envKey("YODA_MODEL_PATH", "  ")
	assert.Empty(t, key)

	key, _ = arkEnvKey("ARK_SECRET_KEY", "sk")
	assert.Equal(t, "ark.secret_key", key)
}

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Backend names the server that runs the fine-tuned checkpoint.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
	BackendArk    Backend = "ark"
)

const (
	envPrefix         = "YODA_"
	arkEnvPrefix      = "ARK_"
	defaultConfigFile = "yoda.toml"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Model   ModelConfig   `koanf:"model"`
	Ark     ArkConfig     `koanf:"ark"`
	Emotion EmotionConfig `koanf:"emotion"`
	UI      UIConfig      `koanf:"ui"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// ModelConfig describes the fine-tuned checkpoint and how to reach the server
// hosting it.
type ModelConfig struct {
	Backend      Backend       `koanf:"backend"`
	Path         string        `koanf:"path"`
	Name         string        `koanf:"name"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	Temperature  float64       `koanf:"temperature"`
	MaxNewTokens int           `koanf:"max_new_tokens"`
	Timeout      time.Duration `koanf:"timeout"`
}

// ArkConfig holds Volcengine Ark credentials, used by the ark backend and the
// LLM emotion classifier.
type ArkConfig struct {
	APIKey    string `koanf:"api_key"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Model     string `koanf:"model"`
	BaseURL   string `koanf:"base_url"`
	Region    string `koanf:"region"`
}

// EmotionConfig toggles the optional classifier behaviour.
type EmotionConfig struct {
	LLMEnabled   bool `koanf:"llm_enabled"`
	ScoreReplies bool `koanf:"score_replies"`
}

// UIConfig controls the rendered page.
type UIConfig struct {
	AvatarPath string        `koanf:"avatar_path"`
	ThinkDelay time.Duration `koanf:"think_delay"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":           ":8080",
		"model.backend":         string(BackendOllama),
		"model.path":            "./yoda-chatbot-cornell",
		"model.base_url":        "",
		"model.temperature":     0.7,
		"model.max_new_tokens":  80,
		"model.timeout":         "2m",
		"ark.base_url":          "https://ark.cn-beijing.volces.com/api/v3",
		"ark.region":            "cn-beijing",
		"emotion.llm_enabled":   false,
		"emotion.score_replies": false,
		"ui.avatar_path":        "yoda.png",
		"ui.think_delay":        "1s",
		"log.level":             "info",
		"log.format":            "console",
	}
}

// Load layers defaults, an optional TOML file and the environment. An empty
// path falls back to YODA_CONFIG and then ./yoda.toml when it exists.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path = resolveConfigPath(path)
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(arkEnvPrefix, ".", arkEnvKey), nil); err != nil {
		return nil, fmt.Errorf("load ark environment: %w", err)
	}
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr, err := listenAddr(port)
		if err != nil {
			return nil, err
		}
		cfg.Server.Addr = addr
	}

	cfg.Model.Backend = Backend(strings.ToLower(strings.TrimSpace(string(cfg.Model.Backend))))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Model.MaxNewTokens <= 0 {
		errs = append(errs, fmt.Errorf("model.max_new_tokens must be positive, got %d", c.Model.MaxNewTokens))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature must be within [0, 2], got %v", c.Model.Temperature))
	}
	if c.UI.ThinkDelay < 0 {
		errs = append(errs, fmt.Errorf("ui.think_delay must not be negative, got %s", c.UI.ThinkDelay))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if fromEnv := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG")); fromEnv != "" {
		return fromEnv
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// envKey maps YODA_MODEL_MAX_NEW_TOKENS to model.max_new_tokens. Blank
// values are skipped so they do not mask defaults.
func envKey(name, value string) (string, any) {
	value = strings.TrimSpace(value)
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	if value == "" || key == "config" {
		return "", nil
	}
	return strings.Replace(key, "_", ".", 1), value
}

// arkEnvKey maps ARK_API_KEY to ark.api_key.
func arkEnvKey(name, value string) (string, any) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	return "ark." + strings.ToLower(strings.TrimPrefix(name, arkEnvPrefix)), value
}

// listenAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func listenAddr(port string) (string, error) {
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}

// Enabled reports whether enough Ark credentials are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// ChatModelOptions tunes sampling on the Ark chat model.
type ChatModelOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// NewChatModel creates an Ark chat model instance.
func (c ArkConfig) NewChatModel(ctx context.Context, opts ChatModelOptions) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if opts.Temperature != nil {
		val := float32(*opts.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

package ai

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
)

// ollamaCompleter talks to a local Ollama server that has the checkpoint
// imported. The model name defaults to the checkpoint directory name.
type ollamaCompleter struct {
	llm   llms.Model
	model string
	opts  []llms.CallOption
}

func newOllamaCompleter(cfg config.ModelConfig, ckpt *Checkpoint, sampling Sampling) (*ollamaCompleter, error) {
	name := cfg.Name
	if name == "" {
		name = filepath.Base(filepath.Clean(ckpt.Dir))
	}

	opts := []ollama.Option{
		ollama.WithModel(name),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, &LoadError{Reason: ReasonBackendInit, Err: err}
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(sampling.Temperature),
		llms.WithMaxTokens(sampling.MaxNewTokens),
	}
	if sampling.Stop != "" {
		callOpts = append(callOpts, llms.WithStopWords([]string{sampling.Stop}))
	}

	return &ollamaCompleter{llm: llm, model: name, opts: callOpts}, nil
}

func (c *ollamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, c.opts...)
}

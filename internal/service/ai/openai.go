package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
)

const (
	defaultOpenAIBaseURL = "http://localhost:8000/v1/"
	// OpenAI-compatible model servers such as vLLM accept any key.
	placeholderAPIKey = "EMPTY"
)

// openAICompleter uses the legacy completions endpoint of an OpenAI-compatible
// server that serves the checkpoint directory. The model defaults to the
// checkpoint path, which is how those servers name a locally loaded model.
type openAICompleter struct {
	client   *openai.Client
	model    string
	sampling Sampling
}

func newOpenAICompleter(cfg config.ModelConfig, ckpt *Checkpoint, sampling Sampling) *openAICompleter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}
	name := cfg.Name
	if name == "" {
		name = ckpt.Dir
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := openai.NewClient(opts...)
	return &openAICompleter{client: &client, model: name, sampling: sampling}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(c.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		Temperature: openai.Float(c.sampling.Temperature),
		MaxTokens:   openai.Int(int64(c.sampling.MaxNewTokens)),
		N:           openai.Int(1),
	}
	if c.sampling.Stop != "" {
		params.Stop = openai.CompletionNewParamsStopUnion{OfString: openai.String(c.sampling.Stop)}
	}

	resp, err := c.client.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Text, nil
}

package ai

import (
	"context"
	"fmt"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
)

// Completer continues a raw prompt. Implementations sample with the configured
// temperature and stop at the end-of-text marker or the token budget.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Sampling carries generation parameters shared by every backend.
type Sampling struct {
	Temperature  float64
	MaxNewTokens int
	Stop         string
}

func newCompleter(ctx context.Context, cfg config.ModelConfig, arkCfg config.ArkConfig, ckpt *Checkpoint, sampling Sampling) (Completer, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		return newOllamaCompleter(cfg, ckpt, sampling)
	case config.BackendOpenAI:
		return newOpenAICompleter(cfg, ckpt, sampling), nil
	case config.BackendArk:
		if !arkCfg.Enabled() {
			return nil, &LoadError{
				Reason: ReasonBackendConfig,
				Err:    fmt.Errorf("ark backend selected but ARK_MODEL and credentials are not set"),
			}
		}
		chatModel, err := arkCfg.NewChatModel(ctx, config.ChatModelOptions{
			Temperature: &sampling.Temperature,
			MaxTokens:   &sampling.MaxNewTokens,
		})
		if err != nil {
			return nil, err
		}
		return newChainCompleter(ctx, chatModel)
	default:
		return nil, &LoadError{Reason: ReasonBackendUnknown, Err: fmt.Errorf("unknown model backend %q", cfg.Backend)}
	}
}

package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// chainCompleter sends the raw prompt through an eino chat chain.
type chainCompleter struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func newChainCompleter(ctx context.Context, chatModel model.BaseChatModel) (*chainCompleter, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}
	return &chainCompleter{chain: runnable}, nil
}

func (c *chainCompleter) Complete(ctx context.Context, p string) (string, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"prompt": p})
	if err != nil {
		return "", fmt.Errorf("failed to run completion chain: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

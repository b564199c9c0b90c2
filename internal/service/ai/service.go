package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
)

// Service turns user text into the mentor's raw reply.
type Service struct {
	completer  Completer
	format     persona.PromptFormat
	checkpoint *Checkpoint
}

// NewService wraps a completer with the persona's prompt format.
func NewService(completer Completer, format persona.PromptFormat, checkpoint *Checkpoint) *Service {
	return &Service{
		completer:  completer,
		format:     format,
		checkpoint: checkpoint,
	}
}

// Respond generates a reply for userText. The reply is sampled, so repeated
// calls may differ.
func (s *Service) Respond(ctx context.Context, userText string) (string, error) {
	prompt := BuildPrompt(s.format, userText)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	reply := ExtractReply(raw, s.format)
	log.Debug().
		Str("component", "ai").
		Int("raw_length", len(raw)).
		Int("reply_length", len(reply)).
		Msg("generated reply")
	return reply, nil
}

// Checkpoint returns the inspected checkpoint metadata.
func (s *Service) Checkpoint() *Checkpoint {
	return s.checkpoint
}

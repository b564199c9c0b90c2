// Package app assembles the services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/ai"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/yoda-bot/backend/internal/service/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

// App holds the process-wide services. The generator and the emotion
// detector are created once and shared by every session.
type App struct {
	Personas  *persona.MemoryStore
	Chat      *chat.Service
	Generator *ai.Loader
	Emotions  *emotionservice.Service
	Turns     *turn.Service
}

// New wires the services from cfg and loads the generator eagerly. A failed
// load is logged and leaves the app in reply-less mode; it is not an error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	personas := persona.NewMemoryStore(persona.Seed())
	mentor, ok := personas.FindByID(persona.DefaultID)
	if !ok {
		return nil, fmt.Errorf("persona %q not seeded", persona.DefaultID)
	}

	generator := ai.NewLoader(cfg.Model, cfg.Ark, mentor.Prompt)
	_, _ = generator.Load(ctx)

	var classifierModel model.BaseChatModel
	if cfg.Emotion.LLMEnabled {
		if cfg.Ark.Enabled() {
			chatModel, err := cfg.Ark.NewChatModel(ctx, config.ChatModelOptions{})
			if err != nil {
				log.Warn().Str("component", "emotion").Err(err).Msg("failed to create classifier model, using vader")
			} else {
				classifierModel = chatModel
			}
		} else {
			log.Info().Str("component", "emotion").Msg("classifier requested but ark is not configured, using vader")
		}
	}

	emotions, err := emotionservice.NewService(ctx, classifierModel, emotionservice.Config{Enabled: cfg.Emotion.LLMEnabled})
	if err != nil {
		return nil, fmt.Errorf("init emotion service: %w", err)
	}

	chatSvc := chat.NewService()
	turns := turn.NewService(chatSvc, generator, emotions, turn.Options{
		ThinkDelay:   cfg.UI.ThinkDelay,
		ScoreReplies: cfg.Emotion.ScoreReplies,
	})

	return &App{
		Personas:  personas,
		Chat:      chatSvc,
		Generator: generator,
		Emotions:  emotions,
		Turns:     turns,
	}, nil
}

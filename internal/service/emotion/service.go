package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"

	analysis "github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
)

// Config controls whether the model classifier is used.
type Config struct {
	Enabled bool
}

// Service scores user messages. When a chat model is configured it asks the
// model for a compound score and falls back to VADER on any failure.
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
	fallback   analysis.Scorer
	schema     string
}

// NewService builds the detector. chatModel may be nil.
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.NewVader(),
	}
	if !svc.enabled {
		return svc, nil
	}

	payloadSchema, err := classifierSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier schema: %w", err)
	}
	svc.schema = payloadSchema

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the model classifier is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Detect returns the polarity reading for text.
func (s *Service) Detect(ctx context.Context, text string) analysis.Reading {
	if !s.Enabled() {
		return analysis.Detect(s.fallback, text)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{
		"schema": s.schema,
		"text":   text,
	})
	if err != nil {
		log.Warn().Str("component", "emotion").Err(err).Msg("classifier invoke failed, using vader")
		return analysis.Detect(s.fallback, text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return analysis.Detect(s.fallback, text)
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Warn().Str("component", "emotion").Err(err).Msg("classifier output unreadable, using vader")
		return analysis.Detect(s.fallback, text)
	}

	return analysis.Classify(clampCompound(payload.Compound))
}

type classifierPayload struct {
	Compound float64 `json:"compound" jsonschema:"required,minimum=-1,maximum=1,description=Overall polarity from -1 (most negative) to 1 (most positive)"`
	Reason   string  `json:"reason,omitempty" jsonschema:"description=One short sentence explaining the score"`
}

func classifierSchema() (string, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	data, err := json.Marshal(reflector.Reflect(&classifierPayload{}))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseClassifierOutput extracts the JSON object from the model output,
// repairing it when the model produced almost-JSON.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}
	raw := trimmed[start : end+1]

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err == nil {
		return payload, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("repair classifier json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func clampCompound(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

const emotionSystemPrompt = "You rate the sentiment of a single chat message. Reply with one JSON object that matches this JSON Schema and nothing else:\n{schema}"

const emotionUserPrompt = "Message:\n{text}"

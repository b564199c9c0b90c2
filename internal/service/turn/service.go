// Package turn runs one conversation turn: classify, generate, rephrase, record.
package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/rephrase"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
)

var (
	// ErrEmptyInput is returned for blank submissions. Nothing is recorded.
	ErrEmptyInput = errors.New("input is empty")
	// ErrGeneratorUnavailable is returned when the generator failed to load.
	// Nothing is recorded.
	ErrGeneratorUnavailable = errors.New("generator unavailable")
)

// Responder generates the raw reply for a user message.
type Responder interface {
	Ready(ctx context.Context) error
	Respond(ctx context.Context, text string) (string, error)
}

// Detector reads the emotion of a message.
type Detector interface {
	Detect(ctx context.Context, text string) emotion.Reading
}

// Logs resolves the conversation log of a session.
type Logs interface {
	Log(ctx context.Context, sessionID string) (*chat.Log, error)
}

// Options tune a Service.
type Options struct {
	// ThinkDelay is waited before generation so the reply does not appear instantly.
	ThinkDelay time.Duration
	// ScoreReplies classifies assistant replies instead of recording the
	// neutral placeholder.
	ScoreReplies bool
}

// Turn is the outcome of one submission.
type Turn struct {
	User         chat.Message    `json:"user"`
	UserEmotion  emotion.Reading `json:"userEmotion"`
	Reply        chat.Message    `json:"reply"`
	ReplyEmotion emotion.Reading `json:"replyEmotion"`
	Raw          string          `json:"raw"`
}

// Observer receives pipeline progress before the reply is generated.
type Observer interface {
	Classified(reading emotion.Reading)
	Thinking()
}

// Service is the per-submission request handler.
type Service struct {
	logs      Logs
	responder Responder
	emotions  Detector
	opts      Options
}

// NewService wires the pipeline.
func NewService(logs Logs, responder Responder, emotions Detector, opts Options) *Service {
	return &Service{
		logs:      logs,
		responder: responder,
		emotions:  emotions,
		opts:      opts,
	}
}

// Available reports why replies cannot be generated, or nil.
func (s *Service) Available(ctx context.Context) error {
	return s.responder.Ready(ctx)
}

// Submit runs the pipeline for input. On any error the session log is left
// unchanged.
func (s *Service) Submit(ctx context.Context, sessionID, input string) (Turn, error) {
	return s.SubmitObserved(ctx, sessionID, input, nil)
}

// SubmitObserved is Submit with progress callbacks.
func (s *Service) SubmitObserved(ctx context.Context, sessionID, input string, obs Observer) (Turn, error) {
	conversation, err := s.logs.Log(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	text := strings.TrimSpace(input)
	if text == "" {
		return Turn{}, ErrEmptyInput
	}
	if err := s.responder.Ready(ctx); err != nil {
		return Turn{}, fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
	}

	userReading := s.emotions.Detect(ctx, input)
	if obs != nil {
		obs.Classified(userReading)
		obs.Thinking()
	}

	if err := s.think(ctx); err != nil {
		return Turn{}, err
	}

	raw, err := s.responder.Respond(ctx, input)
	if err != nil {
		return Turn{}, err
	}
	reply := rephrase.Rephrase(raw)

	replyReading := emotion.Placeholder()
	if s.opts.ScoreReplies {
		replyReading = s.emotions.Detect(ctx, reply)
	}

	userMsg, replyMsg := conversation.AppendTurn(input, userReading, reply, replyReading)
	log.Debug().
		Str("component", "turn").
		Str("session_id", sessionID).
		Str("emotion", userReading.String()).
		Int("log_length", conversation.Len()).
		Msg("turn recorded")

	return Turn{
		User:         userMsg,
		UserEmotion:  userReading,
		Reply:        replyMsg,
		ReplyEmotion: replyReading,
		Raw:          raw,
	}, nil
}

func (s *Service) think(ctx context.Context) error {
	if s.opts.ThinkDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.ThinkDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

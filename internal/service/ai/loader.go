package ai

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
)

// Loader brings the generator up once and hands the same instance to every
// caller for the life of the process. A failed load is not retried.
type Loader struct {
	cfg    config.ModelConfig
	ark    config.ArkConfig
	format persona.PromptFormat

	build func(context.Context, config.ModelConfig, config.ArkConfig, *Checkpoint, Sampling) (Completer, error)

	once sync.Once
	svc  *Service
	err  error
}

// NewLoader prepares a loader; nothing is touched until Load is called.
func NewLoader(cfg config.ModelConfig, ark config.ArkConfig, format persona.PromptFormat) *Loader {
	return &Loader{
		cfg:    cfg,
		ark:    ark,
		format: format,
		build:  newCompleter,
	}
}

// Load returns the shared generator or the error from the first attempt. The
// error is a *LoadError.
func (l *Loader) Load(ctx context.Context) (*Service, error) {
	l.once.Do(func() {
		l.svc, l.err = l.load(context.WithoutCancel(ctx))
		if l.err != nil {
			log.Warn().Str("component", "ai").Err(l.err).Msg("generator unavailable, replies disabled")
			return
		}
		log.Info().
			Str("component", "ai").
			Str("backend", string(l.cfg.Backend)).
			Str("checkpoint", l.cfg.Path).
			Msg("generator loaded")
	})
	return l.svc, l.err
}

func (l *Loader) load(ctx context.Context) (*Service, error) {
	ckpt, err := InspectCheckpoint(l.cfg.Path)
	if err != nil {
		return nil, err
	}

	format := l.format
	if ckpt.EOSToken != "" {
		format.EndToken = ckpt.EOSToken
	}

	completer, err := l.build(ctx, l.cfg, l.ark, ckpt, Sampling{
		Temperature:  l.cfg.Temperature,
		MaxNewTokens: l.cfg.MaxNewTokens,
		Stop:         format.EndToken,
	})
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, loadErr
		}
		return nil, &LoadError{Reason: ReasonBackendInit, Path: l.cfg.Path, Err: err}
	}

	return NewService(completer, format, ckpt), nil
}

// Ready reports whether the generator loaded.
func (l *Loader) Ready(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Respond loads the generator if needed and generates a reply.
func (l *Loader) Respond(ctx context.Context, userText string) (string, error) {
	svc, err := l.Load(ctx)
	if err != nil {
		return "", err
	}
	return svc.Respond(ctx, userText)
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatService "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
	"github.com/zhouzirui/yoda-bot/backend/pkg/utils"
)

// Handler streams turn progress via Server-Sent Events.
type Handler struct {
	turnSvc  *turn.Service
	chatSvc  *chatService.Service
	personas persona.Store
}

// New creates a new stream handler.
func New(turnSvc *turn.Service, chatSvc *chatService.Service, personas persona.Store) *Handler {
	return &Handler{
		turnSvc:  turnSvc,
		chatSvc:  chatSvc,
		personas: personas,
	}
}

// StreamResponse is the payload of every event.
type StreamResponse struct {
	Event     string           `json:"event"`
	Content   string           `json:"content,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
	Emotion   *emotion.Reading `json:"emotion,omitempty"`
	Reply     *chat.Message    `json:"reply,omitempty"`
	Finished  bool             `json:"finished,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// RegisterRoutes mounts GET /stream/{sessionID}?message=. A missing or blank
// message closes the stream without recording anything.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		userMessage := r.URL.Query().Get("message")

		if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
			log.Warn().Str("component", "stream").Str("session_id", sessionID).Err(err).Msg("stream request failed")
		}
	})
}

// HandleStreamRequest runs one turn and reports each step as an event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	_, mentor, err := h.getSessionPersona(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return err
	}

	utils.SetupSSEHeaders(w)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   mentor.Name,
	})

	obs := &sseObserver{h: h, w: w, flusher: flusher, sessionID: sessionID, pondering: mentor.Pondering}
	result, err := h.turnSvc.SubmitObserved(ctx, sessionID, userMessage, obs)
	switch {
	case errors.Is(err, turn.ErrEmptyInput), errors.Is(err, turn.ErrGeneratorUnavailable):
		h.sendEnd(w, flusher, sessionID)
		return nil
	case err != nil:
		h.sendSSE(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   result.Reply.Content,
		Reply:     &result.Reply,
		Emotion:   &result.ReplyEmotion,
	})
	h.sendEnd(w, flusher, sessionID)

	log.Debug().Str("component", "stream").Str("session_id", sessionID).Msg("completed response")
	return nil
}

func (h *Handler) getSessionPersona(ctx context.Context, sessionID string) (*chat.Session, *persona.Persona, error) {
	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}

	mentor, ok := h.personas.FindByID(session.PersonaID)
	if !ok {
		return nil, nil, fmt.Errorf("persona %s not found", session.PersonaID)
	}

	return &session, &mentor, nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEEvent(w, flusher, response.Event, response)
}

func (h *Handler) sendEnd(w http.ResponseWriter, flusher http.Flusher, sessionID string) {
	h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
}

type sseObserver struct {
	h         *Handler
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	pondering string
}

func (o *sseObserver) Classified(reading emotion.Reading) {
	o.h.sendSSE(o.w, o.flusher, StreamResponse{Event: "emotion", SessionID: o.sessionID, Emotion: &reading})
}

func (o *sseObserver) Thinking() {
	o.h.sendSSE(o.w, o.flusher, StreamResponse{Event: "thinking", SessionID: o.sessionID, Content: o.pondering})
}

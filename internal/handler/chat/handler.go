package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatService "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
	"github.com/zhouzirui/yoda-bot/backend/pkg/utils"
)

// Handler serves the JSON chat API.
type Handler struct {
	chatSvc      *chatService.Service
	turnSvc      *turn.Service
	personaStore persona.Store
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, turnSvc *turn.Service, personaStore persona.Store) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		turnSvc:      turnSvc,
		personaStore: personaStore,
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/messages", h.handleSubmitMessage)
	r.Get("/sessions/{sessionID}/history", h.handleHistory)
	r.Get("/sessions/{sessionID}/emotion", h.handleLatestEmotion)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.PersonaID == "" {
		payload.PersonaID = persona.DefaultID
	}

	if _, ok := h.personaStore.FindByID(payload.PersonaID); !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.turnSvc.Submit(r.Context(), payload.SessionID, payload.Content)
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusNoContent {
			hlog.FromRequest(r).Debug().Err(err).Str("session_id", payload.SessionID).Msg("submission ignored")
			w.WriteHeader(status)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("session_id", payload.SessionID).Msg("turn failed")
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	entries, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, struct {
		SessionID string       `json:"sessionId"`
		Entries   []chat.Entry `json:"entries"`
	}{SessionID: sessionID, Entries: entries})
}

func (h *Handler) handleLatestEmotion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conversation, err := h.chatSvc.Log(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	var latest *emotion.Reading
	if reading, ok := conversation.LatestReading(); ok {
		latest = &reading
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"emotion": latest})
}

// StatusFor maps pipeline errors to HTTP status codes. Silent no-ops map to
// 204 No Content.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, turn.ErrEmptyInput), errors.Is(err, turn.ErrGeneratorUnavailable):
		return http.StatusNoContent
	default:
		return http.StatusBadGateway
	}
}

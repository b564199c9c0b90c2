// Package page renders the single-page chat UI.
package page

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatService "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

// SessionCookie names the cookie that binds a browser to its session.
const SessionCookie = "yoda_session"

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler serves the page, its form submissions and the avatar image.
type Handler struct {
	chatSvc    *chatService.Service
	turnSvc    *turn.Service
	personas   persona.Store
	avatarPath string
}

// New creates the page handler. avatarPath may point to a missing file; the
// page then shows a warning instead of the image.
func New(chatSvc *chatService.Service, turnSvc *turn.Service, personas persona.Store, avatarPath string) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		turnSvc:    turnSvc,
		personas:   personas,
		avatarPath: avatarPath,
	}
}

// RegisterRoutes mounts the page routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/", h.handleSubmit)
	r.Get("/avatar", h.handleAvatar)
}

type viewData struct {
	Persona        persona.Persona
	Entries        []chat.Entry
	Latest         *emotion.Reading
	HasAvatar      bool
	AvatarName     string
	GeneratorError bool
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mentor, ok := h.personas.FindByID(session.PersonaID)
	if !ok {
		http.Error(w, "persona not found", http.StatusInternalServerError)
		return
	}

	conversation, err := h.chatSvc.Log(r.Context(), session.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := viewData{
		Persona:        mentor,
		Entries:        conversation.Entries(),
		HasAvatar:      h.avatarExists(),
		AvatarName:     filepath.Base(h.avatarPath),
		GeneratorError: h.turnSvc.Available(r.Context()) != nil,
	}
	if reading, ok := conversation.LatestReading(); ok {
		data.Latest = &reading
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render page")
	}
}

// handleSubmit runs a turn and redirects back to the page. Blank input and
// submissions without a generator change nothing.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, err := h.turnSvc.Submit(r.Context(), session.ID, r.PostForm.Get("message")); err != nil {
		logger := hlog.FromRequest(r)
		if errors.Is(err, turn.ErrEmptyInput) || errors.Is(err, turn.ErrGeneratorUnavailable) {
			logger.Debug().Err(err).Str("session_id", session.ID).Msg("submission ignored")
		} else {
			logger.Error().Err(err).Str("session_id", session.ID).Msg("turn failed")
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if !h.avatarExists() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.avatarPath)
}

func (h *Handler) avatarExists() bool {
	if h.avatarPath == "" {
		return false
	}
	info, err := os.Stat(h.avatarPath)
	return err == nil && !info.IsDir()
}

// ensureSession returns the session named by the cookie, creating a new one
// (and setting the cookie) when it is missing or unknown.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (chat.Session, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if session, err := h.chatSvc.GetSession(r.Context(), cookie.Value); err == nil {
			return session, nil
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), persona.DefaultID)
	if err != nil {
		return chat.Session{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler runs conversation turns over a WebSocket.
type Handler struct {
	turnSvc      *turn.Service
	chatSvc      *chatservice.Service
	personaStore persona.Store
	upgrader     websocket.Upgrader
}

// New creates the WebSocket handler.
func New(turnSvc *turn.Service, chatSvc *chatservice.Service, personaStore persona.Store) *Handler {
	return &Handler{
		turnSvc:      turnSvc,
		chatSvc:      chatSvc,
		personaStore: personaStore,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /ws/{sessionID}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage carries one user submission.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	mentor, ok := h.personaStore.FindByID(session.PersonaID)
	if !ok {
		http.Error(w, "persona not found", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "ws").Str("session_id", sessionID).Logger()
	logger.Info().Msg("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	send(conn, sessionID, "connected", map[string]any{
		"persona":     mentor.ID,
		"name":        mentor.Name,
		"placeholder": mentor.Placeholder,
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			sendError(conn, "session mismatch")
			continue
		}

		switch msg.Type {
		case "text":
			h.handleText(ctx, conn, sessionID, &mentor, msg.Data)
		default:
			sendError(conn, "unsupported message type: "+msg.Type)
		}
	}
}

func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, sessionID string, mentor *persona.Persona, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		sendError(conn, "invalid text payload")
		return
	}

	obs := &connObserver{conn: conn, sessionID: sessionID, pondering: mentor.Pondering}
	result, err := h.turnSvc.SubmitObserved(ctx, sessionID, text.Text, obs)
	switch {
	case errors.Is(err, turn.ErrEmptyInput), errors.Is(err, turn.ErrGeneratorUnavailable):
		send(conn, sessionID, "noop", nil)
		return
	case err != nil:
		log.Warn().Str("component", "ws").Str("session_id", sessionID).Err(err).Msg("turn failed")
		sendError(conn, err.Error())
		return
	}

	send(conn, sessionID, "reply", result)
}

type connObserver struct {
	conn      *websocket.Conn
	sessionID string
	pondering string
}

func (o *connObserver) Classified(reading emotion.Reading) {
	send(o.conn, o.sessionID, "emotion", reading)
}

func (o *connObserver) Thinking() {
	send(o.conn, o.sessionID, "thinking", map[string]string{"text": o.pondering})
}

func send(conn *websocket.Conn, sessionID, kind string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug().Str("component", "ws").Err(err).Str("type", kind).Msg("write failed")
	}
}

func sendError(conn *websocket.Conn, message string) {
	send(conn, "", "error", map[string]string{"message": message})
}

// pingLoop keeps the connection alive. WriteControl is safe to call
// concurrently with the reader goroutine's writes.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

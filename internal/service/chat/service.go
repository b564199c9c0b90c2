package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
)

type sessionState struct {
	session chat.Session
	log     *chat.Log
}

// Service keeps every session and its conversation log in memory. Sessions
// never share state and are never deleted while the process runs.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*sessionState),
	}
}

// CreateSession provisions an anonymous session bound to a persona.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionState{session: session, log: chat.NewLog()}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return state.session, nil
}

// Log returns the live conversation log of a session.
func (s *Service) Log(_ context.Context, sessionID string) (*chat.Log, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return state.log, nil
}

// Transcript returns a copy of the stored entries for the provided session.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]chat.Entry, error) {
	log, err := s.Log(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return log.Entries(), nil
}

func (s *Service) lookup(sessionID string) (*sessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	personaModel "github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatService "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

type readyResponder struct{}

func (readyResponder) Ready(context.Context) error { return nil }

func (readyResponder) Respond(_ context.Context, text string) (string, error) {
	return "Strong with the Force you are", nil
}

type neutralDetector struct{}

func (neutralDetector) Detect(context.Context, string) emotion.Reading { return emotion.Classify(0) }

func newTestRouter() http.Handler {
	chatSvc := chatService.NewService()
	return NewRouter(Dependencies{
		Personas: personaModel.NewMemoryStore(personaModel.Seed()),
		Chat:     chatSvc,
		Turns:    turn.NewService(chatSvc, readyResponder{}, neutralDetector{}, turn.Options{}),
	})
}

func TestRouterServesAPIAndPage(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/", "/api/health", "/api/personas"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestRouterConversationRoundTrip(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", bytes.NewReader([]byte(`{"personaId":"yoda"}`))))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"sessionId": session.ID, "content": "Am I ready?"})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(payload)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/history", nil))
	var history struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history.Entries))
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header on api routes, got %q", got)
	}
}

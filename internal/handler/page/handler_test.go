package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

type stubResponder struct {
	readyErr error
}

func (s stubResponder) Ready(context.Context) error { return s.readyErr }

func (s stubResponder) Respond(context.Context, string) (string, error) {
	return "Fear is the path to the dark side", nil
}

type stubDetector struct{}

func (stubDetector) Detect(context.Context, string) emotion.Reading {
	return emotion.Classify(-0.54)
}

func setup(t *testing.T, readyErr error, avatarPath string) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService()
	turnSvc := turn.NewService(chatSvc, stubResponder{readyErr: readyErr}, stubDetector{}, turn.Options{})

	r := chi.NewRouter()
	New(chatSvc, turnSvc, persona.NewMemoryStore(persona.Seed()), avatarPath).RegisterRoutes(r)
	return r, chatSvc
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestIndexCreatesSessionAndWarnsAboutAvatar(t *testing.T) {
	r, chatSvc := setup(t, nil, filepath.Join(t.TempDir(), "yoda.png"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "image not found. Please upload yoda.png.") {
		t.Fatal("expected avatar warning")
	}
	if strings.Contains(body, "Model not found") {
		t.Fatal("unexpected model error banner")
	}

	cookie := sessionCookie(t, resp)
	if _, err := chatSvc.GetSession(context.Background(), cookie.Value); err != nil {
		t.Fatalf("cookie does not name a session: %v", err)
	}
}

func TestIndexShowsAvatarWhenPresent(t *testing.T) {
	avatar := filepath.Join(t.TempDir(), "yoda.png")
	if err := os.WriteFile(avatar, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	r, _ := setup(t, nil, avatar)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(resp.Body.String(), `<img src="/avatar"`) {
		t.Fatal("expected avatar image")
	}

	imgResp := httptest.NewRecorder()
	r.ServeHTTP(imgResp, httptest.NewRequest(http.MethodGet, "/avatar", nil))
	if imgResp.Code != http.StatusOK {
		t.Fatalf("expected avatar to be served, got %d", imgResp.Code)
	}
}

func TestSubmitRendersConversation(t *testing.T) {
	r, _ := setup(t, nil, "")

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, first)

	form := url.Values{"message": {"I am afraid"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	post := httptest.NewRecorder()
	r.ServeHTTP(post, req)

	if post.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", post.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	page := httptest.NewRecorder()
	r.ServeHTTP(page, req)

	body := page.Body.String()
	for _, want := range []string{
		"<strong>You:</strong> I am afraid",
		"<strong>Master Yoda:</strong> The path to the dark side, fear is, hmmm.",
		"Neutral (0.00)",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestSubmitWithoutGeneratorShowsBannerAndChangesNothing(t *testing.T) {
	r, chatSvc := setup(t, errors.New("checkpoint missing"), "")

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, first)
	if !strings.Contains(first.Body.String(), "Model not found. Please run the training script first.") {
		t.Fatal("expected model error banner")
	}

	form := url.Values{"message": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	post := httptest.NewRecorder()
	r.ServeHTTP(post, req)

	if post.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", post.Code)
	}
	entries, _ := chatSvc.Transcript(context.Background(), cookie.Value)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

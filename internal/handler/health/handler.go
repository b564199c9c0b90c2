package health

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/yoda-bot/backend/internal/service/ai"
	"github.com/zhouzirui/yoda-bot/backend/pkg/utils"
)

// Checker reports why replies cannot be generated, or nil.
type Checker interface {
	Available(ctx context.Context) error
}

// Handler reports service health. A missing generator degrades the service but
// does not fail the check.
type Handler struct {
	checker Checker
}

// New creates the health handler.
func New(checker Checker) *Handler {
	return &Handler{checker: checker}
}

// RegisterRoutes mounts GET /health.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := h.checker.Available(r.Context())
	if err == nil {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	body := map[string]string{"status": "degraded", "error": err.Error()}
	var loadErr *ai.LoadError
	if errors.As(err, &loadErr) {
		body["reason"] = string(loadErr.Reason)
	}
	utils.RespondJSON(w, http.StatusOK, body)
}

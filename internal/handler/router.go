package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/yoda-bot/backend/internal/handler/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/handler/health"
	"github.com/zhouzirui/yoda-bot/backend/internal/handler/page"
	"github.com/zhouzirui/yoda-bot/backend/internal/handler/persona"
	"github.com/zhouzirui/yoda-bot/backend/internal/handler/stream"
	"github.com/zhouzirui/yoda-bot/backend/internal/handler/ws"
	"github.com/zhouzirui/yoda-bot/backend/internal/logging"
	middlewarePkg "github.com/zhouzirui/yoda-bot/backend/internal/middleware"
	personaModel "github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	chatService "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Personas   personaModel.Store
	Chat       *chatService.Service
	Turns      *turn.Service
	AvatarPath string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(logging.Component("http")))
	r.Use(middleware.Recoverer)

	page.New(deps.Chat, deps.Turns, deps.Personas, deps.AvatarPath).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS)

		health.New(deps.Turns).RegisterRoutes(api)
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Turns, deps.Personas).RegisterRoutes(api)
		stream.New(deps.Turns, deps.Chat, deps.Personas).RegisterRoutes(api)
		ws.New(deps.Turns, deps.Chat, deps.Personas).RegisterRoutes(api)
	})

	return r
}

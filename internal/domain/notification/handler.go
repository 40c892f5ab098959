package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

// Handler exposes the admin event feed.
type Handler struct {
	repo     *Repository
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(repo *Repository, hub *Hub, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Handler{
		repo: repo,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// ListRecent returns the latest domain events.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	events, err := h.repo.ListRecent(r.Context(), 100)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, events)
}

// WebSocket upgrades the connection and streams events as they happen.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.hub.attach(conn)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/events", h.ListRecent)
	return r
}

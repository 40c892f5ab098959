package scoring

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliplink/cliplink-api/internal/middleware"
	"github.com/cliplink/cliplink-api/internal/pkg/jwt"
	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	creatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid creator id")
		return
	}

	callerID := middleware.GetUserID(r.Context())
	if creatorID != callerID && middleware.GetRole(r.Context()) != jwt.RoleAdmin {
		response.Forbidden(w, "cannot access this creator's trust score")
		return
	}

	score, err := h.svc.GetScore(r.Context(), creatorID)
	if err != nil {
		if errors.Is(err, ErrScoreNotFound) {
			response.NotFound(w, "trust score not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, score)
}

// Recompute forces an immediate rebuild instead of waiting for the sweep.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	creatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid creator id")
		return
	}

	score, err := h.svc.Recompute(r.Context(), creatorID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, score)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{id}/trust-score", h.Get)
	r.With(middleware.RequireRole(jwt.RoleAdmin)).Post("/{id}/trust-score/recompute", h.Recompute)
	return r
}

package campaign

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

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid campaign id")
		return
	}

	c, err := h.svc.Get(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "campaign not found")
			return
		}
		response.InternalError(w)
		return
	}

	// Advertisers only see their own campaigns.
	if middleware.GetRole(r.Context()) != jwt.RoleAdmin &&
		c.AdvertiserID != middleware.GetUserID(r.Context()) {
		response.Forbidden(w, "cannot access this campaign's budget")
		return
	}

	report, err := h.svc.ComputeBudget(r.Context(), campaignID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, report)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{id}/budget", h.GetBudget)
	return r
}

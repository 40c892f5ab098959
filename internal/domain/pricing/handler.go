package pricing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetAdjustedCpm(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid campaign id")
		return
	}
	creatorID, err := uuid.Parse(r.URL.Query().Get("creator"))
	if err != nil {
		response.BadRequest(w, "invalid or missing creator query parameter")
		return
	}

	quote, err := h.svc.QuoteFor(r.Context(), campaignID, creatorID)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			response.NotFound(w, "campaign not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, quote)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/campaigns/{id}/adjusted-cpm", h.GetAdjustedCpm)
	return r
}

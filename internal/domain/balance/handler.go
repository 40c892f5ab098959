package balance

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliplink/cliplink-api/internal/middleware"
	"github.com/cliplink/cliplink-api/internal/pkg/jwt"
	"github.com/cliplink/cliplink-api/internal/pkg/response"
	"github.com/cliplink/cliplink-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type withdrawRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	ReferenceID string `json:"reference_id" validate:"required"`
}

type riskRequest struct {
	RiskLevel string `json:"risk_level" validate:"required,risk_level"`
}

// creatorID resolves the target creator: admins address any creator by path
// id, creators only themselves.
func (h *Handler) creatorID(r *http.Request) (uuid.UUID, bool) {
	callerID := middleware.GetUserID(r.Context())
	if callerID == uuid.Nil {
		return uuid.Nil, false
	}

	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		return callerID, true
	}

	targetID, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.Nil, false
	}
	if targetID != callerID && middleware.GetRole(r.Context()) != jwt.RoleAdmin {
		return uuid.Nil, false
	}
	return targetID, true
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := h.creatorID(r)
	if !ok {
		response.Forbidden(w, "cannot access this creator's summary")
		return
	}

	summary, err := h.svc.GetPayoutSummary(r.Context(), creatorID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, summary)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := h.creatorID(r)
	if !ok {
		response.Forbidden(w, "cannot withdraw for this creator")
		return
	}

	var req withdrawRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.svc.Withdraw(r.Context(), creatorID, req.AmountCents, req.ReferenceID); err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero and reference_id is required")
		case errors.Is(err, ErrInsufficientFunds):
			response.BusinessError(w, "INSUFFICIENT_FUNDS", "insufficient available balance")
		case errors.Is(err, ErrInvariantViolation):
			response.InternalError(w)
		default:
			response.InternalError(w)
		}
		return
	}

	b, err := h.svc.Get(r.Context(), creatorID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, b)
}

// SetRisk is the admin override for a creator's risk tier.
func (h *Handler) SetRisk(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid creator id")
		return
	}

	var req riskRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.svc.SetRiskLevel(r.Context(), targetID, RiskLevel(req.RiskLevel)); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "creator balance not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]string{"risk_level": req.RiskLevel})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{id}/payout-summary", h.GetSummary)
	r.Post("/{id}/withdraw", h.Withdraw)
	r.With(middleware.RequireRole(jwt.RoleAdmin)).Patch("/{id}/risk", h.SetRisk)
	return r
}

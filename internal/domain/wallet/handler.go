package wallet

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

type depositRequest struct {
	OwnerUserID string `json:"owner_user_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	PaymentRef  string `json:"payment_ref" validate:"required"`
}

type lockRequest struct {
	CampaignID  string `json:"campaign_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	ReferenceID string `json:"reference_id" validate:"required"`
}

type releaseRequest struct {
	ReserveID string `json:"reserve_id" validate:"required,uuid"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	if ownerID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), ownerID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, wallet)
}

// Deposit is the manual adjustment path, admin only. Normal deposits arrive
// through the PSP webhook.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	ownerID, err := uuid.Parse(req.OwnerUserID)
	if err != nil {
		response.BadRequest(w, "invalid owner_user_id")
		return
	}

	if err := h.svc.Deposit(r.Context(), ownerID, req.AmountCents, req.PaymentRef); err != nil {
		h.writeError(w, err)
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), ownerID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, wallet)
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	if ownerID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req lockRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		response.BadRequest(w, "invalid campaign_id")
		return
	}

	reserve, err := h.svc.LockFunds(r.Context(), ownerID, campaignID, req.AmountCents, req.ReferenceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, reserve)
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	reserveID, err := uuid.Parse(req.ReserveID)
	if err != nil {
		response.BadRequest(w, "invalid reserve_id")
		return
	}

	if err := h.svc.ReleaseFunds(r.Context(), reserveID); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "consumed"})
}

// SweepReserves triggers the expired-reserve return sweep on demand.
func (h *Handler) SweepReserves(w http.ResponseWriter, r *http.Request) {
	returned, err := h.svc.ReleaseExpiredReserves(r.Context(), 500)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]int{"returned": returned})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero and all references are required")
	case errors.Is(err, ErrInsufficientFunds):
		response.BusinessError(w, "INSUFFICIENT_FUNDS", "insufficient available funds")
	case errors.Is(err, ErrReferenceConflict):
		response.BusinessError(w, "REFERENCE_CONFLICT", "reference already used with a different amount")
	case errors.Is(err, ErrReserveNotFound):
		response.NotFound(w, "reserve not found")
	case errors.Is(err, ErrReserveNotActive):
		response.BusinessError(w, "ALREADY_PROCESSED", "reserve is not active")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	r.Post("/lock", h.Lock)
	r.Post("/release", h.Release)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(jwt.RoleAdmin))
		r.Post("/deposit", h.Deposit)
		r.Post("/sweep/reserves", h.SweepReserves)
	})
	return r
}

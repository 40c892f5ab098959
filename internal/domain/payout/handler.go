package payout

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliplink/cliplink-api/internal/middleware"
	"github.com/cliplink/cliplink-api/internal/pkg/jwt"
	"github.com/cliplink/cliplink-api/internal/pkg/response"
	"github.com/cliplink/cliplink-api/internal/pkg/validator"
)

type Handler struct {
	svc       *Service
	batchSize int
}

func NewHandler(svc *Service, batchSize int) *Handler {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Handler{svc: svc, batchSize: batchSize}
}

type createRequest struct {
	EventKind string    `json:"event_kind" validate:"required,oneof=view conversion"`
	EventID   uuid.UUID `json:"event_id" validate:"required"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// Create queues a payout for a validated traffic event. Called by the
// tracking layer's job runner; retries are safe.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	var (
		entry *QueueEntry
		err   error
	)
	if req.EventKind == string(KindConversion) {
		entry, err = h.svc.CreateForConversion(r.Context(), req.EventID)
	} else {
		entry, err = h.svc.CreateForVisit(r.Context(), req.EventID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, entry)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid payout id")
		return
	}

	entry, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	callerID := middleware.GetUserID(r.Context())
	if entry.CreatorID != callerID && middleware.GetRole(r.Context()) != jwt.RoleAdmin {
		response.Forbidden(w, "cannot access this payout")
		return
	}
	response.OK(w, entry)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, err := h.svc.ListByCreator(r.Context(), creatorID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, entries)
}

// SweepRelease triggers the release sweep on demand instead of waiting for
// the worker tick.
func (h *Handler) SweepRelease(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.ReleaseEligible(r.Context(), h.batchSize)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]int{"released": count})
}

func (h *Handler) ForceRelease(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid payout id")
		return
	}

	entry, err := h.svc.ForceRelease(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, entry)
}

func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.svc.Freeze)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.svc.Cancel)
}

func (h *Handler) transitionWithReason(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, reason string) (*QueueEntry, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid payout id")
		return
	}

	var req reasonRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	entry, err := fn(r.Context(), id, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, entry)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "payout queue entry not found")
	case errors.Is(err, ErrEventNotPayable):
		response.BusinessError(w, "EVENT_NOT_PAYABLE", "event does not qualify for payout")
	case errors.Is(err, ErrBudgetExceeded):
		response.BusinessError(w, "BUDGET_EXCEEDED", "campaign budget would be exceeded")
	case errors.Is(err, ErrAlreadyTerminal):
		response.BusinessError(w, "ALREADY_PROCESSED", "payout is already in a terminal state")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotEligible):
		response.BusinessError(w, "INVALID_TRANSITION", "transition is not allowed from the current state")
	case errors.Is(err, ErrReasonRequired):
		response.BadRequest(w, "a reason is required")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, adminLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/mine", h.ListMine)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(jwt.RoleAdmin))
		if adminLimiter != nil {
			r.Use(adminLimiter)
		}
		r.Post("/", h.Create)
		r.Post("/sweep/release", h.SweepRelease)
		r.Post("/{id}/force-release", h.ForceRelease)
		r.Post("/{id}/freeze", h.Freeze)
		r.Post("/{id}/cancel", h.Cancel)
	})

	return r
}

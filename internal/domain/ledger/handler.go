package ledger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cliplink/cliplink-api/internal/middleware"
	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

type Handler struct {
	repo       *Repository
	statements *StatementService
}

func NewHandler(repo *Repository, statements *StatementService) *Handler {
	return &Handler{repo: repo, statements: statements}
}

// ListMine returns the caller's ledger entries in a date window.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.GetUserID(r.Context())

	q := r.URL.Query()
	to := time.Now().UTC()
	if v := q.Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "invalid 'to' timestamp, expected RFC3339")
			return
		}
		to = parsed
	}
	from := to.AddDate(0, -1, 0)
	if v := q.Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "invalid 'from' timestamp, expected RFC3339")
			return
		}
		from = parsed
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.ListByCreator(r.Context(), creatorID, from, to, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, entries)
}

// ExportStatement renders the caller's monthly statement and returns a
// time-limited download URL.
func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.GetUserID(r.Context())

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(w, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(w, "invalid month")
		return
	}

	stmt, err := h.statements.Export(r.Context(), creatorID, year, time.Month(month))
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, stmt)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/mine", h.ListMine)
	r.Post("/statements/{year}/{month}", h.ExportStatement)
	return r
}

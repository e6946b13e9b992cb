package customer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eatgreet/eatgreet/core"
)

// Repos yields the requesting tenant's customer repository.
type Repos func(ctx context.Context) (Repository, bool)

// Handler exposes the customer HTTP surface for the resolved tenant.
type Handler struct {
	repos Repos
	log   *slog.Logger
}

func NewHandler(repos Repos, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repos: repos, log: log}
}

// Handle mounts the customer routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Get("/{phone}", h.getByPhone)
	r.Post("/visits", h.recordVisit)

	return r
}

func (h *Handler) tenantRepo(w http.ResponseWriter, r *http.Request) (Repository, bool) {
	repo, ok := h.repos(r.Context())
	if !ok {
		core.JSONError(w, core.ErrBadRequest.WithMessage("restaurant name is required"))
		return nil, false
	}
	return repo, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		core.JSONError(w, core.ErrNotFound.WithMessage(err.Error()))
	case errors.Is(err, ErrInvalidInput):
		core.JSONError(w, core.ErrUnprocessableEntity.WithMessage(err.Error()))
	default:
		h.log.ErrorContext(r.Context(), "customer operation failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.tenantRepo(w, r)
	if !ok {
		return
	}
	out, err := repo.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, out)
}

func (h *Handler) getByPhone(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.tenantRepo(w, r)
	if !ok {
		return
	}
	c, err := repo.GetByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, c)
}

func (h *Handler) recordVisit(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.tenantRepo(w, r)
	if !ok {
		return
	}

	var in struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	c, err := repo.RecordVisit(r.Context(), in.Name, in.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, c)
}

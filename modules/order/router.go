package order

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/core"
	"github.com/eatgreet/eatgreet/modules/menu"
)

// Repos yields the requesting tenant's order repository alongside its menu
// item repository, which order creation validates line items against.
type Repos func(ctx context.Context) (Repository, menu.ItemRepository, bool)

// Handler exposes the order HTTP surface for the resolved tenant.
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

// Handle mounts the order routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats/daily", h.dailyStats)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
	r.Patch("/{id}/payment", h.updatePayment)
	r.Patch("/{id}/items/{index}/status", h.updateItemStatus)

	return r
}

func (h *Handler) tenantRepos(w http.ResponseWriter, r *http.Request) (Repository, menu.ItemRepository, bool) {
	orders, items, ok := h.repos(r.Context())
	if !ok {
		core.JSONError(w, core.ErrBadRequest.WithMessage("restaurant name is required"))
		return nil, nil, false
	}
	return orders, items, true
}

func pathID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid id"))
		return bson.ObjectID{}, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		core.JSONError(w, core.ErrNotFound.WithMessage(err.Error()))
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownMenuItem),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrLineItemOutOfRange):
		core.JSONError(w, core.ErrUnprocessableEntity.WithMessage(err.Error()))
	case errors.Is(err, ErrInvalidTransition):
		core.JSONError(w, core.ErrConflict.WithMessage(err.Error()))
	default:
		h.log.ErrorContext(r.Context(), "order operation failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orders, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	ord, err := Build(r.Context(), items, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := orders.Create(r.Context(), ord); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, ord)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}

	var filter ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			core.JSONError(w, core.ErrBadRequest.WithMessage("invalid limit"))
			return
		}
		filter.Limit = limit
	}

	out, err := orders.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ord, err := orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, ord)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	ord, err := orders.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, ord)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		PaymentStatus PaymentStatus `json:"paymentStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	ord, err := orders.UpdatePaymentStatus(r.Context(), id, in.PaymentStatus)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, ord)
}

func (h *Handler) updateItemStatus(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid item index"))
		return
	}

	var in struct {
		Status ItemStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	ord, err := orders.UpdateItemStatus(r.Context(), id, index, in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, ord)
}

func (h *Handler) dailyStats(w http.ResponseWriter, r *http.Request) {
	orders, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	stats, err := orders.DailyStats(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, stats)
}

package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/core"
	"github.com/eatgreet/eatgreet/pkg/storage"
)

// Repos yields the requesting tenant's menu repositories. Wired by the
// application to the tenant context; handlers never build repositories
// themselves.
type Repos func(ctx context.Context) (CategoryRepository, ItemRepository, bool)

// Handler exposes the menu HTTP surface for the resolved tenant.
type Handler struct {
	repos Repos
	media storage.Storage
	log   *slog.Logger
}

func NewHandler(repos Repos, media storage.Storage, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repos: repos, media: media, log: log}
}

// Handle mounts category and item routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Patch("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Patch("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
		r.Patch("/{id}/availability", h.setAvailability)
		r.Post("/{id}/image", h.uploadImage)
	})

	return r
}

func (h *Handler) tenantRepos(w http.ResponseWriter, r *http.Request) (CategoryRepository, ItemRepository, bool) {
	categories, items, ok := h.repos(r.Context())
	if !ok {
		core.JSONError(w, core.ErrBadRequest.WithMessage("restaurant name is required"))
		return nil, nil, false
	}
	return categories, items, true
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
	case errors.Is(err, ErrCategoryNotFound), errors.Is(err, ErrItemNotFound):
		core.JSONError(w, core.ErrNotFound.WithMessage(err.Error()))
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCategory):
		core.JSONError(w, core.ErrUnprocessableEntity.WithMessage(err.Error()))
	default:
		h.log.ErrorContext(r.Context(), "menu operation failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
	}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	out, err := categories.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, out)
}

type categoryRequest struct {
	Name   string          `json:"name"`
	Icon   string          `json:"icon"`
	Status *CategoryStatus `json:"status"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	categories, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}

	var in categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	c := &Category{Name: in.Name, Icon: in.Icon}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if err := categories.Create(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, c)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	categories, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := categories.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	categories, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Name   *string         `json:"name"`
		Icon   *string         `json:"icon"`
		Status *CategoryStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	c, err := categories.Update(r.Context(), id, CategoryUpdate{
		Name:   in.Name,
		Icon:   in.Icon,
		Status: in.Status,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	categories, _, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := categories.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"deleted": id.Hex()})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}

	var filter ItemFilter
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			core.JSONError(w, core.ErrBadRequest.WithMessage("invalid category filter"))
			return
		}
		filter.CategoryID = &id
	}
	filter.AvailableOnly = r.URL.Query().Get("available") == "true"

	out, err := items.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, out)
}

type itemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"categoryId"`
	Available   *bool   `json:"available"`
	ImageURL    string  `json:"imageUrl"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}

	var in itemRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	categoryID, err := bson.ObjectIDFromHex(in.CategoryID)
	if err != nil {
		core.JSONError(w, core.ErrUnprocessableEntity.WithMessage("invalid category id"))
		return
	}

	it := &Item{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  categoryID,
		Available:   true,
		ImageURL:    in.ImageURL,
	}
	if in.Available != nil {
		it.Available = *in.Available
	}
	if err := items.Create(r.Context(), it); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, it)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := items.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		CategoryID  *string  `json:"categoryId"`
		ImageURL    *string  `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	upd := ItemUpdate{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}
	if in.CategoryID != nil {
		categoryID, err := bson.ObjectIDFromHex(*in.CategoryID)
		if err != nil {
			core.JSONError(w, core.ErrUnprocessableEntity.WithMessage("invalid category id"))
			return
		}
		upd.CategoryID = &categoryID
	}

	it, err := items.Update(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := items.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"deleted": id.Hex()})
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	it, err := items.SetAvailability(r.Context(), id, in.Available)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, it)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.tenantRepos(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.media == nil {
		core.JSONError(w, core.ErrServiceUnavailable.WithMessage("media storage is not configured"))
		return
	}

	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid multipart form"))
		return
	}
	f, fh, err := r.FormFile("image")
	if err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("image file is required"))
		return
	}
	defer f.Close()
	if err := storage.ValidateImage(fh); err != nil {
		core.JSONError(w, core.ErrUnprocessableEntity.WithMessage(err.Error()))
		return
	}

	path := fmt.Sprintf("menu/%s/%s%s", id.Hex(), uuid.NewString(), filepath.Ext(fh.Filename))
	file, err := h.media.Save(r.Context(), fh, path)
	if err != nil {
		h.log.ErrorContext(r.Context(), "image upload failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	it, err := items.Update(r.Context(), id, ItemUpdate{ImageURL: &file.URL})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, it)
}

package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/core"
)

// Handler exposes the account HTTP surface.
type Handler struct {
	svc   *Service
	store Store
	log   *slog.Logger
}

func NewHandler(svc *Service, store Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, store: store, log: log}
}

// Handle mounts the auth routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.With(RequireAuth).Get("/me", h.me)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	acc, err := h.svc.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			core.JSONError(w, core.ErrConflict.WithMessage(err.Error()))
		case errors.Is(err, ErrFailedToCreate):
			h.log.ErrorContext(r.Context(), "registration failed", slog.Any("error", err))
			core.JSONError(w, core.ErrInternalServerError)
		default:
			core.JSONError(w, core.ErrUnprocessableEntity.WithMessage(err.Error()))
		}
		return
	}

	core.JSON(w, http.StatusCreated, acc)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		core.JSONError(w, core.ErrBadRequest.WithMessage("invalid request body"))
		return
	}

	acc, token, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.ErrUnauthorized.WithMessage(err.Error()))
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	core.JSON(w, http.StatusOK, loginResponse{Token: token, Account: acc})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	oid, err := bson.ObjectIDFromHex(p.AccountID)
	if err != nil {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}
	acc, err := h.store.FindByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		h.log.ErrorContext(r.Context(), "account lookup failed", slog.Any("error", err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	core.JSON(w, http.StatusOK, acc)
}

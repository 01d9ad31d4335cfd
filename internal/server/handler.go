package server

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/sentinel-dbtrace/internal/database"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// UserStore is the persistence the user handlers need.
type UserStore interface {
	List(ctx context.Context, limit int) ([]database.User, error)
	Get(ctx context.Context, id int64) (database.User, error)
	Create(ctx context.Context, name, email string) (database.User, error)
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userHandler struct {
	store  UserStore
	logger zerolog.Logger
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			WriteError(w, http.StatusBadRequest, "invalid query",
				Error{Field: "limit", Message: "must be an integer between 1 and 100"},
			)
			return
		}
		limit = n
	}

	users, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, err, "failed to list users")
		return
	}
	WriteSuccess(w, http.StatusOK, users, "")
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		WriteError(w, http.StatusBadRequest, "invalid path",
			Error{Field: "id", Message: "must be a positive integer"},
		)
		return
	}

	user, err := h.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user not found")
	case err != nil:
		h.internalError(w, r, err, "failed to get user")
	default:
		WriteSuccess(w, http.StatusOK, user, "")
	}
}

func (h *userHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid body",
			Error{Field: "body", Message: "must be a JSON object"},
		)
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		WriteError(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	user, err := h.store.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		h.internalError(w, r, err, "failed to create user")
		return
	}
	WriteSuccess(w, http.StatusCreated, user, "user created")
}

func (h *userHandler) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.Error().
		Err(err).
		Str("request_id", RequestIDFromContext(r.Context())).
		Msg(msg)
	WriteError(w, http.StatusInternalServerError, msg)
}

func (req *CreateUserRequest) validate() []Error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	var errs []Error
	if req.Name == "" {
		errs = append(errs, Error{Field: "name", Message: "is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, Error{Field: "email", Message: "must be a valid address"})
	}
	return errs
}

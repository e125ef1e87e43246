// Package users serves read-only views of the user directory.
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/credential-service/internal/auth"
	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/models"
	"github.com/ayush/credential-service/internal/store"
)

const (
	MsgUsersFetched = "Users fetched successfully"
	MsgUserFetched  = "User fetched successfully"
)

// ListData is the payload of GET /api/users.
type ListData struct {
	Users []models.PublicUser `json:"users"`
	Count int                 `json:"count"`
}

type Handler struct {
	users  store.UserStore
	logger logging.Logger
}

func NewHandler(users store.UserStore, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{users: users, logger: logger}
}

// List returns every user without passwords.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "list users", "error", err)
		auth.WriteError(w, http.StatusInternalServerError, auth.MsgServerErrorOccurred)
		return
	}

	out := make([]models.PublicUser, 0, len(all))
	for i := range all {
		out = append(out, all[i].Public())
	}
	auth.WriteJSON(w, http.StatusOK, auth.Envelope{
		Success: true,
		Message: MsgUsersFetched,
		Data:    ListData{Users: out, Count: len(out)},
	})
}

// Get returns one user by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.users.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, auth.MsgUserNotFound)
		return
	}
	if err != nil {
		h.logger.Error(r.Context(), "get user", "user_id", id, "error", err)
		auth.WriteError(w, http.StatusInternalServerError, auth.MsgServerErrorOccurred)
		return
	}

	auth.WriteJSON(w, http.StatusOK, auth.Envelope{
		Success: true,
		Message: MsgUserFetched,
		Data:    auth.UserData{User: u.Public()},
	})
}

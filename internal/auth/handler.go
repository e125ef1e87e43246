package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/models"
)

// Handler exposes the Service over HTTP.
type Handler struct {
	svc    *Service
	logger logging.Logger
}

func NewHandler(svc *Service, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{svc: svc, logger: logger}
}

// Login checks a username/password pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	h.respond(w, r, res, err)
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	h.respond(w, r, res, err)
}

// UpdateProfile changes the username and/or password of an account.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateProfile(r.Context(), req)
	h.respond(w, r, res, err)
}

// DeleteProfile removes an account after re-checking its password.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteProfileRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.DeleteProfile(r.Context(), req)
	h.respond(w, r, res, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res Result, err error) {
	if err != nil {
		h.logger.Error(r.Context(), "auth request failed", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, MsgServerErrorOccurred)
		return
	}
	WriteJSON(w, res.Status, res.Body)
}

// decode reads a JSON body into dst. An empty body decodes to the zero
// value so that field checks produce the usual "All fields required".
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	WriteError(w, http.StatusBadRequest, MsgInvalidDataFormat)
	return false
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Message: msg})
}


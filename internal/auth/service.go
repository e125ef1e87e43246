package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/models"
	"github.com/ayush/credential-service/internal/store"
)

// Envelope is the JSON body of every auth response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// UserData is the data payload carrying a single public user.
type UserData struct {
	User models.PublicUser `json:"user"`
}

// Result is an HTTP status and the envelope to send with it.
type Result struct {
	Status int
	Body   Envelope
}

func fail(status int, msg string) Result {
	return Result{Status: status, Body: Envelope{Success: false, Message: msg}}
}

func succeed(status int, msg string, data any) Result {
	return Result{Status: status, Body: Envelope{Success: true, Message: msg, Data: data}}
}

func withUser(status int, msg string, u *models.User) Result {
	return succeed(status, msg, UserData{User: u.Public()})
}

// Service implements the credential lifecycle on top of a UserStore.
//
// Every outcome the caller can act on is returned as a Result. The error
// return is reserved for unexpected store faults during the initial lookup.
type Service struct {
	users  store.UserStore
	codec  PasswordCodec
	logger logging.Logger
}

func NewService(users store.UserStore, codec PasswordCodec, logger logging.Logger) *Service {
	if codec == nil {
		codec = Base64Codec{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{users: users, codec: codec, logger: logger}
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (Result, error) {
	username := normalizeUsername(req.Username)
	if username == "" || req.Password == "" {
		return fail(http.StatusBadRequest, MsgAllFieldsRequired), nil
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusUnauthorized, MsgInvalidCredentials), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("login lookup: %w", err)
	}

	if !s.codec.Matches(u.Password, req.Password) {
		return fail(http.StatusUnauthorized, MsgInvalidCredentials), nil
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return withUser(http.StatusOK, MsgLoginSuccess, u), nil
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (Result, error) {
	username := normalizeUsername(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return fail(http.StatusBadRequest, MsgAllFieldsRequired), nil
	}

	switch {
	case !usernameLongEnough(username):
		return fail(http.StatusBadRequest, MsgUsernameShort), nil
	case !passwordLongEnough(req.Password):
		return fail(http.StatusBadRequest, MsgPasswordShort), nil
	case !validEmail(email):
		return fail(http.StatusBadRequest, MsgEmailInvalid), nil
	}

	encoded, err := s.codec.Encode(req.Password)
	if err != nil {
		s.logger.Error(ctx, "encode password", "error", err)
		return fail(http.StatusInternalServerError, MsgServerError), nil
	}

	u, err := s.users.Create(ctx, store.NewUser{
		Username: username,
		Email:    email,
		Password: encoded,
		Role:     models.RoleUser,
	})
	if err != nil {
		if store.IsDuplicateKey(err) {
			return fail(http.StatusConflict, MsgDuplicateUser), nil
		}
		s.logger.Error(ctx, "create user", "error", err)
		return fail(http.StatusInternalServerError, MsgServerError), nil
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return withUser(http.StatusCreated, MsgRegisterSuccess, u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (Result, error) {
	if req.UserID == "" || req.CurrentPassword == "" {
		return fail(http.StatusBadRequest, MsgAllFieldsRequired), nil
	}
	newUsername := normalizeUsername(req.NewUsername)
	if newUsername == "" && req.NewPassword == "" {
		return fail(http.StatusBadRequest, MsgNoChangesMade), nil
	}

	u, err := s.users.FindByID(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, MsgUserNotFound), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("update lookup: %w", err)
	}

	if !s.codec.Matches(u.Password, req.CurrentPassword) {
		return fail(http.StatusUnauthorized, MsgCurrentPasswordIncorrect), nil
	}

	var upd store.UserUpdate
	if newUsername != "" {
		if !usernameLongEnough(newUsername) {
			return fail(http.StatusBadRequest, MsgUsernameShort), nil
		}
		upd.Username = &newUsername
	}
	if req.NewPassword != "" {
		if !passwordLongEnough(req.NewPassword) {
			return fail(http.StatusBadRequest, MsgPasswordShort), nil
		}
		encoded, err := s.codec.Encode(req.NewPassword)
		if err != nil {
			s.logger.Error(ctx, "encode password", "error", err)
			return fail(http.StatusInternalServerError, MsgServerError), nil
		}
		upd.Password = &encoded
	}

	updated, err := s.users.UpdateByID(ctx, u.ID, upd)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return fail(http.StatusNotFound, MsgUserNotFound), nil
	case store.IsDuplicateKey(err):
		return fail(http.StatusConflict, MsgDuplicateUser), nil
	default:
		s.logger.Error(ctx, "update user", "user_id", u.ID, "error", err)
		return fail(http.StatusInternalServerError, MsgServerError), nil
	}

	s.logger.Info(ctx, "profile updated", "user_id", updated.ID)
	return withUser(http.StatusOK, MsgProfileUpdateSuccess, updated), nil
}

func (s *Service) DeleteProfile(ctx context.Context, req models.DeleteProfileRequest) (Result, error) {
	if req.UserID == "" || req.CurrentPassword == "" {
		return fail(http.StatusBadRequest, MsgAllFieldsRequired), nil
	}

	u, err := s.users.FindByID(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, MsgUserNotFound), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("delete lookup: %w", err)
	}

	if !s.codec.Matches(u.Password, req.CurrentPassword) {
		return fail(http.StatusUnauthorized, MsgCurrentPasswordIncorrect), nil
	}

	if _, err := s.users.DeleteByID(ctx, u.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(http.StatusNotFound, MsgUserNotFound), nil
		}
		s.logger.Error(ctx, "delete user", "user_id", u.ID, "error", err)
		return fail(http.StatusInternalServerError, MsgServerError), nil
	}

	s.logger.Info(ctx, "profile deleted", "user_id", u.ID)
	return succeed(http.StatusOK, MsgProfileDeleteSuccess, nil), nil
}

// SeedAdmin creates an admin account unless the username is already taken.
// It reports whether a record was created; an existing record is returned
// unchanged.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)

	switch {
	case username == "" || email == "" || password == "":
		return nil, false, errors.New(MsgAllFieldsRequired)
	case !usernameLongEnough(username):
		return nil, false, errors.New(MsgUsernameShort)
	case !passwordLongEnough(password):
		return nil, false, errors.New(MsgPasswordShort)
	case !validEmail(email):
		return nil, false, errors.New(MsgEmailInvalid)
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("seed lookup: %w", err)
	}

	encoded, err := s.codec.Encode(password)
	if err != nil {
		return nil, false, err
	}
	u, err := s.users.Create(ctx, store.NewUser{
		Username: username,
		Email:    email,
		Password: encoded,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, false, fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info(ctx, "admin seeded", "user_id", u.ID, "username", u.Username)
	return u, true, nil
}

// Package store holds the credential store accessors: one UserStore contract
// and its MongoDB, PostgreSQL, SQLite, Redis and in-memory implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayush/credential-service/internal/models"
)

// ErrNotFound is returned when a username or id does not resolve to a record.
var ErrNotFound = errors.New("not found")

// UserStore reads and writes single user records. Uniqueness of username and
// email is enforced by the backing store; implementations never retry.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u NewUser) (*models.User, error)
	UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error)
	DeleteByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// NewUser is the field set of a record about to be created.
// Password must already be encoded.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// UserUpdate lists the mutable fields. Nil means unchanged.
type UserUpdate struct {
	Username *string
	Password *string
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Password == nil
}

// Error is a failed store operation.
type Error struct {
	Op           string
	DuplicateKey bool
	Err          error
}

func (e *Error) Error() string {
	if e.DuplicateKey {
		return fmt.Sprintf("%s: duplicate key: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsDuplicateKey reports whether err comes from a uniqueness violation.
func IsDuplicateKey(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.DuplicateKey
}

func opError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

func duplicateError(op string, err error) error {
	return &Error{Op: op, DuplicateKey: true, Err: err}
}

// ErrInvalidRole is returned by Create for a role other than user or admin.
var ErrInvalidRole = errors.New("invalid role")

func roleOrDefault(r models.Role) (models.Role, error) {
	if r == "" {
		return models.RoleUser, nil
	}
	if !r.Valid() {
		return "", fmt.Errorf("%w %q", ErrInvalidRole, r)
	}
	return r, nil
}

package users

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// UserRepo persists user identities. Uniqueness of username and email is
// enforced by the store itself, not by a prior lookup - Create must return
// ErrDuplicateUsername or ErrDuplicateEmail on a constraint violation.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

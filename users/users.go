package users

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrMalformedHash    = errors.New("malformed password hash")
)

// User represents a registered identity. Immutable after creation apart
// from administrative flag changes, which happen outside this service.
type User struct {
	ID           string    `json:"id,omitempty"`       // Unique identifier for the user
	Username     string    `json:"username,omitempty"` // Unique username
	Email        string    `json:"email,omitempty"`    // Unique email address
	PasswordHash string    `json:"-"`                  // Bcrypt digest - never serialize
	Admin        bool      `json:"admin"`
	RegisteredAt time.Time `json:"registered_at,omitempty"`
}

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// The salt is generated per call and embedded in the returned digest, so
// verification needs no separate salt storage. Costs below bcrypt.MinCost
// fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "[HashPassword] bcrypt.GenerateFromPassword")
	}
	return string(bytes), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt
// digest. A mismatch returns ErrPasswordMismatch; a digest that cannot be
// decoded returns ErrMalformedHash. Callers must not surface the
// distinction to end users, but it matters for diagnostics.
func VerifyPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return errors.Wrap(ErrMalformedHash, err.Error())
	}
}

// CheckPasswordHash reports whether a password matches the stored digest.
func CheckPasswordHash(password, hash string) bool {
	return VerifyPassword(password, hash) == nil
}

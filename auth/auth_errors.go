package auth

import "errors"

// Registration errors are surfaced to the caller as-is. The token and login
// errors are distinguished internally for diagnostics but collapsed by the
// HTTP layer into one authentication failure to avoid credential
// enumeration.
var (
	ErrMissingField  = errors.New("missing username or password")
	ErrUsernameTaken = errors.New("username already registered")
	ErrEmailTaken    = errors.New("email already registered")

	ErrNoSuchUser  = errors.New("no such user")
	ErrBadPassword = errors.New("incorrect password")

	ErrTokenMalformed   = errors.New("invalid token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")

	ErrStoreUnavailable = errors.New("store unavailable")
)

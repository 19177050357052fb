package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Parse failure modes. Callers distinguish them with errors.Is; the HTTP
// layer collapses all three into one authentication failure.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// Claims is the decoded payload of a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec creates and parses signed, self-contained session tokens. A token
// carries its own subject and expiry, so the common verification path needs
// no store lookup - only revocation does. Issue and Parse are pure given the
// injected now and the signer's secret.
type Codec struct {
	signer Signer
}

// NewCodec creates a Codec backed by the given signer.
func NewCodec(signer Signer) *Codec {
	return &Codec{signer: signer}
}

// Issue creates a signed token for subjectID valid from now until now+ttl.
func (c *Codec) Issue(subjectID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] signer.Sign")
	}
	return signedToken, nil
}

// Parse verifies a token string against now and returns its claims.
// The signature is checked before any embedded field is trusted, so a
// tampered token reports ErrSignatureInvalid rather than merely ErrExpired.
// Expiry is inclusive: a token parsed at exactly its expiry time is expired.
func (c *Codec) Parse(tokenString string, now time.Time) (*Claims, error) {
	registered := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, registered, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !parsed.Valid || registered.Subject == "" || registered.IssuedAt == nil || registered.ExpiresAt == nil {
		return nil, ErrMalformed
	}

	return &Claims{
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}

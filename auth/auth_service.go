package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/scribehub/go-session-server/token"
	"github.com/scribehub/go-session-server/users"
)

const (
	defaultTokenTTL     = 24 * time.Hour
	defaultStoreTimeout = 5 * time.Second
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users       users.UserRepo // Repository for user identities
	Revocations token.Registry // Registry of revoked tokens
}

// Service composes the password hasher, token codec, and revocation
// registry into register/login/verify/logout operations. It is the only
// component the HTTP layer talks to; in particular the revocation check in
// Verify cannot be skipped by a caller.
type Service struct {
	repos        Repos
	codec        *token.Codec
	bcryptCost   int
	tokenTTL     time.Duration
	storeTimeout time.Duration
	nowTime      func() time.Time // nowTime function (injectable for testing)
	log          zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithBcryptCost sets the password hashing work factor.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithTokenTTL sets the lifetime of issued session tokens.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithStoreTimeout bounds every credential store and registry call.
func WithStoreTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.storeTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for internal auth diagnostics.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a new Service with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(repos Repos, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Revocations == nil {
		return nil, errors.New("[NewService] Revocations registry is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}

	service := &Service{
		repos:        repos,
		codec:        codec,
		tokenTTL:     defaultTokenTTL,
		storeTimeout: defaultStoreTimeout,
		nowTime:      time.Now,
		log:          zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register creates a new identity and issues a session token for it.
// Username and email uniqueness is enforced by the store constraint, not a
// prior lookup, so concurrent registrations cannot race.
func (s *Service) Register(ctx context.Context, username, email, password string) (*users.User, string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, "", ErrMissingField
	}

	now := s.nowTime()

	passwordHash, err := users.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Service.Register] HashPassword")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		RegisteredAt: now,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repos.Users.Create(storeCtx, user); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			return nil, "", ErrUsernameTaken
		case errors.Is(err, users.ErrDuplicateEmail):
			return nil, "", ErrEmailTaken
		default:
			return nil, "", s.storeFailure("Register", err)
		}
	}

	tokenString, err := s.codec.Issue(user.ID, now, s.tokenTTL)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Service.Register] codec.Issue")
	}

	return user, tokenString, nil
}

// Login verifies the credentials for email and issues a session token.
// ErrNoSuchUser and ErrBadPassword are distinct here for diagnostics; the
// HTTP layer renders them identically.
func (s *Service) Login(ctx context.Context, email, password string, now time.Time) (string, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repos.Users.GetByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.log.Debug().Str("reason", "unknown email").Msg("login rejected")
			return "", ErrNoSuchUser
		}
		return "", s.storeFailure("Login", err)
	}

	if err := users.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, users.ErrMalformedHash) {
			s.log.Error().Str("user_id", user.ID).Msg("stored password hash is malformed")
		} else {
			s.log.Debug().Str("reason", "password mismatch").Msg("login rejected")
		}
		return "", ErrBadPassword
	}

	tokenString, err := s.codec.Issue(user.ID, now, s.tokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Login] codec.Issue")
	}
	return tokenString, nil
}

// Verify parses a token and checks the revocation registry. It returns the
// subject identifier of a token that is well formed, correctly signed, not
// yet expired, and not revoked.
func (s *Service) Verify(ctx context.Context, tokenString string, now time.Time) (string, error) {
	claims, err := s.parseToken(tokenString, now)
	if err != nil {
		return "", err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	revoked, err := s.repos.Revocations.IsRevoked(storeCtx, tokenString)
	if err != nil {
		return "", s.storeFailure("Verify", err)
	}
	if revoked {
		return "", ErrTokenRevoked
	}

	return claims.Subject, nil
}

// Logout revokes a token ahead of its natural expiry. Revoking a token that
// is already expired or already revoked is a no-op success: the end state
// "not usable" is already achieved. A malformed or forged token is an
// error. The registry write completes before Logout returns, so any
// subsequent Verify of the same token observes the revocation.
func (s *Service) Logout(ctx context.Context, tokenString string, now time.Time) error {
	claims, err := s.parseToken(tokenString, now)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repos.Revocations.Revoke(storeCtx, tokenString, now, claims.ExpiresAt); err != nil {
		return s.storeFailure("Logout", err)
	}

	s.log.Debug().Str("subject", claims.Subject).Msg("token revoked")
	return nil
}

// UserStatus verifies a token and returns the identity it was issued to.
func (s *Service) UserStatus(ctx context.Context, tokenString string, now time.Time) (*users.User, error) {
	subjectID, err := s.Verify(ctx, tokenString, now)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	user, err := s.repos.Users.GetByID(storeCtx, subjectID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, s.storeFailure("UserStatus", err)
	}
	return user, nil
}

func (s *Service) parseToken(tokenString string, now time.Time) (*token.Claims, error) {
	claims, err := s.codec.Parse(tokenString, now)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, token.ErrSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	return claims, nil
}

func (s *Service) storeFailure(operation string, err error) error {
	s.log.Error().Err(err).Str("operation", operation).Msg("store call failed")
	return errors.Wrap(ErrStoreUnavailable, err.Error())
}

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scribehub/go-session-server/auth"
	"github.com/scribehub/go-session-server/token"
	"github.com/scribehub/go-session-server/users"
	fakeuserrepo "github.com/scribehub/go-session-server/users/repofake"
)

const (
	secretStr        = "test-secret-1234"
	testUsername     = "alice"
	testUserEmail    = "alice@x.com"
	testUserPassword = "hunter2"
	testTTL          = time.Hour
)

var testNow = time.Unix(1700000000, 0)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	registry *token.InMemoryRegistry
	codec    *token.Codec
	service  *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	registry := token.NewInMemoryRegistry()
	codec := token.NewCodec(token.NewHMACSigner(secretStr))

	service, err := auth.NewService(
		auth.Repos{Users: ur, Revocations: registry},
		codec,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithTokenTTL(testTTL),
		auth.WithNowTime(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	return &testFixture{
		userRepo: ur,
		registry: registry,
		codec:    codec,
		service:  service,
	}
}

func (f *testFixture) register(t *testing.T) (*users.User, string) {
	t.Helper()
	user, tokenString, err := f.service.Register(context.Background(), testUsername, testUserEmail, testUserPassword)
	require.NoError(t, err)
	return user, tokenString
}

// failingUserRepo reports every call as an infrastructure failure.
type failingUserRepo struct{}

func (failingUserRepo) Create(context.Context, *users.User) error {
	return errors.New("connection refused")
}
func (failingUserRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errors.New("connection refused")
}
func (failingUserRepo) GetByID(context.Context, string) (*users.User, error) {
	return nil, errors.New("connection refused")
}

// failingRegistry reports every call as an infrastructure failure.
type failingRegistry struct{}

func (failingRegistry) Revoke(context.Context, string, time.Time, time.Time) error {
	return errors.New("connection refused")
}
func (failingRegistry) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(secretStr))

	_, err := auth.NewService(auth.Repos{}, codec)
	require.Error(t, err)

	_, err = auth.NewService(auth.Repos{Users: fakeuserrepo.NewFakeUserRepo()}, codec)
	require.Error(t, err)

	_, err = auth.NewService(auth.Repos{
		Users:       fakeuserrepo.NewFakeUserRepo(),
		Revocations: token.NewInMemoryRegistry(),
	}, nil)
	require.Error(t, err)
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := setupTestFixture(t)

	user, tokenString := f.register(t)
	require.NotEmpty(t, user.ID)
	require.Equal(t, testUsername, user.Username)
	require.True(t, user.RegisteredAt.Equal(testNow))
	require.NotEqual(t, testUserPassword, user.PasswordHash)

	subjectID, err := f.service.Verify(context.Background(), tokenString, testNow)
	require.NoError(t, err)
	require.Equal(t, user.ID, subjectID)
}

func TestRegisterMissingFields(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "no username", username: "", password: testUserPassword},
		{name: "blank username", username: "   ", password: testUserPassword},
		{name: "no password", username: testUsername, password: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.service.Register(context.Background(), tc.username, testUserEmail, tc.password)
			require.ErrorIs(t, err, auth.ErrMissingField)
		})
	}
}

func TestRegisterDuplicateGuard(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, _, err := f.service.Register(context.Background(), testUsername, "other@x.com", testUserPassword)
	require.ErrorIs(t, err, auth.ErrUsernameTaken)

	_, _, err = f.service.Register(context.Background(), "bob", testUserEmail, testUserPassword)
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	user, _ := f.register(t)

	tokenString, err := f.service.Login(context.Background(), testUserEmail, testUserPassword, testNow)
	require.NoError(t, err)

	subjectID, err := f.service.Verify(context.Background(), tokenString, testNow)
	require.NoError(t, err)
	require.Equal(t, user.ID, subjectID)
}

func TestLoginFailures(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Login(context.Background(), "nouser@x.com", "x", testNow)
	require.ErrorIs(t, err, auth.ErrNoSuchUser)

	_, err = f.service.Login(context.Background(), testUserEmail, "wrong-password", testNow)
	require.ErrorIs(t, err, auth.ErrBadPassword)
}

func TestVerifyExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	_, tokenString := f.register(t)

	_, err := f.service.Verify(context.Background(), tokenString, testNow.Add(testTTL))
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestVerifyRejectsMalformedAndForgedTokens(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Verify(context.Background(), "not-a-token", testNow)
	require.ErrorIs(t, err, auth.ErrTokenMalformed)

	foreign := token.NewCodec(token.NewHMACSigner("some-other-secret"))
	forged, err := foreign.Issue("user-1", testNow, testTTL)
	require.NoError(t, err)

	_, err = f.service.Verify(context.Background(), forged, testNow)
	require.ErrorIs(t, err, auth.ErrSignatureInvalid)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := setupTestFixture(t)
	_, tokenString := f.register(t)

	require.NoError(t, f.service.Logout(context.Background(), tokenString, testNow))

	// The signature and expiry are still fine - only the registry layer
	// rejects the token now.
	claims, err := f.codec.Parse(tokenString, testNow)
	require.NoError(t, err)
	require.NotNil(t, claims)

	_, err = f.service.Verify(context.Background(), tokenString, testNow)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	_, tokenString := f.register(t)

	require.NoError(t, f.service.Logout(context.Background(), tokenString, testNow))
	require.NoError(t, f.service.Logout(context.Background(), tokenString, testNow))

	_, err := f.service.Verify(context.Background(), tokenString, testNow)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestLogoutExpiredTokenIsNoOp(t *testing.T) {
	f := setupTestFixture(t)
	_, tokenString := f.register(t)

	require.NoError(t, f.service.Logout(context.Background(), tokenString, testNow.Add(2*testTTL)))
	require.Equal(t, 0, f.registry.Len())
}

func TestLogoutRejectsInvalidToken(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.Logout(context.Background(), "not-a-token", testNow)
	require.ErrorIs(t, err, auth.ErrTokenMalformed)

	foreign := token.NewCodec(token.NewHMACSigner("some-other-secret"))
	forged, err := foreign.Issue("user-1", testNow, testTTL)
	require.NoError(t, err)

	err = f.service.Logout(context.Background(), forged, testNow)
	require.ErrorIs(t, err, auth.ErrSignatureInvalid)
	require.Equal(t, 0, f.registry.Len())
}

func TestStoreFailureSurfacesAsStoreUnavailable(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(secretStr))

	failingUsers, err := auth.NewService(
		auth.Repos{Users: failingUserRepo{}, Revocations: token.NewInMemoryRegistry()},
		codec,
		auth.WithBcryptCost(bcrypt.MinCost),
	)
	require.NoError(t, err)

	_, _, err = failingUsers.Register(context.Background(), testUsername, testUserEmail, testUserPassword)
	require.ErrorIs(t, err, auth.ErrStoreUnavailable)

	_, err = failingUsers.Login(context.Background(), testUserEmail, testUserPassword, testNow)
	require.ErrorIs(t, err, auth.ErrStoreUnavailable)

	failingRevocations, err := auth.NewService(
		auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Revocations: failingRegistry{}},
		codec,
	)
	require.NoError(t, err)

	// A perfectly valid token: only the registry lookup fails.
	tokenString, err := codec.Issue("user-1", testNow, testTTL)
	require.NoError(t, err)

	_, err = failingRevocations.Verify(context.Background(), tokenString, testNow)
	require.ErrorIs(t, err, auth.ErrStoreUnavailable)

	err = failingRevocations.Logout(context.Background(), tokenString, testNow)
	require.ErrorIs(t, err, auth.ErrStoreUnavailable)
}

func TestRevocationIsPerToken(t *testing.T) {
	f := setupTestFixture(t)
	user, firstToken := f.register(t)

	// A second token for the same user, issued a second later so the two
	// serialized values differ.
	secondToken, err := f.service.Login(context.Background(), testUserEmail, testUserPassword, testNow.Add(time.Second))
	require.NoError(t, err)
	require.NotEqual(t, firstToken, secondToken)

	require.NoError(t, f.service.Logout(context.Background(), firstToken, testNow))

	_, err = f.service.Verify(context.Background(), firstToken, testNow)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)

	subjectID, err := f.service.Verify(context.Background(), secondToken, testNow.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, user.ID, subjectID)
}

func TestUserStatus(t *testing.T) {
	f := setupTestFixture(t)
	user, tokenString := f.register(t)

	got, err := f.service.UserStatus(context.Background(), tokenString, testNow)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, testUserEmail, got.Email)
	require.False(t, got.Admin)

	require.NoError(t, f.service.Logout(context.Background(), tokenString, testNow))

	_, err = f.service.UserStatus(context.Background(), tokenString, testNow)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

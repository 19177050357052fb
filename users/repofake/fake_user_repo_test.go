package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scribehub/go-session-server/users"
	fakeuserrepo "github.com/scribehub/go-session-server/users/repofake"
)

func TestCreateEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	first := &users.User{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, first))
	require.NotEmpty(t, first.ID)

	err := repo.Create(ctx, &users.User{Username: "alice", Email: "other@x.com"})
	require.ErrorIs(t, err, users.ErrDuplicateUsername)

	err = repo.Create(ctx, &users.User{Username: "other", Email: "alice@x.com"})
	require.ErrorIs(t, err, users.ErrDuplicateEmail)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	user := &users.User{Username: "alice", Email: "alice@x.com"}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, users.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, users.ErrNotFound)
}

package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/dbtest"
	"github.com/devops-offer/offer/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	return NewRepository(dbtest.Open(t).DB)
}

func newUser(username, email string) *entities.User {
	return &entities.User{Username: username, Email: email, HashedPassword: "hash"}
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := newUser("alice", "alice@x.com")
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive, "active by default")
	assert.False(t, user.IsSuperuser)

	err := repo.Create(ctx, newUser("alice", "other@x.com"))
	assert.ErrorIs(t, err, database.ErrConflict)

	err = repo.Create(ctx, newUser("other", "alice@x.com"))
	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestRepository_Lookups(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := newUser("alice", "Alice@X.com")
	require.NoError(t, repo.Create(ctx, user))

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.GetByLogin(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.GetByLogin(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Taken(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	alice := newUser("alice", "alice@x.com")
	require.NoError(t, repo.Create(ctx, alice))

	u, e, err := repo.Taken(ctx, "alice", "ALICE@x.com", 0)
	require.NoError(t, err)
	assert.True(t, u)
	assert.True(t, e)

	u, e, err = repo.Taken(ctx, "alice", "alice@x.com", alice.ID)
	require.NoError(t, err)
	assert.False(t, u, "own username is not taken")
	assert.False(t, e)

	u, e, err = repo.Taken(ctx, "bob", "bob@x.com", 0)
	require.NoError(t, err)
	assert.False(t, u)
	assert.False(t, e)
}

func TestRepository_SaveAndSetPassword(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := newUser("alice", "alice@x.com")
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.Create(ctx, newUser("bob", "bob@x.com")))

	user.IsSuperuser = true
	require.NoError(t, repo.Save(ctx, user))
	n, err := repo.CountSuperusers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	user.Username = "bob"
	assert.ErrorIs(t, repo.Save(ctx, user), database.ErrConflict)

	require.NoError(t, repo.SetPassword(ctx, user.ID, "new-hash"))
	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.HashedPassword)
	assert.Equal(t, "alice", reloaded.Username)

	assert.ErrorIs(t, repo.SetPassword(ctx, 999, "x"), database.ErrNotFound)
}

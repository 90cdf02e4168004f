package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pm-log-viewer/internal/repository"
)

func TestUserRepo_CreateAndVerify(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	id, err := users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := users.VerifyCredentials(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = users.VerifyCredentials(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	_, err = users.VerifyCredentials(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	_, err = users.Create(ctx, "alice", "other")
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestUserRepo_UsernamesAreCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	_, err := users.Create(ctx, "Alice", "secret1")
	require.NoError(t, err)

	_, err = users.VerifyCredentials(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestUserRepo_VerifyStampsLastLogin(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	_, err := users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].LastLogin.Valid, "no login recorded yet")

	_, err = users.VerifyCredentials(ctx, "alice", "secret1")
	require.NoError(t, err)

	list, err = users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].LastLogin.Valid)
}

// A stored digest without the salt separator fails verification instead
// of erroring out.
func TestUserRepo_MalformedStoredDigest(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	id, err := users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE users SET password_hash='nodollar' WHERE id=?", id)
	require.NoError(t, err)

	_, err = users.VerifyCredentials(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestUserRepo_ChangePassword(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	_, err := users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, users.ChangePassword(ctx, "alice", "newpass"))

	_, err = users.VerifyCredentials(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
	_, err = users.VerifyCredentials(ctx, "alice", "newpass")
	assert.NoError(t, err)

	assert.ErrorIs(t, users.ChangePassword(ctx, "nobody", "x"), repository.ErrUserNotFound)
}

func TestUserRepo_DeleteCascadesSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db, time.Hour)

	id, err := users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = sessions.Create(ctx, id)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, "alice"))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sessions"))
	assert.Zero(t, n, "sessions must go with their user")

	assert.ErrorIs(t, users.Delete(ctx, "alice"), repository.ErrUserNotFound)
}

func TestUserRepo_ListAndCount(t *testing.T) {
	db := newTestDB(t)
	ctx := testCtx(t)
	users := repository.NewUserRepo(db)

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := users.Create(ctx, name, "secret1")
		require.NoError(t, err)
	}

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
	assert.Equal(t, "carol", list[2].Username)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"playshelf/internal/models"
	"playshelf/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDiscordConnectionRepository_Reconcile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDiscordConnectionRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	first, err := repo.Reconcile(ctx, LinkedIdentity{
		DiscordID:    "80351110224678912",
		Username:     "nelly",
		Avatar:       strPtr("https://cdn.discordapp.com/avatars/80351110224678912/hash.png"),
		AccessToken:  strPtr("sealed-access"),
		RefreshToken: strPtr("sealed-refresh"),
		ExpiresAt:    &expires,
	})
	require.NoError(t, err)
	require.NotNil(t, first.DiscordID)
	assert.Equal(t, "80351110224678912", *first.DiscordID)
	require.NotNil(t, first.DiscordConnection)
	assert.Equal(t, "nelly", first.DiscordConnection.DiscordUsername)

	var profile models.UserProfile
	require.NoError(t, db.First(&profile, "user_id = ?", first.ID).Error)
	assert.Equal(t, "nelly", profile.Username)

	t.Run("second login reuses the user and keeps one connection", func(t *testing.T) {
		again, err := repo.Reconcile(ctx, LinkedIdentity{
			DiscordID: "80351110224678912",
			Username:  "nelly2",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		var users, conns int64
		db.Model(&models.User{}).Count(&users)
		db.Model(&models.DiscordConnection{}).Count(&conns)
		assert.Equal(t, int64(1), users)
		assert.Equal(t, int64(1), conns)

		conn, err := repo.GetByUserID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "nelly2", conn.DiscordUsername)
		require.NotNil(t, conn.AccessToken, "tokens survive a login without tokens")
		assert.Equal(t, "sealed-access", *conn.AccessToken)

		require.NoError(t, db.First(&profile, "user_id = ?", first.ID).Error)
		assert.Equal(t, "nelly2", profile.Username)
	})

	t.Run("connection-only rows are matched", func(t *testing.T) {
		legacy := testutil.CreateUser(t, db, "", "")
		require.NoError(t, db.Create(&models.DiscordConnection{UserID: legacy.ID, DiscordID: "555", DiscordUsername: "old"}).Error)

		u, err := repo.Reconcile(ctx, LinkedIdentity{DiscordID: "555", Username: "old"})
		require.NoError(t, err)
		assert.Equal(t, legacy.ID, u.ID)
	})
}

func TestDiscordConnectionRepository_UpsertAndTokens(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDiscordConnectionRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "", "")

	conn, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, conn)

	conn, err = repo.Upsert(ctx, user.ID, LinkedIdentity{DiscordID: "77", Username: models.UnknownUsername})
	require.NoError(t, err)
	assert.False(t, conn.HasTokens())

	expires := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateTokens(ctx, user.ID, strPtr("a"), strPtr("r"), &expires))
	conn, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, conn.HasTokens())

	require.NoError(t, repo.UpdateTokens(ctx, user.ID, strPtr("a2"), nil, &expires))
	conn, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", *conn.AccessToken)
	assert.Equal(t, "r", *conn.RefreshToken)

	err = repo.UpdateTokens(ctx, uuid.New(), strPtr("a"), nil, nil)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestDiscordConnectionRepository_SearchUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDiscordConnectionRepository(db)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "100", "Zed")
	alice := testutil.CreateUser(t, db, "200", "Alice")
	_ = testutil.CreateUser(t, db, "300", "alicia_b")
	_ = testutil.CreateUser(t, db, "400", "bob")
	_ = testutil.CreateUser(t, db, "500", "100%_real")

	t.Run("substring is case-insensitive and ordered", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, UserSearch{Query: "ALI", Requester: me.ID})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, alice.ID, users[0].ID)
		assert.Equal(t, "alicia_b", users[1].DisplayName())
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, UserSearch{Query: "%_", Requester: me.ID})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "100%_real", users[0].DisplayName())
	})

	t.Run("numeric query matches exactly", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, UserSearch{Query: "200", Requester: me.ID})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)

		users, err = repo.SearchUsers(ctx, UserSearch{Query: "20", Requester: me.ID})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("requester excluded unless asked", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, UserSearch{Query: "100", Requester: me.ID})
		require.NoError(t, err)
		assert.Empty(t, users)

		users, err = repo.SearchUsers(ctx, UserSearch{Query: "100", Requester: me.ID, IncludeSelf: true})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, me.ID, users[0].ID)
	})
}

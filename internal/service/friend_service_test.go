package service

import (
	"context"
	"errors"
	"testing"

	"playshelf/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedUser(id uuid.UUID, discordID, username string) models.User {
	avatar := "https://cdn.discordapp.com/embed/avatars/0.png"
	return models.User{
		ID:        id,
		DiscordID: &discordID,
		DiscordConnection: &models.DiscordConnection{
			UserID:          id,
			DiscordID:       discordID,
			DiscordUsername: username,
			DiscordAvatar:   &avatar,
		},
	}
}

func assertAppErrorCode(t *testing.T, err error, code, message string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestFriendService_AddFriend(t *testing.T) {
	ctx := context.Background()
	me := uuid.New()
	other := uuid.New()

	t.Run("rejects self", func(t *testing.T) {
		svc := NewFriendService(&friendRepoStub{}, &userRepoStub{})
		_, err := svc.AddFriend(ctx, me, me)
		assertAppErrorCode(t, err, models.CodeValidation, "You cannot add yourself as a friend")
	})

	t.Run("unknown target", func(t *testing.T) {
		users := &userRepoStub{existsFn: func(context.Context, uuid.UUID) (bool, error) { return false, nil }}
		svc := NewFriendService(&friendRepoStub{}, users)
		_, err := svc.AddFriend(ctx, me, other)
		assertAppErrorCode(t, err, models.CodeNotFound, "User not found")
	})

	t.Run("existing edge writes nothing", func(t *testing.T) {
		created := false
		users := &userRepoStub{existsFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil }}
		friends := &friendRepoStub{
			existsFn: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil },
			createFn: func(context.Context, *models.FriendConnection) error { created = true; return nil },
		}
		res, err := NewFriendService(friends, users).AddFriend(ctx, me, other)
		require.NoError(t, err)
		assert.True(t, res.AlreadyFriends)
		assert.Nil(t, res.Friend)
		assert.False(t, created)
	})

	t.Run("concurrent insert reported as already friends", func(t *testing.T) {
		users := &userRepoStub{existsFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil }}
		friends := &friendRepoStub{
			existsFn: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil },
			createFn: func(context.Context, *models.FriendConnection) error {
				return models.NewConflictError("Friend already added")
			},
		}
		res, err := NewFriendService(friends, users).AddFriend(ctx, me, other)
		require.NoError(t, err)
		assert.True(t, res.AlreadyFriends)
	})

	t.Run("creates directed edge", func(t *testing.T) {
		var edge *models.FriendConnection
		users := &userRepoStub{
			existsFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil },
			getByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
				u := connectedUser(id, "123", "bob")
				return &u, nil
			},
		}
		friends := &friendRepoStub{
			existsFn: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil },
			createFn: func(_ context.Context, e *models.FriendConnection) error { edge = e; return nil },
		}
		res, err := NewFriendService(friends, users).AddFriend(ctx, me, other)
		require.NoError(t, err)
		require.NotNil(t, edge)
		assert.Equal(t, me, edge.UserID)
		assert.Equal(t, other, edge.FriendID)
		require.NotNil(t, res.Friend)
		assert.Equal(t, "bob", res.Friend.Username)
		assert.True(t, res.Friend.IsConnected)
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		boom := errors.New("db down")
		users := &userRepoStub{existsFn: func(context.Context, uuid.UUID) (bool, error) { return false, boom }}
		_, err := NewFriendService(&friendRepoStub{}, users).AddFriend(ctx, me, other)
		assert.ErrorIs(t, err, boom)
	})
}

func TestFriendService_ListFriends(t *testing.T) {
	me := uuid.New()
	friends := &friendRepoStub{
		listFriendsFn: func(context.Context, uuid.UUID) ([]models.User, error) {
			return []models.User{connectedUser(uuid.New(), "1", "alice"), {ID: uuid.New()}}, nil
		},
	}
	out, err := NewFriendService(friends, &userRepoStub{}).ListFriends(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "alice", out[0].Username)
	assert.Equal(t, models.UnknownUsername, out[1].Username)
	assert.Nil(t, out[1].Avatar)
	for _, f := range out {
		assert.True(t, f.IsConnected)
	}
}

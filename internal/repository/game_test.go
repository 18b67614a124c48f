package repository

import (
	"context"
	"errors"
	"testing"

	"playshelf/internal/models"
	"playshelf/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "1", "alice")
	bob := testutil.CreateUser(t, db, "2", "bob")

	var hades, celeste models.Game

	t.Run("catalog find or create", func(t *testing.T) {
		got, err := repo.FindCatalog(ctx, 1113, models.PlatformPC)
		require.NoError(t, err)
		assert.Nil(t, got)

		hades = models.Game{IGDBID: 1113, Name: "Hades", Platform: models.PlatformPC}
		require.NoError(t, repo.CreateCatalog(ctx, &hades))

		dup := models.Game{IGDBID: 1113, Name: "Hades", Platform: models.PlatformPC}
		err = repo.CreateCatalog(ctx, &dup)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeConflict, appErr.Code)

		other := models.Game{IGDBID: 1113, Name: "Hades", Platform: models.PlatformNintendoSwitch}
		require.NoError(t, repo.CreateCatalog(ctx, &other), "same title on another platform is a new row")

		got, err = repo.FindCatalog(ctx, 1113, models.PlatformPC)
		require.NoError(t, err)
		assert.Equal(t, hades.ID, got.ID)

		celeste = testutil.CreateGame(t, db, 26226, "Celeste", models.PlatformPC)
	})

	t.Run("ownership", func(t *testing.T) {
		require.NoError(t, repo.AddOwnership(ctx, &models.UserGame{UserID: alice.ID, GameID: hades.ID}))
		require.NoError(t, repo.AddOwnership(ctx, &models.UserGame{UserID: alice.ID, GameID: celeste.ID}))
		require.NoError(t, repo.AddOwnership(ctx, &models.UserGame{UserID: bob.ID, GameID: hades.ID}))

		err := repo.AddOwnership(ctx, &models.UserGame{UserID: alice.ID, GameID: hades.ID})
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("library is ordered by name", func(t *testing.T) {
		lib, err := repo.Library(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, lib, 2)
		assert.Equal(t, "Celeste", lib[0].Game.Name)
		assert.Equal(t, "Hades", lib[1].Game.Name)
	})

	t.Run("ownerships and owners", func(t *testing.T) {
		rows, err := repo.Ownerships(ctx, []uuid.UUID{alice.ID, bob.ID})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		for _, r := range rows {
			assert.True(t, r.OwnedByUser)
		}

		owners, err := repo.OwnersOf(ctx, []uint{hades.ID}, []uuid.UUID{bob.ID})
		require.NoError(t, err)
		require.Len(t, owners, 1)
		assert.Equal(t, bob.ID, owners[0].UserID)
	})

	t.Run("remove touches one row", func(t *testing.T) {
		n, err := repo.RemoveOwnership(ctx, alice.ID, hades.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.RemoveOwnership(ctx, alice.ID, hades.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		var games, bobRows int64
		db.Model(&models.Game{}).Where("id = ?", hades.ID).Count(&games)
		db.Model(&models.UserGame{}).Where("user_id = ?", bob.ID).Count(&bobRows)
		assert.Equal(t, int64(1), games)
		assert.Equal(t, int64(1), bobRows)
	})
}

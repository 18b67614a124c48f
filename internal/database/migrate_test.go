package database

import (
	"context"
	"testing"
	"testing/fstest"

	"playshelf/internal/config"
	"playshelf/internal/models"
	"playshelf/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shelfMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/000001_shelves.up.sql":      {Data: []byte("CREATE TABLE shelves (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")},
		"m/000001_shelves.down.sql":    {Data: []byte("DROP TABLE shelves")},
		"m/000002_shelf_tags.up.sql":   {Data: []byte("CREATE TABLE shelf_tags (shelf_id INTEGER NOT NULL, tag TEXT NOT NULL)")},
		"m/000002_shelf_tags.down.sql": {Data: []byte("DROP TABLE shelf_tags")},
		"m/README.md":                  {Data: []byte("ignored")},
	}
}

func TestParseMigrations(t *testing.T) {
	ms, err := parseMigrations(shelfMigrations(), "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "shelf_tags", ms[1].Name)
	assert.Equal(t, "DROP TABLE shelves", ms[0].DownScript)

	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "missing down script",
			fsys: fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("SELECT 1")}},
			want: "no down script",
		},
		{
			name: "bad version",
			fsys: fstest.MapFS{
				"m/one_a.up.sql":   {Data: []byte("SELECT 1")},
				"m/one_a.down.sql": {Data: []byte("SELECT 1")},
			},
			want: "expected NNNNNN_name.up.sql",
		},
		{
			name: "reused version",
			fsys: fstest.MapFS{
				"m/000001_a.up.sql":   {Data: []byte("SELECT 1")},
				"m/000001_a.down.sql": {Data: []byte("SELECT 1")},
				"m/1_b.up.sql":        {Data: []byte("SELECT 1")},
				"m/1_b.down.sql":      {Data: []byte("SELECT 1")},
			},
			want: "used by both",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMigrations(tt.fsys, "m")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestMigrator_UpDown(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	ms, err := parseMigrations(shelfMigrations(), "m")
	require.NoError(t, err)
	m := &Migrator{db: db, migrations: ms}

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("shelves"))
	assert.True(t, db.Migrator().HasTable("shelf_tags"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a second run applies nothing")

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, ms[1].Checksum, applied[1].Checksum)

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("shelf_tags"))
	assert.ErrorContains(t, m.Down(ctx, 2), "has not been applied")
	assert.ErrorContains(t, m.Down(ctx, 9), "not found")

	pending, err = m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "000002_shelf_tags", pending[0].String())
}

func TestMigrator_FailedScriptIsNotRecorded(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	fsys := shelfMigrations()
	fsys["m/000003_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE shelves (id INTEGER)")}
	fsys["m/000003_broken.down.sql"] = &fstest.MapFile{Data: []byte("SELECT 1")}
	ms, err := parseMigrations(fsys, "m")
	require.NoError(t, err)
	m := &Migrator{db: db, migrations: ms}

	n, err := m.Up(ctx)
	assert.ErrorContains(t, err, "000003_broken")
	assert.Equal(t, 2, n)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
}

func TestMigrator_RejectsDrift(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	ms, err := parseMigrations(shelfMigrations(), "m")
	require.NoError(t, err)

	_, err = (&Migrator{db: db, migrations: ms}).Up(ctx)
	require.NoError(t, err)

	edited := append([]Migration(nil), ms...)
	edited[0].Checksum = "0000000000000000"
	_, err = (&Migrator{db: db, migrations: edited}).Up(ctx)
	assert.ErrorContains(t, err, "000001_shelves")
	assert.ErrorContains(t, err, "changed after being applied")

	_, err = (&Migrator{db: db, migrations: ms[:1]}).Up(ctx)
	assert.ErrorContains(t, err, "does not ship: 000002_shelf_tags")
}

func TestApplySchema_AutoModeHasEveryGuard(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}
	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	assert.Empty(t, missingGuards(db))

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, SchemaModeAuto, status.Mode)
	assert.False(t, status.WillRunSQL)
	assert.Empty(t, status.MissingGuards)

	u := testutil.CreateUser(t, db, "1", "solo")
	err = db.Omit("User", "Friend").Create(&models.FriendConnection{UserID: u.ID, FriendID: u.ID}).Error
	assert.Error(t, err, "the database rejects self edges")

	err = db.Omit("User", "Friend").Create(&models.FriendConnection{UserID: u.ID, FriendID: uuid.New()}).Error
	assert.Error(t, err, "edges need an existing friend")
}

func TestMissingGuards_ReportsAbsentIndexes(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, db.Exec("DROP INDEX idx_games_igdb_platform").Error)
	assert.Equal(t, []string{"idx_games_igdb_platform"}, missingGuards(db))
}

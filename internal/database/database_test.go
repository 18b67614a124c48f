package database

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"playshelf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("db", "5432", "u", "p", "playshelf", "")
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=playshelf sslmode=disable", dsn)
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(slog.Default(), logger.Warn)
	silent := l.LogMode(logger.Silent).(*CustomGormLogger)
	assert.Equal(t, logger.Silent, silent.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel)

	// Silent mode must not call fc.
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		t.Fatal("fc should not be called when silent")
		return "", 0
	}, nil)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		wantMode    string
		wantSQL     bool
		wantAuto    bool
		expectError bool
	}{
		{"Hybrid Development", config.Config{Env: "development"}, SchemaModeHybrid, true, true, false},
		{"Hybrid Staging", config.Config{Env: "staging", DBSchemaMode: "hybrid"}, SchemaModeHybrid, true, false, false},
		{"SQL Only", config.Config{Env: "development", DBSchemaMode: " SQL "}, SchemaModeSQL, true, false, false},
		{"Auto Development", config.Config{Env: "development", DBSchemaMode: "auto"}, SchemaModeAuto, false, true, false},
		{"Auto Production Refused", config.Config{Env: "production", DBSchemaMode: "auto"}, "", false, false, true},
		{"Auto Production Allowed", config.Config{Env: "production", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, SchemaModeAuto, false, true, false},
		{"Unknown Mode", config.Config{DBSchemaMode: "yolo"}, "", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planSchema(&tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, plan.mode)
			assert.Equal(t, tt.wantSQL, plan.runSQL)
			assert.Equal(t, tt.wantAuto, plan.runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "000001_init_schema", ms[0].String())
	assert.Equal(t, "000002_username_search_index", ms[1].String())
	assert.Contains(t, ms[0].UpScript, "CONSTRAINT chk_friend_connections_not_self")
	assert.Contains(t, ms[0].DownScript, "DROP TABLE IF EXISTS users")
	assert.Len(t, ms[0].Checksum, 16)
	assert.NotEqual(t, ms[0].Checksum, ms[1].Checksum)
}

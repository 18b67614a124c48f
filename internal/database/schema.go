package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"playshelf/internal/config"
	"playshelf/internal/middleware"
	"playshelf/internal/models"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaGuard is a database-level rule the repositories depend on. The
// unique indexes turn duplicate friend edges, ownerships and catalog rows
// into conflicts; the check keeps users from befriending themselves.
type schemaGuard struct {
	model any
	name  string
	index bool
}

var schemaGuards = []schemaGuard{
	{&models.User{}, "idx_users_discord_id", true},
	{&models.DiscordConnection{}, "idx_discord_connections_user_id", true},
	{&models.FriendConnection{}, "idx_friend_connections_pair", true},
	{&models.FriendConnection{}, models.FriendNotSelfConstraint, false},
	{&models.Game{}, "idx_games_igdb_platform", true},
	{&models.UserGame{}, "idx_user_games_pair", true},
}

// SchemaStatus describes what ApplySchema would do and what is already in place.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	Applied            []AppliedMigration
	PendingMigrations  []Migration
	MissingGuards      []string
}

type schemaPlan struct {
	mode    string
	runSQL  bool
	runAuto bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// planSchema resolves DB_SCHEMA_MODE for the environment. Hybrid runs the
// SQL migrations everywhere and lets AutoMigrate fill in columns only
// outside production-like environments.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return schemaPlan{mode: mode, runSQL: true}, nil
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return schemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return schemaPlan{mode: mode, runAuto: true}, nil
	case SchemaModeHybrid:
		return schemaPlan{mode: mode, runSQL: true, runAuto: !prodLike}, nil
	default:
		return schemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// missingGuards lists the schema guards db does not have.
func missingGuards(db *gorm.DB) []string {
	mig := db.Migrator()
	var missing []string
	for _, g := range schemaGuards {
		var present bool
		if g.index {
			present = mig.HasIndex(g.model, g.name)
		} else {
			present = mig.HasConstraint(g.model, g.name)
		}
		if !present {
			missing = append(missing, g.name)
		}
	}
	return missing
}

// ApplySchema brings db up to date and fails if any schema guard is absent
// afterwards.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.runAuto {
		if plan.mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.mode), slog.String("env", cfg.Env))
		if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingGuards(db.WithContext(ctx)); len(missing) > 0 {
		return fmt.Errorf("schema is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and the current migration state.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.runSQL,
		WillRunAutoMigrate: plan.runAuto,
		MissingGuards:      missingGuards(db.WithContext(ctx)),
	}

	m, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.Applied, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.PendingMigrations, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"playshelf/internal/middleware"

	"gorm.io/gorm"
)

// AppliedMigration is a row of playshelf_migrations.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:16"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the bookkeeping table name.
func (AppliedMigration) TableName() string {
	return "playshelf_migrations"
}

// Migrator applies SQL migrations and records each one in
// playshelf_migrations in the same transaction as its script.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: all}, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("ensure playshelf_migrations: %w", err)
	}
	return nil
}

// Applied returns the recorded migrations, oldest first. A database that
// was never migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	if !m.db.WithContext(ctx).Migrator().HasTable(&AppliedMigration{}) {
		return nil, nil
	}
	var rows []AppliedMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	return rows, nil
}

// Pending returns the migrations not yet recorded.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns how many ran. It refuses
// to run when the database records versions this binary does not know or
// when an applied script was edited afterwards.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.verify(applied); err != nil {
		return 0, err
	}

	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}

	ran := 0
	for _, mig := range m.migrations {
		if done[mig.Version] {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&AppliedMigration{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s failed: %w", mig, err)
		}
		ran++
	}
	return ran, nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := m.find(version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	recorded := false
	for _, a := range applied {
		if a.Version == version {
			recorded = true
			break
		}
	}
	if !recorded {
		return fmt.Errorf("migration %s has not been applied", mig)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig, err)
		}
		return tx.Where("version = ?", version).Delete(&AppliedMigration{}).Error
	})
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

// verify compares the recorded history with the embedded migrations.
func (m *Migrator) verify(applied []AppliedMigration) error {
	var unknown, edited []string
	for _, a := range applied {
		mig, ok := m.find(a.Version)
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d_%s", a.Version, a.Name))
		case a.Checksum != "" && a.Checksum != mig.Checksum:
			edited = append(edited, mig.String())
		}
	}
	sort.Strings(unknown)
	if len(unknown) > 0 {
		return fmt.Errorf("playshelf_migrations records versions this build does not ship: %s",
			strings.Join(unknown, ", "))
	}
	if len(edited) > 0 {
		return fmt.Errorf("migrations changed after being applied: %s; add a new migration instead",
			strings.Join(edited, ", "))
	}
	return nil
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	n, err := m.Up(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("SQL migrations up to date", slog.Int("applied", n))
	return nil
}

// RollbackMigration reverts the embedded migration with the given version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	return m.Down(ctx, version)
}

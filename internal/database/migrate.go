package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one embedded up/down SQL pair. Checksum covers the up script
// so an edited migration is noticed after it has been applied.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
	Checksum   string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	embeddedOnce sync.Once
	embedded     []Migration
	embeddedErr  error
)

// Migrations returns the migrations shipped with the binary, oldest first.
func Migrations() ([]Migration, error) {
	embeddedOnce.Do(func() {
		embedded, embeddedErr = parseMigrations(migrationFS, "migrations")
	})
	return embedded, embeddedErr
}

// parseMigrations reads NNNNNN_name.up.sql files and their .down.sql
// partners from dir. A missing partner, a malformed name or a reused
// version is an error.
func parseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	out := make([]Migration, 0, len(ups))
	seen := make(map[int]string, len(ups))
	for _, upPath := range ups {
		base := strings.TrimSuffix(path.Base(upPath), ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		version, convErr := strconv.Atoi(prefix)
		if !ok || name == "" || convErr != nil || version <= 0 {
			return nil, fmt.Errorf("migration %q: expected NNNNNN_name.up.sql", path.Base(upPath))
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d is used by both %s and %s", version, prev, base)
		}
		seen[version] = base

		up, err := fs.ReadFile(fsys, upPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", upPath, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", base, err)
		}

		sum := sha256.Sum256(up)
		out = append(out, Migration{
			Version:    version,
			Name:       name,
			UpScript:   string(up),
			DownScript: string(down),
			Checksum:   hex.EncodeToString(sum[:8]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

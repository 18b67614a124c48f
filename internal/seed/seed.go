package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"playshelf/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	FriendsPerUser int
	GamesPerUser   int
	ShouldClean    bool
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is the demo dataset used by the bootstrap and the seed command.
var DefaultOptions = Options{
	NumUsers:       25,
	FriendsPerUser: 5,
	GamesPerUser:   6,
	ShouldClean:    false,
}

// Result summarises a seeding run.
type Result struct {
	Users      []models.User
	Edges      int
	Ownerships int
}

// Seed populates the database with linked users, a random directed friend
// graph and overlapping game libraries.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	log.Printf("🌱 Seeding %d users (%d friends, %d games each)...", opts.NumUsers, opts.FriendsPerUser, opts.GamesPerUser)

	if opts.ShouldClean {
		if err := ClearAll(ctx, db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	randSeed := opts.RandSeed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	f := NewFactory(db, randSeed)
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(randSeed))

	res := &Result{Users: make([]models.User, 0, opts.NumUsers)}
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		res.Users = append(res.Users, *u)
	}
	log.Printf("✓ %d users created", len(res.Users))

	if len(res.Users) > 1 {
		for i := range res.Users {
			for _, j := range r.Perm(len(res.Users))[:min(opts.FriendsPerUser+1, len(res.Users))] {
				if j == i {
					continue
				}
				if err := f.Befriend(ctx, &res.Users[i], &res.Users[j]); err != nil {
					return nil, fmt.Errorf("failed to create friend edges: %w", err)
				}
				res.Edges++
			}
		}
	}
	log.Printf("✓ %d friend edges created", res.Edges)

	for i := range res.Users {
		for _, k := range r.Perm(len(Catalog))[:min(opts.GamesPerUser, len(Catalog))] {
			entry := Catalog[k]
			platform := entry.Platforms[r.Intn(len(entry.Platforms))]
			game, err := f.CatalogGame(ctx, entry, platform)
			if err != nil {
				return nil, fmt.Errorf("failed to create catalog game %q: %w", entry.Name, err)
			}
			if err := f.Own(ctx, &res.Users[i], game); err != nil {
				return nil, fmt.Errorf("failed to record ownership: %w", err)
			}
			res.Ownerships++
		}
	}
	log.Printf("✓ %d ownerships recorded", res.Ownerships)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// ClearAll deletes every seeded row, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []any{
		&models.UserGame{},
		&models.Game{},
		&models.FriendConnection{},
		&models.UserProfile{},
		&models.DiscordConnection{},
		&models.User{},
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return fmt.Errorf("clear %T: %w", t, err)
			}
		}
		return nil
	})
}

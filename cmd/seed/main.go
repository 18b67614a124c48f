// Command main runs the database seeder for Playshelf.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"playshelf/internal/config"
	"playshelf/internal/database"
	"playshelf/internal/seed"
)

func main() {
	numUsers := flag.Int("users", seed.DefaultOptions.NumUsers, "Number of users to create")
	friends := flag.Int("friends", seed.DefaultOptions.FriendsPerUser, "Outgoing friend edges per user")
	games := flag.Int("games", seed.DefaultOptions.GamesPerUser, "Games owned per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible data (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:       *numUsers,
		FriendsPerUser: *friends,
		GamesPerUser:   *games,
		ShouldClean:    *shouldClean,
		RandSeed:       *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d friend edges, %d ownerships.", len(res.Users), res.Edges, res.Ownerships)
}

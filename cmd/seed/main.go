// Command main runs the database seeder for Blobby.
package main

import (
	"flag"
	"log"

	"blobby/internal/config"
	"blobby/internal/database"
	"blobby/internal/sanitize"
	"blobby/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create (plus the admin)")
	numPosts := flag.Int("posts", 30, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sanitizer := sanitize.New(cfg.AllowedTags, cfg.AllowedAttributes)

	err = seed.Run(db, sanitizer, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done. Log in as admin@blobby.dev / %s", seed.DemoPassword)
}

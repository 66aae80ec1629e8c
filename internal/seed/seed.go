// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"blobby/internal/auth"
	"blobby/internal/models"
	"blobby/internal/sanitize"
	"blobby/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// DemoPassword is the password every seeded account gets.
const DemoPassword = "password123"

// Run seeds users, posts, and comments. The first user created becomes
// the admin under the first-user policy. Post and comment bodies pass
// through the same sanitizer as real submissions so seeded data respects
// the stored-content invariant.
func Run(db *gorm.DB, sanitizer *sanitize.Policy, opts Options) error {
	if opts.ShouldClean {
		log.Println("Cleaning existing data...")
		for _, table := range []string{"comments", "posts", "users"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clean %s: %w", table, err)
			}
		}
	}

	hashed, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.NumUsers+1)

	admin := &models.User{
		Username:  "Blobby Admin",
		Email:     "admin@blobby.dev",
		Password:  hashed,
		AvatarURL: service.GravatarURL("admin@blobby.dev"),
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	users = append(users, admin)

	for i := 0; i < opts.NumUsers; i++ {
		email := service.NormalizeEmail(gofakeit.Email())
		user := &models.User{
			Username:  gofakeit.Name(),
			Email:     email,
			Password:  hashed,
			AvatarURL: service.GravatarURL(email),
		}
		if err := db.Create(user).Error; err != nil {
			// Faked emails occasionally collide; skip and move on.
			continue
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[rand.Intn(len(users))]
		body := fmt.Sprintf("<p>%s</p><p>%s</p>",
			gofakeit.Paragraph(1, 4, 12, " "),
			gofakeit.Paragraph(1, 4, 12, " "))
		post := &models.Post{
			Title:     fmt.Sprintf("%s #%d", gofakeit.BookTitle(), i+1),
			Subtitle:  gofakeit.Sentence(8),
			Body:      sanitizer.Sanitize(body),
			ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%d/800/400", i+1),
			DateLabel: gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()).Format("January 02, 2006"),
			UserID:    author.ID,
		}
		if err := db.Create(post).Error; err != nil {
			continue
		}
		posts = append(posts, post)
	}
	log.Printf("Created %d posts", len(posts))

	commentCount := 0
	for _, post := range posts {
		for i := 0; i < rand.Intn(5); i++ {
			commenter := users[rand.Intn(len(users))]
			comment := &models.Comment{
				Body:   sanitizer.Sanitize("<p>" + gofakeit.Sentence(12) + "</p>"),
				UserID: commenter.ID,
				PostID: post.ID,
			}
			if err := db.Create(comment).Error; err != nil {
				continue
			}
			commentCount++
		}
	}
	log.Printf("Created %d comments", commentCount)

	return nil
}

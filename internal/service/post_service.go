// Package service contains the application's business logic between
// handlers and repositories. Authorization checks on owned resources run
// here, strictly before any write.
package service

import (
	"context"
	"net/url"
	"time"

	"blobby/internal/models"
	"blobby/internal/repository"
	"blobby/internal/sanitize"
)

// dateLabelLayout matches the display date the blog has always shown.
const dateLabelLayout = "January 02, 2006"

// PostService implements post creation, editing, and deletion with
// ownership gating and write-time sanitization of bodies.
type PostService struct {
	postRepo  repository.PostRepository
	sanitizer *sanitize.Policy
	now       func() time.Time
}

type CreatePostInput struct {
	UserID   uint
	Title    string
	Subtitle string
	Body     string
	ImageURL string
}

type UpdatePostInput struct {
	UserID   uint
	IsAdmin  bool
	PostID   uint
	Title    string
	Subtitle string
	Body     string
	ImageURL string
}

type DeletePostInput struct {
	UserID  uint
	IsAdmin bool
	PostID  uint
}

func NewPostService(postRepo repository.PostRepository, sanitizer *sanitize.Policy) *PostService {
	return &PostService{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

func (s *PostService) validateFields(title, subtitle, body, imageURL string) error {
	if title == "" || subtitle == "" || body == "" || imageURL == "" {
		return models.NewValidationError("Title, subtitle, body and image URL are required")
	}
	if len(title) > 250 || len(subtitle) > 250 || len(imageURL) > 250 {
		return models.NewValidationError("Title, subtitle and image URL must be at most 250 characters")
	}
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewValidationError("Image URL must be a valid http(s) URL")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := s.validateFields(in.Title, in.Subtitle, in.Body, in.ImageURL); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     in.Title,
		Subtitle:  in.Subtitle,
		Body:      s.sanitizer.Sanitize(in.Body),
		ImageURL:  in.ImageURL,
		DateLabel: s.now().Format(dateLabelLayout),
		UserID:    in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return s.postRepo.List(ctx, limit)
}

func (s *PostService) ListPostsByAuthor(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.postRepo.ListByAuthor(ctx, userID)
}

// UpdatePost edits a post. Only the post's author or an admin may edit;
// the check runs before anything is written.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.UserID && !in.IsAdmin {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if err := s.validateFields(in.Title, in.Subtitle, in.Body, in.ImageURL); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = s.sanitizer.Sanitize(in.Body)
	post.ImageURL = in.ImageURL
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes a post and its comments. Only the author or an admin
// may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID && !in.IsAdmin {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

package server

import (
	"fmt"

	"blobby/internal/models"
	"blobby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// frontPageLimit is how many of the newest posts the front page shows;
// /all_posts lists everything.
const frontPageLimit = 10

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.Context(), frontPageLimit)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return s.render(c, "index", fiber.Map{"posts": posts})
}

// AllPosts handles GET /all_posts
func (s *Server) AllPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.Context(), 0)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return s.render(c, "all-posts", fiber.Map{"posts": posts})
}

// ShowPost handles GET /post/:id
func (s *Server) ShowPost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return s.renderError(c, fiber.StatusNotFound, "Post not found")
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return s.renderError(c, models.StatusForError(err), "Post not found")
	}
	return s.render(c, "post", fiber.Map{"post": post})
}

// NewPostPage handles GET /new-post
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.render(c, "make-post", fiber.Map{"is_edit": false})
}

// CreatePost handles POST /new-post
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ident := identityFrom(c)

	var req struct {
		Title    string `form:"title"`
		Subtitle string `form:"subtitle"`
		ImageURL string `form:"img_url"`
		Body     string `form:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/new-post", fiber.StatusFound)
	}

	_, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:   ident.UserID,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		switch models.StatusForError(err) {
		case fiber.StatusBadRequest, fiber.StatusConflict:
			s.setFlash(c, err.Error())
			c.Status(models.StatusForError(err))
			return s.render(c, "make-post", fiber.Map{
				"is_edit":  false,
				"title":    req.Title,
				"subtitle": req.Subtitle,
				"img_url":  req.ImageURL,
				"body":     req.Body,
			})
		default:
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}

	return c.Redirect("/", fiber.StatusFound)
}

// EditPostPage handles GET /edit-post/:id. The ownership gate applies to
// viewing the edit form as well, so a non-owner never sees the editor.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return s.renderError(c, fiber.StatusNotFound, "Post not found")
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return s.renderError(c, models.StatusForError(err), "Post not found")
	}

	ident := identityFrom(c)
	if post.UserID != ident.UserID && !ident.IsAdmin {
		return s.renderError(c, fiber.StatusForbidden, "You can only edit your own posts")
	}

	return s.render(c, "make-post", fiber.Map{
		"is_edit":  true,
		"post_id":  post.ID,
		"title":    post.Title,
		"subtitle": post.Subtitle,
		"img_url":  post.ImageURL,
		"body":     post.Body,
	})
}

// EditPost handles POST /edit-post/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return s.renderError(c, fiber.StatusNotFound, "Post not found")
	}

	var req struct {
		Title    string `form:"title"`
		Subtitle string `form:"subtitle"`
		ImageURL string `form:"img_url"`
		Body     string `form:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/edit-post/"+c.Params("id"), fiber.StatusFound)
	}

	ident := identityFrom(c)
	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:   ident.UserID,
		IsAdmin:  ident.IsAdmin,
		PostID:   id,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		status := models.StatusForError(err)
		switch status {
		case fiber.StatusNotFound:
			return s.renderError(c, status, "Post not found")
		case fiber.StatusForbidden:
			return s.renderError(c, status, "You can only edit your own posts")
		case fiber.StatusBadRequest, fiber.StatusConflict:
			s.setFlash(c, err.Error())
			c.Status(status)
			return s.render(c, "make-post", fiber.Map{
				"is_edit":  true,
				"post_id":  id,
				"title":    req.Title,
				"subtitle": req.Subtitle,
				"img_url":  req.ImageURL,
				"body":     req.Body,
			})
		default:
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}

	return c.Redirect(fmt.Sprintf("/post/%d", post.ID), fiber.StatusFound)
}

// DeletePost handles GET /delete/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return s.renderError(c, fiber.StatusNotFound, "Post not found")
	}

	ident := identityFrom(c)
	err := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		UserID:  ident.UserID,
		IsAdmin: ident.IsAdmin,
		PostID:  id,
	})
	if err != nil {
		status := models.StatusForError(err)
		switch status {
		case fiber.StatusNotFound:
			return s.renderError(c, status, "Post not found")
		case fiber.StatusForbidden:
			return s.renderError(c, status, "You can only delete your own posts")
		default:
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}

	return c.Redirect("/", fiber.StatusFound)
}

// About handles GET /about
func (s *Server) About(c *fiber.Ctx) error {
	return s.render(c, "about", nil)
}

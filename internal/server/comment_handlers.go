package server

import (
	"fmt"

	"blobby/internal/models"
	"blobby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /post/:id. Reading a post is public, but
// commenting requires a login; anonymous submitters are sent to the login
// page rather than given a bare 401.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return s.renderError(c, fiber.StatusNotFound, "Post not found")
	}

	ident := identityFrom(c)
	if ident == nil {
		s.setFlash(c, "You need to login or register to comment.")
		return c.Redirect("/login", fiber.StatusFound)
	}

	var req struct {
		Body string `form:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect(fmt.Sprintf("/post/%d", id), fiber.StatusFound)
	}

	_, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID: ident.UserID,
		PostID: id,
		Body:   req.Body,
	})
	if err != nil {
		status := models.StatusForError(err)
		switch status {
		case fiber.StatusNotFound:
			return s.renderError(c, status, "Post not found")
		case fiber.StatusBadRequest:
			s.setFlash(c, err.Error())
			return c.Redirect(fmt.Sprintf("/post/%d", id), fiber.StatusFound)
		default:
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}

	return c.Redirect(fmt.Sprintf("/post/%d", id), fiber.StatusFound)
}

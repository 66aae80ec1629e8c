package server

import (
	"blobby/internal/models"
	"blobby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Account handles GET /account: the user's profile and their posts.
func (s *Server) Account(c *fiber.Ctx) error {
	ident := identityFrom(c)

	posts, err := s.postService.ListPostsByAuthor(c.Context(), ident.UserID)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return s.render(c, "account", fiber.Map{
		"user":  ident.User,
		"posts": posts,
	})
}

// EditAccountPage handles GET /edit-account
func (s *Server) EditAccountPage(c *fiber.Ctx) error {
	ident := identityFrom(c)
	return s.render(c, "edit-account", fiber.Map{"user": ident.User})
}

// EditAccount handles POST /edit-account
func (s *Server) EditAccount(c *fiber.Ctx) error {
	ident := identityFrom(c)

	var req struct {
		Username string `form:"username"`
		Email    string `form:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/edit-account", fiber.StatusFound)
	}

	_, err := s.accountService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   ident.UserID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		switch models.StatusForError(err) {
		case fiber.StatusBadRequest, fiber.StatusConflict:
			s.setFlash(c, err.Error())
			return c.Redirect("/edit-account", fiber.StatusFound)
		default:
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}

	s.setFlash(c, "Account information updated successfully!")
	return c.Redirect("/account", fiber.StatusFound)
}

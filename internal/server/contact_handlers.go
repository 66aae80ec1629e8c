package server

import (
	"fmt"
	"log/slog"

	"blobby/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ContactPage handles GET /contact, prefilled for logged-in users.
func (s *Server) ContactPage(c *fiber.Ctx) error {
	bind := fiber.Map{"msg_sent": false}
	if ident := identityFrom(c); ident != nil {
		bind["name"] = ident.User.Username
		bind["email"] = ident.User.Email
	}
	return s.render(c, "contact", bind)
}

// Contact handles POST /contact. The contact flow never touches the
// content store, so a mail failure only flips the page flag and flashes a
// warning; nothing needs rolling back.
func (s *Server) Contact(c *fiber.Ctx) error {
	var req struct {
		Name    string `form:"name"`
		Email   string `form:"email"`
		Phone   string `form:"phone"`
		Message string `form:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/contact", fiber.StatusFound)
	}

	if req.Name == "" || req.Email == "" || req.Message == "" {
		s.setFlash(c, "Name, email and message are required")
		return c.Redirect("/contact", fiber.StatusFound)
	}

	sent := false
	if s.mailer != nil {
		subject := fmt.Sprintf("%s has sent a message!", req.Name)
		body := fmt.Sprintf("Name: %s\nE-mail: %s\nPhone No.: %s\nMessage: %s",
			req.Name, req.Email, req.Phone, req.Message)

		err := s.mailer.Send(c.Context(), s.config.MailFrom, s.config.ContactRecipient, subject, body)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "contact mail delivery failed",
				slog.String("error", err.Error()))
		} else {
			sent = true
		}
	}

	if !sent {
		s.setFlash(c, "Your message could not be sent, please try again later.")
	}
	return s.render(c, "contact", fiber.Map{
		"msg_sent": sent,
		"name":     req.Name,
		"email":    req.Email,
	})
}

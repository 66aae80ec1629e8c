package server

import (
	"context"
	"log/slog"
	"time"

	"blobby/internal/auth"
	"blobby/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "blobby_session"
	flashCookie   = "blobby_flash"
	// loginEmailCookie carries the attempted registration email over to
	// the login form when the address is already taken.
	loginEmailCookie = "blobby_login_email"
)

// LoadIdentity resolves the session cookie into a request-scoped Identity
// once per request. Resolution fails closed: any problem leaves the
// request anonymous. Handlers and guards read the identity from locals,
// never from client-supplied input.
func (s *Server) LoadIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookie)
		if token == "" {
			return c.Next()
		}

		ident, err := s.sessions.Resolve(c.Context(), token)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session resolution failed, treating as anonymous",
				slog.String("error", err.Error()))
			return c.Next()
		}
		if ident == nil {
			return c.Next()
		}

		c.Locals("identity", ident)
		c.Locals("userID", ident.UserID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, ident.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// identityFrom returns the resolved identity for this request, or nil for
// anonymous visitors.
func identityFrom(c *fiber.Ctx) *auth.Identity {
	ident, _ := c.Locals("identity").(*auth.Identity)
	return ident
}

// AuthRequired redirects anonymous requests to the login page.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identityFrom(c) == nil {
			s.setFlash(c, "Please log in to continue.")
			return c.Redirect("/login", fiber.StatusFound)
		}
		return c.Next()
	}
}

// AdminRequired rejects non-admin users with 403. Must be placed after
// AuthRequired, and trusts only the admin flag computed at login time.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident := identityFrom(c)
		if ident == nil || !ident.IsAdmin {
			return s.renderError(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, bool) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// setFlash stores a one-shot message shown on the next rendered page.
func (s *Server) setFlash(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    message,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message.
func (s *Server) popFlash(c *fiber.Ctx) string {
	msg := c.Cookies(flashCookie)
	if msg != "" {
		c.Cookie(&fiber.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return msg
}

// render renders a template with the identity context every page needs:
// logged_in, is_admin, current_user, and any pending flash message.
func (s *Server) render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}

	ident := identityFrom(c)
	bind["logged_in"] = ident != nil
	bind["is_admin"] = ident != nil && ident.IsAdmin
	if ident != nil {
		bind["current_user"] = ident.User
	}
	if flash := s.popFlash(c); flash != "" {
		bind["flash"] = flash
	}

	return c.Render(name, bind)
}

// renderError renders the error page with the given status.
func (s *Server) renderError(c *fiber.Ctx, status int, message string) error {
	c.Status(status)
	if err := s.render(c, "error", fiber.Map{
		"status":  status,
		"message": message,
	}); err != nil {
		// View engine unavailable (misconfigured template dir); still
		// deliver the status and message.
		return c.Status(status).SendString(message)
	}
	return nil
}

// clearCookie expires a cookie immediately.
func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

package server

import (
	"log/slog"
	"time"

	"blobby/internal/auth"
	"blobby/internal/middleware"
	"blobby/internal/models"
	"blobby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage handles GET /register
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	if identityFrom(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.render(c, "register", nil)
}

// Register handles POST /register. A duplicate email flashes a hint and
// redirects to the login form with the address prefilled; success creates
// the account and logs the user straight in.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `form:"username"`
		Email    string `form:"email"`
		Password string `form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/register", fiber.StatusFound)
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.setFlash(c, "Username, email, and password are required")
		return c.Redirect("/register", fiber.StatusFound)
	}
	if err := service.ValidateEmail(req.Email); err != nil {
		s.setFlash(c, "Please enter a valid email address")
		return c.Redirect("/register", fiber.StatusFound)
	}
	if len(req.Password) < auth.MinPasswordLength {
		s.setFlash(c, "Password must be at least 8 characters")
		return c.Redirect("/register", fiber.StatusFound)
	}

	email := service.NormalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	if existing != nil {
		s.setFlash(c, "This user already exists, please login instead")
		s.rememberLoginEmail(c, email)
		return c.Redirect("/login", fiber.StatusFound)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	user := &models.User{
		Username:  req.Username,
		Email:     email,
		Password:  hashed,
		AvatarURL: service.GravatarURL(email),
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		// Lost the race against a concurrent registration with the same
		// address; the failed insert rolled back, no partial row remains.
		if models.StatusForError(err) == fiber.StatusConflict {
			s.setFlash(c, "This user already exists, please login instead")
			s.rememberLoginEmail(c, email)
			return c.Redirect("/login", fiber.StatusFound)
		}
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return s.establishSession(c, user)
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if identityFrom(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	bind := fiber.Map{}
	if email := c.Cookies(loginEmailCookie); email != "" {
		bind["email"] = email
	}
	return s.render(c, "login", bind)
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `form:"email"`
		Password string `form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		s.setFlash(c, "Invalid form submission")
		return c.Redirect("/login", fiber.StatusFound)
	}

	user, err := s.userRepo.GetByEmail(c.Context(), service.NormalizeEmail(req.Email))
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		s.setFlash(c, "Invalid email or password")
		return c.Redirect("/login", fiber.StatusFound)
	}

	return s.establishSession(c, user)
}

// Logout handles GET /logout. The session is deleted server-side, so the
// old token can never resolve again.
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(sessionCookie); token != "" {
		if err := s.sessions.Logout(c.Context(), token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "logout failed to delete session",
				slog.String("error", err.Error()))
		}
	}
	clearCookie(c, sessionCookie)
	return c.Redirect("/", fiber.StatusFound)
}

// establishSession logs user in, sets the session cookie, and redirects
// to the front page.
func (s *Server) establishSession(c *fiber.Ctx, user *models.User) error {
	token, err := s.sessions.Login(c.Context(), user)
	if err != nil {
		return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(auth.SessionTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	clearCookie(c, loginEmailCookie)
	return c.Redirect("/", fiber.StatusFound)
}

// rememberLoginEmail prefills the login form after a duplicate-email
// registration attempt.
func (s *Server) rememberLoginEmail(c *fiber.Ctx, email string) {
	c.Cookie(&fiber.Cookie{
		Name:     loginEmailCookie,
		Value:    email,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

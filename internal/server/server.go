// Package server wires configuration, storage, sessions, and the Fiber
// app, and contains the HTTP handlers for every page of the blog.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"blobby/internal/auth"
	"blobby/internal/config"
	"blobby/internal/database"
	"blobby/internal/mail"
	"blobby/internal/middleware"
	"blobby/internal/repository"
	"blobby/internal/sanitize"
	"blobby/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	sessions       *auth.Manager
	sanitizer      *sanitize.Policy
	mailer         mail.Mailer
	postService    *service.PostService
	commentService *service.CommentService
	accountService *service.AccountService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer, err = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("mailer setup failed: %w", err)
		}
	}

	return NewServerWithDeps(cfg, db, redisClient, mailer)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	sanitizer := sanitize.New(cfg.AllowedTags, cfg.AllowedAttributes)

	prom := fiberprometheus.New("blobby")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		sessions:       auth.NewManager(redisClient, userRepo),
		sanitizer:      sanitizer,
		mailer:         mailer,
	}
	server.postService = service.NewPostService(postRepo, sanitizer)
	server.commentService = service.NewCommentService(commentRepo, postRepo, sanitizer)
	server.accountService = service.NewAccountService(userRepo)

	return server, nil
}

// NewApp constructs the Fiber app with the HTML view engine.
func (s *Server) NewApp() *fiber.App {
	engine := html.New(s.config.TemplateDir, ".html")
	// Post and comment bodies are sanitized before storage; "safe" marks
	// them trusted so the template engine does not re-escape the markup.
	engine.AddFunc("safe", func(body string) template.HTML {
		return template.HTML(body)
	})

	app := fiber.New(fiber.Config{
		AppName: "Blobby",
		Views:   engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return s.renderError(c, fiber.StatusInternalServerError, "Something went wrong")
		},
	})
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID into the user context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Cookies (session token, flash) are encrypted with a key derived
	// from the environment-provided session secret.
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieKey(s.config.SessionSecret),
	}))

	// Identity resolution must run before any guarded route.
	app.Use(s.LoadIdentity())

	// Structured logging (after requestid and identity so both appear)
	app.Use(middleware.StructuredLogger())
}

// cookieKey derives the 32-byte base64 key encryptcookie expects from the
// configured session secret.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Public pages
	app.Get("/", s.Index)
	app.Get("/all_posts", s.AllPosts)
	app.Get("/about", s.About)
	app.Get("/contact", s.ContactPage)
	app.Post("/contact", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "contact"), s.Contact)

	// Auth
	app.Get("/register", s.RegisterPage)
	app.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout", s.AuthRequired(), s.Logout)

	// Posts: public read, authenticated comment (checked in the handler
	// so anonymous commenters get the login redirect, not a bare 401)
	app.Get("/post/:id", s.ShowPost)
	app.Post("/post/:id", s.CreateComment)

	// Publishing. Who may create posts depends on the configured admin
	// policy; edit/delete are always owner-or-admin, enforced in the
	// post service.
	createGuards := []fiber.Handler{s.AuthRequired()}
	if s.config.AdminPolicy == config.PolicyFirstUser {
		createGuards = append(createGuards, s.AdminRequired())
	}
	app.Get("/new-post", append(createGuards, s.NewPostPage)...)
	app.Post("/new-post", append(createGuards, s.CreatePost)...)
	app.Get("/edit-post/:id", s.AuthRequired(), s.EditPostPage)
	app.Post("/edit-post/:id", s.AuthRequired(), s.EditPost)
	app.Get("/delete/:id", s.AuthRequired(), s.DeletePost)

	// Account
	app.Get("/account", s.AuthRequired(), s.Account)
	app.Get("/edit-account", s.AuthRequired(), s.EditAccountPage)
	app.Post("/edit-account", s.AuthRequired(), s.EditAccount)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Sessions live in Redis, so it is required for readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

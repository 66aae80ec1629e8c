package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"blobby/internal/auth"
	"blobby/internal/config"
	"blobby/internal/models"
	"blobby/internal/repository"
	"blobby/internal/sanitize"
	"blobby/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestServer builds a Server against in-memory sqlite and miniredis
// with the full route table mounted. The returned app renders the real
// templates, so response bodies can be asserted on.
func setupTestServer(t *testing.T, policy string) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Port:              "0",
		Env:               "test",
		SessionSecret:     "test-session-secret",
		AdminPolicy:       policy,
		DBDriver:          "sqlite",
		AllowedTags:       config.DefaultAllowedTags(),
		AllowedAttributes: config.DefaultAllowedAttributes(),
		TemplateDir:       "../../web/templates",
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	sanitizer := sanitize.New(cfg.AllowedTags, cfg.AllowedAttributes)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		sessions:    auth.NewManager(rdb, userRepo),
		sanitizer:   sanitizer,
	}
	s.postService = service.NewPostService(postRepo, sanitizer)
	s.commentService = service.NewCommentService(commentRepo, postRepo, sanitizer)
	s.accountService = service.NewAccountService(userRepo)

	app := s.NewApp()
	app.Use(s.LoadIdentity())
	s.SetupRoutes(app)
	s.app = app

	return s, app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name && ck.Value != "" {
			return ck
		}
	}
	return nil
}

// registerUser registers an account over HTTP and returns its session
// cookie. The first account registered in a test becomes the admin.
func registerUser(t *testing.T, app *fiber.App, username, email, password string) *http.Cookie {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/register", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	session := cookieNamed(resp, sessionCookie)
	require.NotNil(t, session, "registration should log the user in")
	return session
}

// createPost publishes a post as the given session and returns its id.
func createPost(t *testing.T, s *Server, app *fiber.App, session *http.Cookie, title string) uint {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/new-post", url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"img_url":  {"https://example.com/header.png"},
		"body":     {"<p>Some body text</p>"},
	}, session)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, s.db.Where("title = ?", title).First(&post).Error)
	return post.ID
}

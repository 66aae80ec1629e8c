package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"blobby/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousCommentRedirectsToLogin(t *testing.T) {
	s, app := setupTestServer(t, config.PolicyFirstUser)
	admin := registerUser(t, app, "admin", "admin@example.com", "password123")
	postID := createPost(t, s, app, admin, "A Post")

	resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("/post/%d", postID), url.Values{
		"comment": {"drive-by comment"},
	})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestCommentIsSanitizedAndShown(t *testing.T) {
	s, app := setupTestServer(t, config.PolicyFirstUser)
	admin := registerUser(t, app, "admin", "admin@example.com", "password123")
	bob := registerUser(t, app, "bob", "bob@example.com", "password123")
	postID := createPost(t, s, app, admin, "A Post")
	postPath := fmt.Sprintf("/post/%d", postID)

	resp := doRequest(t, app, http.MethodPost, postPath, url.Values{
		"comment": {`nice <b>work</b><script>alert("x")</script>`},
	}, bob)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath, resp.Header.Get("Location"))

	page := doRequest(t, app, http.MethodGet, postPath, nil)
	require.Equal(t, fiber.StatusOK, page.StatusCode)
	body := readBody(t, page)
	assert.Contains(t, body, "nice <b>work</b>")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "bob", "commenter is credited")
}

func TestCommentValidation(t *testing.T) {
	s, app := setupTestServer(t, config.PolicyFirstUser)
	admin := registerUser(t, app, "admin", "admin@example.com", "password123")
	postID := createPost(t, s, app, admin, "A Post")
	postPath := fmt.Sprintf("/post/%d", postID)

	t.Run("Empty comment bounces back", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, postPath, url.Values{
			"comment": {""},
		}, admin)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postPath, resp.Header.Get("Location"))
	})

	t.Run("Oversized comment bounces back", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, postPath, url.Values{
			"comment": {strings.Repeat("a", 10001)},
		}, admin)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postPath, resp.Header.Get("Location"))
	})

	t.Run("Comment on missing post is 404", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/post/999", url.Values{
			"comment": {"hello?"},
		}, admin)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

package server

import (
	"net/http"
	"net/url"
	"testing"

	"blobby/internal/config"
	"blobby/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRequiresLogin(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)

	for _, path := range []string{"/account", "/edit-account"} {
		resp := doRequest(t, app, http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	}
}

func TestAccountShowsOwnPosts(t *testing.T) {
	s, app := setupTestServer(t, config.PolicyAuthors)
	registerUser(t, app, "admin", "admin@example.com", "password123")
	bob := registerUser(t, app, "bob", "bob@example.com", "password123")
	createPost(t, s, app, bob, "Bob's Only Post")

	resp := doRequest(t, app, http.MethodGet, "/account", nil, bob)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Bob's Only Post")
	assert.Contains(t, body, "bob@example.com")
}

func TestEditAccount(t *testing.T) {
	s, app := setupTestServer(t, config.PolicyFirstUser)
	registerUser(t, app, "alice", "alice@example.com", "password123")
	bob := registerUser(t, app, "bob", "bob@example.com", "password123")

	t.Run("Conflicting email is rejected", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/edit-account", url.Values{
			"username": {"bob"},
			"email":    {"alice@example.com"},
		}, bob)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/edit-account", resp.Header.Get("Location"))

		user, err := s.userRepo.GetByEmail(t.Context(), "bob@example.com")
		require.NoError(t, err)
		require.NotNil(t, user, "rejected edit must not change the account")
	})

	t.Run("Success updates email and avatar", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/edit-account", url.Values{
			"username": {"robert"},
			"email":    {"Robert@Example.COM"},
		}, bob)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/account", resp.Header.Get("Location"))

		user, err := s.userRepo.GetByEmail(t.Context(), "robert@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "robert", user.Username)
		assert.Equal(t, service.GravatarURL("robert@example.com"), user.AvatarURL)
	})
}

package server

import (
	"net/http"
	"net/url"
	"testing"

	"blobby/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLogsUserIn(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)

	session := registerUser(t, app, "alice", "alice@example.com", "password123")

	resp := doRequest(t, app, http.MethodGet, "/account", nil, session)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "alice")
}

func TestRegisterDuplicateEmailRedirectsToLogin(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)
	registerUser(t, app, "alice", "Alice@Example.com", "password123")

	// Same address, different case.
	resp := doRequest(t, app, http.MethodPost, "/register", url.Values{
		"username": {"alice2"},
		"email":    {"alice@example.com"},
		"password": {"password456"},
	})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Nil(t, cookieNamed(resp, sessionCookie), "no session for the failed registration")

	// The attempted address is carried over to prefill the login form.
	prefill := cookieNamed(resp, loginEmailCookie)
	require.NotNil(t, prefill)
	assert.Equal(t, "alice@example.com", prefill.Value)

	loginPage := doRequest(t, app, http.MethodGet, "/login", nil, prefill)
	assert.Contains(t, readBody(t, loginPage), "alice@example.com")
}

func TestRegisterValidation(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing fields", url.Values{"username": {"alice"}}},
		{"bad email", url.Values{"username": {"alice"}, "email": {"nope"}, "password": {"password123"}}},
		{"short password", url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"short"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/register", tt.form)
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, "/register", resp.Header.Get("Location"))
			assert.Nil(t, cookieNamed(resp, sessionCookie))
		})
	}
}

func TestLogin(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)
	registerUser(t, app, "alice", "alice@example.com", "password123")

	t.Run("Wrong password", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/login", url.Values{
			"email":    {"alice@example.com"},
			"password": {"wrong-password"},
		})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Nil(t, cookieNamed(resp, sessionCookie))
	})

	t.Run("Unknown email", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/login", url.Values{
			"email":    {"nobody@example.com"},
			"password": {"password123"},
		})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("Success", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/login", url.Values{
			"email":    {"Alice@Example.COM"},
			"password": {"password123"},
		})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		session := cookieNamed(resp, sessionCookie)
		require.NotNil(t, session)

		account := doRequest(t, app, http.MethodGet, "/account", nil, session)
		assert.Equal(t, fiber.StatusOK, account.StatusCode)
		account.Body.Close()
	})
}

func TestLogoutInvalidatesSession(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)
	session := registerUser(t, app, "alice", "alice@example.com", "password123")

	resp := doRequest(t, app, http.MethodGet, "/logout", nil, session)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// Replaying the old cookie resolves to anonymous and bounces off the
	// guarded page.
	replay := doRequest(t, app, http.MethodGet, "/account", nil, session)
	assert.Equal(t, fiber.StatusFound, replay.StatusCode)
	assert.Equal(t, "/login", replay.Header.Get("Location"))
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	_, app := setupTestServer(t, config.PolicyFirstUser)
	session := registerUser(t, app, "alice", "alice@example.com", "password123")

	resp := doRequest(t, app, http.MethodGet, "/login", nil, session)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = doRequest(t, app, http.MethodGet, "/register", nil, session)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

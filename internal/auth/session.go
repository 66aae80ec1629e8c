package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blobby/internal/models"
	"blobby/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionTTL bounds how long a login survives without re-authentication.
const SessionTTL = 7 * 24 * time.Hour

const sessionKeyPrefix = "session:"

// Identity is the request-scoped authenticated identity resolved from a
// session token. IsAdmin is the flag computed at login time; it is never
// derived from client input.
type Identity struct {
	UserID  uint
	IsAdmin bool
	User    *models.User
}

// Manager establishes, resolves, and tears down authenticated sessions.
// Tokens are opaque uuids stored server-side in Redis, so logout makes an
// old token unresolvable rather than merely flipping a visible flag.
type Manager struct {
	rdb   *redis.Client
	users repository.UserRepository
	ttl   time.Duration
}

// NewManager returns a session Manager backed by the given Redis client
// and user repository.
func NewManager(rdb *redis.Client, users repository.UserRepository) *Manager {
	return &Manager{rdb: rdb, users: users, ttl: SessionTTL}
}

// Login establishes a session for user and returns the opaque token to be
// set as the session cookie. The admin flag is derived here, once, from
// the admin-determination policy: the earliest registered account is the
// admin.
func (m *Manager) Login(ctx context.Context, user *models.User) (string, error) {
	if m.rdb == nil {
		return "", errors.New("session store unavailable")
	}

	firstID, err := m.users.EarliestID(ctx)
	if err != nil {
		return "", err
	}
	isAdmin := firstID != 0 && user.ID == firstID

	token := uuid.New().String()
	value := fmt.Sprintf("%d|%t", user.ID, isAdmin)
	if err := m.rdb.Set(ctx, sessionKeyPrefix+token, value, m.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates the session server-side. Replaying the old token
// afterwards resolves to anonymous.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if m.rdb == nil || token == "" {
		return nil
	}
	return m.rdb.Del(ctx, sessionKeyPrefix+token).Err()
}

// Resolve maps a session token to an Identity. It fails closed: a missing,
// expired, or malformed token, or a token whose user no longer exists,
// yields (nil, nil) — anonymous. A non-nil error indicates a store or
// database failure, not an authentication decision.
func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	if m.rdb == nil || token == "" {
		return nil, nil
	}

	value, err := m.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idPart, adminPart, ok := strings.Cut(value, "|")
	if !ok {
		// Unparseable session payloads are treated as hostile and removed.
		m.rdb.Del(ctx, sessionKeyPrefix+token)
		return nil, nil
	}
	userID, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		m.rdb.Del(ctx, sessionKeyPrefix+token)
		return nil, nil
	}
	isAdmin := adminPart == "true"

	user, err := m.users.GetByID(ctx, uint(userID))
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			// User was deleted after login; the session dies with them.
			m.rdb.Del(ctx, sessionKeyPrefix+token)
			return nil, nil
		}
		return nil, err
	}

	return &Identity{UserID: user.ID, IsAdmin: isAdmin, User: user}, nil
}

package middleware

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/models"
)

// SessionUserKey is the session key holding the OIDC subject of the user.
const SessionUserKey = "user_sub"

const userLocal = "user"

// UserStore loads users by OIDC subject.
type UserStore interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
}

// AuthMiddleware handles user authentication via sessions. It must run
// after the session middleware.
type AuthMiddleware struct {
	users UserStore
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(users UserStore) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// loadUser returns the session's user, or nil. A session pointing at a
// deleted user is destroyed.
func (m *AuthMiddleware) loadUser(c fiber.Ctx) *models.User {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}

	sub, ok := sess.Get(SessionUserKey).(string)
	if !ok || sub == "" {
		return nil
	}

	user, err := m.users.GetUserBySub(c.Context(), sub)
	if err != nil {
		log.Debug().Err(err).Str("sub", sub).Msg("Dropping session for unknown user")
		if err := sess.Destroy(); err != nil {
			log.Warn().Err(err).Msg("Failed to destroy session")
		}
		return nil
	}
	return user
}

// RequireAuth ensures the user is authenticated, redirecting to /login if not.
// The original path is passed along so login can return to it.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user := User(c)
	if user == nil {
		user = m.loadUser(c)
	}
	if user == nil {
		return c.Redirect().To("/login?next=" + url.QueryEscape(c.OriginalURL()))
	}

	c.Locals(userLocal, user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user := m.loadUser(c); user != nil {
		c.Locals(userLocal, user)
	}
	return c.Next()
}

// User returns the authenticated user of the request, or nil.
func User(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// SetUser stores the user of the request. Used by handlers that authenticate
// on their own and by tests.
func SetUser(c fiber.Ctx, user *models.User) {
	c.Locals(userLocal, user)
}

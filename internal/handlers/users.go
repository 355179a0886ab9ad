package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/authz"
	"diversityorgs/internal/config"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/models"
)

// UserStore manages user roles.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, email, role string) (*models.User, error)
}

// UserHandler handles user management operations.
type UserHandler struct {
	users UserStore
	cfg   *config.Config
	authz *authz.Authorizer
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users UserStore, cfg *config.Config, authorizer *authz.Authorizer) *UserHandler {
	return &UserHandler{users: users, cfg: cfg, authz: authorizer}
}

var roles = []string{models.RoleUser, models.RoleModerator, models.RoleAdmin}

// ListUsers renders the user management page (superusers only).
func (h *UserHandler) ListUsers(c fiber.Ctx) error {
	if !h.authz.IsSuperuser(middleware.User(c)) {
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	}

	users, err := h.users.ListUsers(c.Context())
	if err != nil {
		return err
	}

	return render(c, h.cfg, "users", fiber.Map{
		"Users": users,
		"Roles": roles,
	})
}

// UpdateUserRole sets a user's role (superusers only).
func (h *UserHandler) UpdateUserRole(c fiber.Ctx) error {
	current := middleware.User(c)
	if !h.authz.IsSuperuser(current) {
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	}

	email := c.FormValue("email")
	role := c.FormValue("role")
	if email == "" || !models.ValidRole(role) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	// Prevent admins from demoting themselves
	if email == current.Email && role != current.Role {
		return fiber.NewError(fiber.StatusBadRequest, "cannot change your own role")
	}

	user, err := h.users.UpdateUserRole(c.Context(), email, role)
	if err != nil {
		return notFound(err)
	}

	log.Info().Str("user", user.Email).Str("role", role).Str("by", current.Email).Msg("user role updated")
	return c.Redirect().To("/admin/users")
}

package handlers

import (
	"github.com/gofiber/fiber/v3"

	"diversityorgs/internal/config"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/models"
)

// ProfileHandler handles user profile pages.
type ProfileHandler struct {
	store Store
	cfg   *config.Config
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(store Store, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{store: store, cfg: cfg}
}

// Show renders the user's profile page with the organizations they organize.
func (h *ProfileHandler) Show(c fiber.Ctx) error {
	user := middleware.User(c)
	if user == nil {
		return c.Redirect().To("/login?next=/profile")
	}

	orgs, err := h.store.FilterOrganizations(c.Context(), models.OrganizationFilter{OrganizerID: &user.ID})
	if err != nil {
		return err
	}

	return render(c, h.cfg, "profile", fiber.Map{
		"User":          user,
		"Organizations": orgs,
	})
}

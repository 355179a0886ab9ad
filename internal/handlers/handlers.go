package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/focus"
	"diversityorgs/internal/listing"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/models"
	"diversityorgs/internal/search"
)

// Store is the query surface of the HTML handlers. *db.DB implements it.
type Store interface {
	search.Store
	listing.Store
	focus.Store

	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization, focusIDs []uuid.UUID, organizerID uuid.UUID) error
	UpdateOrganization(ctx context.Context, org *models.Organization, focusIDs, organizerIDs []uuid.UUID) error
	GetOrCreateFocus(ctx context.Context, kind models.FocusKind, name string) (*models.Focus, error)
	GetOrCreateLocation(ctx context.Context, loc *models.Location) error
	GetParentOrganizationByName(ctx context.Context, name string) (*models.ParentOrganization, error)
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
}

// notFound turns the store's not-found errors into a 404.
func notFound(err error) error {
	if db.IsNotFound(err) || errors.Is(err, listing.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	}
	return err
}

// render merges branding, the current user and its nav links into data
// and renders name.
func render(c fiber.Ctx, cfg *config.Config, name string, data fiber.Map) error {
	if _, ok := data["User"]; !ok {
		data["User"] = middleware.User(c)
	}
	data["Nav"] = middleware.NavFor(c)
	return c.Render(name, MergeBranding(data, cfg))
}

// parseID reads a uuid route parameter. Malformed ids are a 404.
func parseID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusNotFound, "Not Found")
	}
	return id, nil
}

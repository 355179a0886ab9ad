package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"diversityorgs/internal/db"
	"diversityorgs/internal/metrics"
	"diversityorgs/internal/models"
	"diversityorgs/internal/search"
)

// OrgStore is the query surface of the organization API.
type OrgStore interface {
	search.Store
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

// OrgHandler serves organizations as JSON.
type OrgHandler struct {
	store  OrgStore
	search *search.Cascade
}

// NewOrgHandler creates a new API organization handler.
func NewOrgHandler(store OrgStore) *OrgHandler {
	return &OrgHandler{store: store, search: search.NewCascade(store)}
}

// List runs the search cascade for ?q= and reports which step matched.
func (h *OrgHandler) List(c fiber.Ctx) error {
	result, err := h.search.Search(c.Context(), c.Query("q"))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to search organizations")
	}
	metrics.RecordSearch(string(result.Step))

	return jsonSuccess(c, fiber.Map{
		"query":         result.Query,
		"step":          result.Step,
		"organizations": nonNil(result.Organizations),
	})
}

// Get returns a single organization by slug.
func (h *OrgHandler) Get(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		if db.IsNotFound(err) {
			return jsonError(c, fiber.StatusNotFound, "organization not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch organization")
	}
	return jsonSuccess(c, org)
}

package api

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/listing"
	"diversityorgs/internal/models"
)

// GeoJSONContentType is the media type of FeatureCollection responses.
const GeoJSONContentType = "application/geo+json"

// OrganizationFilterer selects organizations.
type OrganizationFilterer interface {
	FilterOrganizations(ctx context.Context, f models.OrganizationFilter) ([]models.Organization, error)
}

// GeoHandler answers map directives with organization points.
type GeoHandler struct {
	store OrganizationFilterer
}

// NewGeoHandler creates a new geo handler.
func NewGeoHandler(store OrganizationFilterer) *GeoHandler {
	return &GeoHandler{store: store}
}

// Organizations returns a FeatureCollection of the organizations selected by
// the map directive in the query string. Organizations without a point are
// left out.
func (h *GeoHandler) Organizations(c fiber.Ctx) error {
	values := make(url.Values)
	for k, v := range c.Queries() {
		values.Set(k, v)
	}

	filter, err := listing.ParseDirective(values)
	if errors.Is(err, listing.ErrNotFound) {
		return jsonError(c, fiber.StatusBadRequest, "invalid map directive")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to parse map directive")
	}

	orgs, err := h.store.FilterOrganizations(c.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to load map organizations")
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch organizations")
	}

	body, err := FeatureCollection(orgs).MarshalJSON()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, GeoJSONContentType)
	return c.Send(body)
}

// FeatureCollection converts located organizations to GeoJSON points.
func FeatureCollection(orgs []models.Organization) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range orgs {
		if o.Location == nil || !o.Location.HasPoint() {
			continue
		}
		f := geojson.NewFeature(orb.Point{*o.Location.Longitude, *o.Location.Latitude})
		f.ID = o.ID.String()
		f.Properties["name"] = o.Name
		f.Properties["slug"] = o.Slug
		f.Properties["url"] = "/orgs/" + o.Slug + "/"
		f.Properties["location"] = o.Location.Label()
		f.Properties["online_only"] = o.OnlineOnly
		fc.Append(f)
	}
	return fc
}

package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/config"
	"diversityorgs/internal/listing"
	"diversityorgs/internal/metrics"
	"diversityorgs/internal/search"
)

// ListingHandler renders the configured listing views and search.
type ListingHandler struct {
	assembler *listing.Assembler
	search    *search.Cascade
	cfg       *config.Config
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(store Store, cfg *config.Config) *ListingHandler {
	return &ListingHandler{
		assembler: listing.NewAssembler(store, cfg.MapsKey),
		search:    search.NewCascade(store),
		cfg:       cfg,
	}
}

// View returns a handler rendering v. Route parameters name, id and slug
// and the page and location query parameters feed the listing request.
func (h *ListingHandler) View(v listing.View) fiber.Handler {
	return func(c fiber.Ctx) error {
		req := listing.Request{
			Tag:        c.Params("name"),
			LocationID: c.Params("id", c.Query("location")),
			ParentSlug: c.Params("slug"),
			Page:       c.Query("page"),
		}

		l, err := h.assembler.Assemble(c.Context(), v, req)
		if err != nil {
			return notFound(err)
		}
		return render(c, h.cfg, v.Template, fiber.Map{"Listing": l})
	}
}

// Search runs the search cascade for ?q=.
func (h *ListingHandler) Search(c fiber.Ctx) error {
	result, err := h.search.Search(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	metrics.RecordSearch(string(result.Step))
	log.Debug().Str("query", result.Query).Str("step", string(result.Step)).Int("results", len(result.Organizations)).Msg("search")

	return render(c, h.cfg, "search", fiber.Map{
		"Result":  result,
		"Parents": result.Parents(),
		"Query":   result.Query,
	})
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/forms"
	"diversityorgs/internal/models"
)

type SeedCmd struct {
	File string `help:"Taxonomy YAML file, overrides TAXONOMY_FILE" type:"path" default:""`
}

func (s *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	path := cfg.TaxonomyFile
	if s.File != "" {
		path = s.File
	}

	taxonomy, err := config.LoadTaxonomy(path)
	if err != nil {
		return err
	}
	if taxonomy == nil {
		log.Warn().Str("file", path).Msg("taxonomy file not found, nothing to seed")
		return nil
	}

	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	summary, err := seedTaxonomy(ctx, database, taxonomy)
	if err != nil {
		return err
	}
	log.Info().
		Int("focuses_created", summary.Focuses).
		Int("focus_parents", summary.Links).
		Int("parents_created", summary.Parents).
		Int("parent_organizers", summary.Organizers).
		Int("locations_pinned", summary.Locations).
		Int("featured", summary.Featured).
		Msg("taxonomy seeded")
	return nil
}

type seedStore interface {
	GetFocusByName(ctx context.Context, kind models.FocusKind, name string) (*models.Focus, error)
	CreateFocus(ctx context.Context, f *models.Focus) error
	AddFocusParent(ctx context.Context, focusID, parentID uuid.UUID) error
	GetParentOrganizationByName(ctx context.Context, name string) (*models.ParentOrganization, error)
	CreateParentOrganization(ctx context.Context, p *models.ParentOrganization) error
	parentOrganizerStore
	locationStore
	featureStore
}

type seedSummary struct {
	Focuses    int
	Links      int
	Parents    int
	Organizers int
	Locations  int
	Featured   int
}

// seedTaxonomy creates the missing focuses and parent organizations of t and
// links focuses to their parents. Existing rows are left as they are, so
// seeding twice is harmless. Location coordinates are always overwritten.
// Parent organizers and featured slugs that don't exist yet are skipped
// with a warning.
func seedTaxonomy(ctx context.Context, store seedStore, t *config.Taxonomy) (seedSummary, error) {
	var sum seedSummary
	for _, axis := range []struct {
		kind    models.FocusKind
		focuses []config.FocusConfig
	}{
		{models.FocusDiversity, t.Diversity},
		{models.FocusTechnology, t.Technology},
	} {
		ids := make(map[string]uuid.UUID, len(axis.focuses))
		for _, fc := range axis.focuses {
			f, created, err := ensureFocus(ctx, store, axis.kind, fc)
			if err != nil {
				return sum, err
			}
			if created {
				sum.Focuses++
			}
			ids[strings.ToLower(strings.TrimSpace(fc.Name))] = f.ID
		}

		for _, fc := range axis.focuses {
			child := ids[strings.ToLower(strings.TrimSpace(fc.Name))]
			for _, p := range fc.Parents {
				if err := store.AddFocusParent(ctx, child, ids[strings.ToLower(strings.TrimSpace(p))]); err != nil {
					return sum, fmt.Errorf("failed to link %q to %q: %w", fc.Name, p, err)
				}
				sum.Links++
			}
		}
	}

	for _, pc := range t.Parents {
		p, created, err := ensureParent(ctx, store, pc)
		if err != nil {
			return sum, err
		}
		if created {
			sum.Parents++
		}
		added, missing, err := addParentOrganizers(ctx, store, p.ID, pc.Organizers)
		if err != nil {
			return sum, fmt.Errorf("failed to add organizers to %q: %w", pc.Name, err)
		}
		sum.Organizers += added
		for _, email := range missing {
			log.Warn().Str("parent", p.Slug).Str("email", email).Msg("no such user, organizer skipped")
		}
	}

	for _, lc := range t.Locations {
		loc := &models.Location{
			Name:    strings.TrimSpace(lc.Name),
			Region:  strings.TrimSpace(lc.Region),
			Country: strings.TrimSpace(lc.Country),
		}
		if err := locate(ctx, store, loc, lc.Latitude, lc.Longitude); err != nil {
			return sum, fmt.Errorf("failed to locate %q: %w", lc.Name, err)
		}
		sum.Locations++
	}

	for _, slug := range t.Featured {
		_, err := featureOrganization(ctx, store, slug, true)
		if errors.Is(err, db.ErrOrgNotFound) {
			log.Warn().Str("slug", slug).Msg("no such organization, not featured")
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("failed to feature %q: %w", slug, err)
		}
		sum.Featured++
	}
	return sum, nil
}

func ensureParent(ctx context.Context, store seedStore, pc config.ParentConfig) (*models.ParentOrganization, bool, error) {
	p, err := store.GetParentOrganizationByName(ctx, pc.Name)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, db.ErrParentNotFound) {
		return nil, false, err
	}
	slug := pc.Slug
	if slug == "" {
		slug = forms.Slugify(pc.Name)
	}
	p = &models.ParentOrganization{
		Name:        strings.TrimSpace(pc.Name),
		Slug:        slug,
		Description: pc.Description,
		URL:         pc.URL,
		LogoURL:     pc.LogoURL,
	}
	if err := store.CreateParentOrganization(ctx, p); err != nil {
		return nil, false, fmt.Errorf("failed to create parent %q: %w", pc.Name, err)
	}
	return p, true, nil
}

func ensureFocus(ctx context.Context, store seedStore, kind models.FocusKind, fc config.FocusConfig) (*models.Focus, bool, error) {
	f, err := store.GetFocusByName(ctx, kind, fc.Name)
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, db.ErrFocusNotFound) {
		return nil, false, err
	}
	f = &models.Focus{Kind: kind, Name: strings.TrimSpace(fc.Name), OtherNames: fc.OtherNames}
	if err := store.CreateFocus(ctx, f); err != nil {
		return nil, false, fmt.Errorf("failed to create focus %q: %w", fc.Name, err)
	}
	return f, true, nil
}

// Package focus resolves the diversity and technology focus hierarchy.
package focus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"diversityorgs/internal/models"
)

// ErrCycle is returned when a parent link would make the hierarchy cyclic.
var ErrCycle = errors.New("focus hierarchy would contain a cycle")

// Resolve returns the direct focuses followed by their registered parents,
// deduplicated by id.
func Resolve(direct []models.Focus) []models.Focus {
	seen := make(map[uuid.UUID]bool, len(direct))
	out := make([]models.Focus, 0, len(direct))

	add := func(f models.Focus) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		out = append(out, f)
	}

	for _, f := range direct {
		add(f)
	}
	for _, f := range direct {
		for _, p := range f.Parents {
			add(p)
		}
	}
	return out
}

// Related returns the resolved diversity and technology focuses of org.
func Related(org *models.Organization) (diversity, technology []models.Focus) {
	return Resolve(org.DiversityFocus), Resolve(org.TechnologyFocus)
}

// Store looks up organizations for recommendations.
type Store interface {
	FilterOrganizations(ctx context.Context, f models.OrganizationFilter) ([]models.Organization, error)
}

// Similar returns organizations at the same location as org that share at
// least one resolved diversity focus and at least one resolved technology
// focus. An axis with no resolved focuses does not filter. Organizations
// without a location have no similar organizations.
func Similar(ctx context.Context, s Store, org *models.Organization) ([]models.Organization, error) {
	if org.LocationID == nil {
		return nil, nil
	}

	candidates, err := s.FilterOrganizations(ctx, models.OrganizationFilter{
		LocationID: org.LocationID,
		ExcludeID:  &org.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations at location: %w", err)
	}

	diversity, technology := Related(org)
	wantDiversity := idSet(diversity)
	wantTechnology := idSet(technology)

	seen := make(map[uuid.UUID]bool)
	var similar []models.Organization
	for _, c := range candidates {
		if c.ID == org.ID || seen[c.ID] {
			continue
		}
		if len(wantDiversity) > 0 && !sharesAny(c.DiversityFocus, wantDiversity) {
			continue
		}
		if len(wantTechnology) > 0 && !sharesAny(c.TechnologyFocus, wantTechnology) {
			continue
		}
		seen[c.ID] = true
		similar = append(similar, c)
	}
	return similar, nil
}

func idSet(focuses []models.Focus) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(focuses))
	for _, f := range focuses {
		set[f.ID] = true
	}
	return set
}

func sharesAny(focuses []models.Focus, want map[uuid.UUID]bool) bool {
	for _, f := range focuses {
		if want[f.ID] {
			return true
		}
	}
	return false
}

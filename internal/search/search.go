// Package search implements the directory's fallback search: a series of
// exact and substring matches followed by a weighted full-text search.
package search

import (
	"context"
	"fmt"
	"strings"

	"diversityorgs/internal/models"
)

// MinRank is the lowest full-text rank a ranked result may have.
const MinRank = 0.4

// Step names the part of the cascade that produced a result.
type Step string

// Cascade steps, in the order they are tried.
const (
	StepAll             Step = "all"
	StepExactName       Step = "exact_name"
	StepNameContains    Step = "name_contains"
	StepPlace           Step = "place"
	StepDiversityFocus  Step = "diversity_focus"
	StepTechnologyFocus Step = "technology_focus"
	StepRanked          Step = "ranked"
	StepNone            Step = "none"
)

// Store is the query surface the cascade needs.
type Store interface {
	FilterOrganizations(ctx context.Context, f models.OrganizationFilter) ([]models.Organization, error)
	RankedOrganizations(ctx context.Context, text string, minRank float64) ([]models.Organization, error)
}

// Result is the output of a search and the step that produced it.
type Result struct {
	Query         string
	Step          Step
	Organizations []models.Organization
}

// Empty returns true if nothing matched.
func (r *Result) Empty() bool {
	return len(r.Organizations) == 0
}

// Parents returns the distinct parent organizations of the results in
// first-seen order.
func (r *Result) Parents() []models.ParentOrganization {
	seen := make(map[string]bool)
	var parents []models.ParentOrganization
	for _, o := range r.Organizations {
		if o.Parent == nil || seen[o.Parent.Slug] {
			continue
		}
		seen[o.Parent.Slug] = true
		parents = append(parents, *o.Parent)
	}
	return parents
}

type filterStep struct {
	step   Step
	filter func(q string) models.OrganizationFilter
}

var filterSteps = []filterStep{
	{StepExactName, func(q string) models.OrganizationFilter {
		return models.OrganizationFilter{Name: q}
	}},
	{StepNameContains, func(q string) models.OrganizationFilter {
		return models.OrganizationFilter{NameContains: q}
	}},
	{StepPlace, func(q string) models.OrganizationFilter {
		return models.OrganizationFilter{Place: q}
	}},
	{StepDiversityFocus, func(q string) models.OrganizationFilter {
		return models.OrganizationFilter{FocusKind: models.FocusDiversity, FocusName: q}
	}},
	{StepTechnologyFocus, func(q string) models.OrganizationFilter {
		return models.OrganizationFilter{FocusKind: models.FocusTechnology, FocusName: q}
	}},
}

// Cascade runs the search steps against a store.
type Cascade struct {
	store Store
}

// NewCascade creates a cascade over store.
func NewCascade(store Store) *Cascade {
	return &Cascade{store: store}
}

// Search returns the first non-empty result of, in order: exact name, name
// substring, location name/region/country, diversity focus name, technology
// focus name, and ranked full-text search. A blank query lists every
// organization. Store errors stop the cascade.
func (c *Cascade) Search(ctx context.Context, query string) (*Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		orgs, err := c.store.FilterOrganizations(ctx, models.OrganizationFilter{})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", StepAll, err)
		}
		return &Result{Query: q, Step: StepAll, Organizations: orgs}, nil
	}

	for _, s := range filterSteps {
		orgs, err := c.store.FilterOrganizations(ctx, s.filter(q))
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", s.step, err)
		}
		if len(orgs) > 0 {
			return &Result{Query: q, Step: s.step, Organizations: orgs}, nil
		}
	}

	orgs, err := c.store.RankedOrganizations(ctx, q, MinRank)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", StepRanked, err)
	}
	if len(orgs) > 0 {
		return &Result{Query: q, Step: StepRanked, Organizations: orgs}, nil
	}
	return &Result{Query: q, Step: StepNone}, nil
}

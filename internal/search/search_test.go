package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"diversityorgs/internal/models"
)

// fakeStore answers filters over an in-memory slice and records which
// queries ran.
type fakeStore struct {
	orgs    []models.Organization
	ranked  map[string][]models.Organization
	err     error
	filters []models.OrganizationFilter
	rankedQ []string
}

func (s *fakeStore) FilterOrganizations(_ context.Context, f models.OrganizationFilter) ([]models.Organization, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Organization
	for _, o := range s.orgs {
		if f.Name != "" && !strings.EqualFold(o.Name, f.Name) {
			continue
		}
		if f.NameContains != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		if f.Place != "" && (o.Location == nil ||
			(o.Location.Name != f.Place && o.Location.Region != f.Place && o.Location.Country != f.Place)) {
			continue
		}
		if f.FocusName != "" && !hasFocus(o, f.FocusKind, f.FocusName) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *fakeStore) RankedOrganizations(_ context.Context, text string, minRank float64) ([]models.Organization, error) {
	s.rankedQ = append(s.rankedQ, text)
	if minRank != MinRank {
		return nil, errors.New("unexpected min rank")
	}
	return s.ranked[text], nil
}

func hasFocus(o models.Organization, kind models.FocusKind, name string) bool {
	focuses := o.DiversityFocus
	if kind == models.FocusTechnology {
		focuses = o.TechnologyFocus
	}
	for _, f := range focuses {
		if f.Name == name {
			return true
		}
	}
	return false
}

func fixtures() []models.Organization {
	atl := &models.Location{ID: uuid.New(), Name: "Atlanta", Region: "Georgia", Country: "USA"}
	parent := &models.ParentOrganization{ID: uuid.New(), Name: "Women Who Code", Slug: "wwc"}
	return []models.Organization{
		{ID: uuid.New(), Name: "Women Who Code Atlanta", Location: atl, Parent: parent,
			DiversityFocus:  []models.Focus{{Name: "Women"}},
			TechnologyFocus: []models.Focus{{Name: "Python"}}},
		{ID: uuid.New(), Name: "Women Who Code", Parent: parent},
		{ID: uuid.New(), Name: "Black Girls Code", Location: atl,
			DiversityFocus: []models.Focus{{Name: "Black"}}},
		{ID: uuid.New(), Name: "Out in Tech",
			DiversityFocus:  []models.Focus{{Name: "LGBTQ+"}},
			TechnologyFocus: []models.Focus{{Name: "Rust"}}},
	}
}

func names(orgs []models.Organization) []string {
	var out []string
	for _, o := range orgs {
		out = append(out, o.Name)
	}
	return out
}

func TestCascadeSteps(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantStep  Step
		wantNames []string
	}{
		{"exact name wins over substring", "women who code", StepExactName, []string{"Women Who Code"}},
		{"substring", "girls", StepNameContains, []string{"Black Girls Code"}},
		{"place by region", "Georgia", StepPlace, []string{"Women Who Code Atlanta", "Black Girls Code"}},
		{"diversity focus", "LGBTQ+", StepDiversityFocus, []string{"Out in Tech"}},
		{"technology focus", "Rust", StepTechnologyFocus, []string{"Out in Tech"}},
		{"surrounding whitespace ignored", "  Out in Tech  ", StepExactName, []string{"Out in Tech"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{orgs: fixtures()}
			res, err := NewCascade(store).Search(context.Background(), tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.wantStep, res.Step)
			require.Equal(t, tt.wantNames, names(res.Organizations))
			require.Empty(t, store.rankedQ, "ranked search must not run when an earlier step matched")
		})
	}
}

func TestCascadeStopsAtFirstMatch(t *testing.T) {
	store := &fakeStore{orgs: fixtures()}
	_, err := NewCascade(store).Search(context.Background(), "Black Girls Code")
	require.NoError(t, err)
	require.Len(t, store.filters, 1)
}

func TestCascadeFallsBackToRanked(t *testing.T) {
	ranked := []models.Organization{{ID: uuid.New(), Name: "Black Girls Code"}}
	store := &fakeStore{orgs: fixtures(), ranked: map[string][]models.Organization{"atlanta coders": ranked}}

	res, err := NewCascade(store).Search(context.Background(), "atlanta coders")
	require.NoError(t, err)
	require.Equal(t, StepRanked, res.Step)
	require.Equal(t, []string{"Black Girls Code"}, names(res.Organizations))
	require.Len(t, store.filters, len(filterSteps))
	require.Equal(t, []string{"atlanta coders"}, store.rankedQ)
}

func TestCascadeNoMatch(t *testing.T) {
	store := &fakeStore{orgs: fixtures()}
	res, err := NewCascade(store).Search(context.Background(), "zanzibar")
	require.NoError(t, err)
	require.Equal(t, StepNone, res.Step)
	require.True(t, res.Empty())
}

func TestCascadeBlankQueryListsAll(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		store := &fakeStore{orgs: fixtures()}
		res, err := NewCascade(store).Search(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, StepAll, res.Step)
		require.Len(t, res.Organizations, 4)
		require.Equal(t, []models.OrganizationFilter{{}}, store.filters)
	}
}

func TestCascadePropagatesStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewCascade(&fakeStore{err: boom}).Search(context.Background(), "anything")
	require.ErrorIs(t, err, boom)
}

func TestResultParents(t *testing.T) {
	store := &fakeStore{orgs: fixtures()}
	res, err := NewCascade(store).Search(context.Background(), "women who code")
	require.NoError(t, err)

	res.Organizations = fixtures()
	parents := res.Parents()
	require.Len(t, parents, 1)
	require.Equal(t, "wwc", parents[0].Slug)
}

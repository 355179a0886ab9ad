package focus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"diversityorgs/internal/models"
)

func newFocus(kind models.FocusKind, name string, parents ...models.Focus) models.Focus {
	return models.Focus{ID: uuid.New(), Kind: kind, Name: name, Parents: parents}
}

type fakeStore struct {
	orgs   []models.Organization
	err    error
	filter models.OrganizationFilter
}

func (s *fakeStore) FilterOrganizations(_ context.Context, f models.OrganizationFilter) ([]models.Organization, error) {
	s.filter = f
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Organization
	for _, o := range s.orgs {
		if f.LocationID != nil && (o.LocationID == nil || *o.LocationID != *f.LocationID) {
			continue
		}
		if f.ExcludeID != nil && o.ID == *f.ExcludeID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func TestResolveIncludesParents(t *testing.T) {
	b := newFocus(models.FocusDiversity, "Women")
	a := newFocus(models.FocusDiversity, "Women in Data", b)

	got := Resolve([]models.Focus{a})
	require.Equal(t, []string{"Women in Data", "Women"}, models.FocusNames(got))
}

func TestResolveDeduplicates(t *testing.T) {
	parent := newFocus(models.FocusTechnology, "Programming")
	goLang := newFocus(models.FocusTechnology, "Go", parent)
	python := newFocus(models.FocusTechnology, "Python", parent)

	got := Resolve([]models.Focus{goLang, python, parent})
	require.Len(t, got, 3)
	require.Equal(t, []string{"Go", "Python", "Programming"}, models.FocusNames(got))
}

func TestResolveEmpty(t *testing.T) {
	require.Empty(t, Resolve(nil))
}

func TestSimilarMatchesThroughParentFocus(t *testing.T) {
	loc := uuid.New()
	d0 := newFocus(models.FocusDiversity, "Women")
	d1 := newFocus(models.FocusDiversity, "Women in Security", d0)

	x := models.Organization{ID: uuid.New(), Name: "X", LocationID: &loc, DiversityFocus: []models.Focus{d1}}
	y := models.Organization{ID: uuid.New(), Name: "Y", LocationID: &loc, DiversityFocus: []models.Focus{d0}}
	store := &fakeStore{orgs: []models.Organization{x, y}}

	got, err := Similar(context.Background(), store, &x)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, y.ID, got[0].ID)
	require.Equal(t, x.ID, *store.filter.ExcludeID)
}

func TestSimilarRequiresBothAxes(t *testing.T) {
	loc := uuid.New()
	women := newFocus(models.FocusDiversity, "Women")
	goLang := newFocus(models.FocusTechnology, "Go")
	rust := newFocus(models.FocusTechnology, "Rust")

	org := models.Organization{ID: uuid.New(), LocationID: &loc,
		DiversityFocus: []models.Focus{women}, TechnologyFocus: []models.Focus{goLang}}
	match := models.Organization{ID: uuid.New(), LocationID: &loc,
		DiversityFocus: []models.Focus{women}, TechnologyFocus: []models.Focus{goLang, rust}}
	wrongTech := models.Organization{ID: uuid.New(), LocationID: &loc,
		DiversityFocus: []models.Focus{women}, TechnologyFocus: []models.Focus{rust}}
	noDiversity := models.Organization{ID: uuid.New(), LocationID: &loc,
		TechnologyFocus: []models.Focus{goLang}}
	elsewhere := models.Organization{ID: uuid.New(), LocationID: ptr(uuid.New()),
		DiversityFocus: []models.Focus{women}, TechnologyFocus: []models.Focus{goLang}}

	store := &fakeStore{orgs: []models.Organization{org, match, wrongTech, noDiversity, elsewhere}}
	got, err := Similar(context.Background(), store, &org)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, match.ID, got[0].ID)
}

func TestSimilarNoFocusesMatchesWholeLocation(t *testing.T) {
	loc := uuid.New()
	org := models.Organization{ID: uuid.New(), LocationID: &loc}
	other := models.Organization{ID: uuid.New(), LocationID: &loc,
		DiversityFocus: []models.Focus{newFocus(models.FocusDiversity, "Veterans")}}

	got, err := Similar(context.Background(), &fakeStore{orgs: []models.Organization{org, other}}, &org)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestSimilarWithoutLocationIsEmpty(t *testing.T) {
	org := models.Organization{ID: uuid.New()}
	store := &fakeStore{orgs: []models.Organization{{ID: uuid.New()}}}

	got, err := Similar(context.Background(), store, &org)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSimilarPropagatesStoreError(t *testing.T) {
	loc := uuid.New()
	boom := errors.New("boom")
	_, err := Similar(context.Background(), &fakeStore{err: boom}, &models.Organization{ID: uuid.New(), LocationID: &loc})
	require.ErrorIs(t, err, boom)
}

func TestWouldCycle(t *testing.T) {
	// a -> b -> c
	parents := map[string][]string{
		"a": {"b"},
		"b": {"c"},
	}

	tests := []struct {
		name          string
		child, parent string
		want          bool
	}{
		{"self parent", "a", "a", true},
		{"closes loop", "c", "a", true},
		{"closes short loop", "b", "a", true},
		{"extends chain", "c", "d", false},
		{"adds shortcut", "a", "c", false},
		{"new nodes", "x", "y", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, WouldCycle(parents, tt.child, tt.parent))
		})
	}
}

func TestCheckAcyclic(t *testing.T) {
	require.NoError(t, CheckAcyclic(map[string][]string{
		"Women in Data": {"Women"},
		"Women":         nil,
		"Black Women":   {"Women", "Black"},
	}))

	err := CheckAcyclic(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	})
	require.ErrorIs(t, err, ErrCycle)
}

func ptr[T any](v T) *T { return &v }

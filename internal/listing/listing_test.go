package listing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"diversityorgs/internal/models"
)

var errMissing = errors.New("missing")

type fakeStore struct {
	orgs      []models.Organization
	focuses   []models.Focus
	locations []models.Location
	parents   []models.ParentOrganization
	featured  []models.ParentOrganization
	filters   []models.OrganizationFilter
}

func (s *fakeStore) FilterOrganizations(_ context.Context, f models.OrganizationFilter) ([]models.Organization, error) {
	s.filters = append(s.filters, f)
	var out []models.Organization
	for _, o := range s.orgs {
		if f.OnlineOnly && !o.OnlineOnly {
			continue
		}
		if f.LocationID != nil && (o.LocationID == nil || *o.LocationID != *f.LocationID) {
			continue
		}
		if f.ParentID != nil && (o.ParentID == nil || *o.ParentID != *f.ParentID) {
			continue
		}
		if f.FocusID != nil {
			found := false
			for _, id := range o.FocusIDs() {
				if id == *f.FocusID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *fakeStore) GetFocusByName(_ context.Context, kind models.FocusKind, name string) (*models.Focus, error) {
	for _, f := range s.focuses {
		if f.Kind == kind && strings.EqualFold(f.Name, name) {
			return &f, nil
		}
	}
	return nil, errMissing
}

func (s *fakeStore) ListFocuses(_ context.Context, kind models.FocusKind) ([]models.Focus, error) {
	var out []models.Focus
	for _, f := range s.focuses {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) GetLocationByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	for _, l := range s.locations {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, errMissing
}

func (s *fakeStore) GetParentOrganizationBySlug(_ context.Context, slug string) (*models.ParentOrganization, error) {
	for _, p := range s.parents {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, errMissing
}

func (s *fakeStore) FeaturedParentOrganizations(context.Context) ([]models.ParentOrganization, error) {
	return s.featured, nil
}

type fixture struct {
	store  *fakeStore
	women  models.Focus
	python models.Focus
	atl    models.Location
	parent models.ParentOrganization
}

// newFixture seeds n organizations focused on women and python, every
// third one in Atlanta and every fourth one online only.
func newFixture(n int) *fixture {
	fx := &fixture{
		women:  models.Focus{ID: uuid.New(), Kind: models.FocusDiversity, Name: "Women"},
		python: models.Focus{ID: uuid.New(), Kind: models.FocusTechnology, Name: "Python"},
		atl:    models.Location{ID: uuid.New(), Name: "Atlanta", Region: "Georgia", Country: "USA"},
		parent: models.ParentOrganization{ID: uuid.New(), Name: "PyLadies", Slug: "pyladies"},
	}
	fx.store = &fakeStore{
		focuses:   []models.Focus{fx.women, fx.python},
		locations: []models.Location{fx.atl},
		parents:   []models.ParentOrganization{fx.parent},
		featured:  []models.ParentOrganization{fx.parent},
	}
	for i := range n {
		o := models.Organization{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("Org %03d", i),
			DiversityFocus:  []models.Focus{fx.women},
			TechnologyFocus: []models.Focus{fx.python},
			OnlineOnly:      i%4 == 0,
		}
		if i%3 == 0 {
			o.LocationID = &fx.atl.ID
			o.ParentID = &fx.parent.ID
		}
		fx.store.orgs = append(fx.store.orgs, o)
	}
	return fx
}

func TestPaginate(t *testing.T) {
	items := make([]int, 120)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name     string
		items    []int
		number   int
		size     int
		wantLen  int
		wantNum  int
		wantErr  bool
		numPages int
	}{
		{"first page", items, 1, 50, 50, 1, false, 3},
		{"second page", items, 2, 50, 50, 2, false, 3},
		{"short last page", items, 3, 50, 20, 3, false, 3},
		{"past the end", items, 4, 50, 0, 0, true, 0},
		{"zero page", items, 0, 50, 0, 0, true, 0},
		{"last alias", items, -1, 50, 20, 3, false, 3},
		{"technology size", items, 5, 25, 20, 5, false, 5},
		{"empty first page", nil, 1, 50, 0, 1, false, 1},
		{"empty second page", nil, 2, 50, 0, 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, page, err := Paginate(tt.items, tt.number, tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			require.Equal(t, tt.wantNum, page.Number)
			require.Equal(t, tt.numPages, page.NumPages)
		})
	}
}

func TestPaginateSlicesInOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	got, page, err := Paginate(items, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d"}, got)
	require.True(t, page.HasPrev())
	require.True(t, page.HasNext())
	require.Equal(t, 1, page.Prev())
	require.Equal(t, 3, page.Next())
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"3", 3, false},
		{" 2 ", 2, false},
		{"last", -1, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"two", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePage(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDiversityFilterPages(t *testing.T) {
	fx := newFixture(120)
	a := NewAssembler(fx.store, "maps-key")

	for page, want := range map[string]int{"": 50, "2": 50, "3": 20} {
		l, err := a.Assemble(context.Background(), DiversityFilter, Request{Tag: "women", Page: page})
		require.NoError(t, err)
		require.Len(t, l.Organizations, want)
		require.Equal(t, 3, l.Page.NumPages)
		require.Equal(t, "diversity_focus="+fx.women.ID.String(), l.Map)
		require.Equal(t, "maps-key", l.MapsKey)
		require.Equal(t, models.FocusDiversity, l.Focus)
	}

	_, err := a.Assemble(context.Background(), DiversityFilter, Request{Tag: "women", Page: "4"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFocusFilterWithLocation(t *testing.T) {
	fx := newFixture(30)
	a := NewAssembler(fx.store, "k")

	l, err := a.Assemble(context.Background(), DiversityFilter, Request{Tag: "Women", LocationID: fx.atl.ID.String()})
	require.NoError(t, err)
	require.Len(t, l.Organizations, 10)
	require.Equal(t, "Atlanta, Georgia, USA", l.LocationLabel)
	require.Equal(t, "diversity_focus="+fx.women.ID.String()+"&location="+fx.atl.ID.String(), l.Map)
}

func TestTechnologyFilterPageSize(t *testing.T) {
	fx := newFixture(30)
	a := NewAssembler(fx.store, "")

	l, err := a.Assemble(context.Background(), TechnologyFilter, Request{Tag: "python", Page: "2"})
	require.NoError(t, err)
	require.Len(t, l.Organizations, 5)
	require.Equal(t, 25, l.Page.Size)
	require.Equal(t, "technology_focus="+fx.python.ID.String(), l.Map)
}

func TestFocusFilterNotFound(t *testing.T) {
	fx := newFixture(3)
	a := NewAssembler(fx.store, "")

	_, err := a.Assemble(context.Background(), DiversityFilter, Request{Tag: "nope"})
	require.ErrorIs(t, err, errMissing)

	_, err = a.Assemble(context.Background(), DiversityFilter, Request{Tag: "women", LocationID: "not-a-uuid"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = a.Assemble(context.Background(), DiversityFilter, Request{Tag: "women", LocationID: uuid.NewString()})
	require.ErrorIs(t, err, errMissing)
}

func TestOnlineFilter(t *testing.T) {
	fx := newFixture(40)
	a := NewAssembler(fx.store, "k")

	for _, v := range []View{OnlineDiversity, OnlineTechnology} {
		l, err := a.Assemble(context.Background(), v, Request{Tag: map[string]string{
			OnlineDiversity.Name:  "women",
			OnlineTechnology.Name: "python",
		}[v.Name], Page: "99"})
		require.NoError(t, err, v.Name)
		require.Len(t, l.Organizations, 10)
		require.Equal(t, OnlineLabel, l.LocationLabel)
		require.False(t, l.HasMap())
		require.Empty(t, l.MapsKey)
		require.Nil(t, l.Page)
		for _, o := range l.Organizations {
			require.True(t, o.OnlineOnly)
		}
	}
}

func TestLocationView(t *testing.T) {
	fx := newFixture(9)
	a := NewAssembler(fx.store, "k")

	l, err := a.Assemble(context.Background(), Location, Request{LocationID: fx.atl.ID.String()})
	require.NoError(t, err)
	require.Len(t, l.Organizations, 3)
	require.Equal(t, "location="+fx.atl.ID.String(), l.Map)
	require.Equal(t, fx.atl.ID, l.Location.ID)

	_, err = a.Assemble(context.Background(), Location, Request{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTagLists(t *testing.T) {
	fx := newFixture(0)
	a := NewAssembler(fx.store, "k")

	l, err := a.Assemble(context.Background(), DiversityTags, Request{})
	require.NoError(t, err)
	require.Equal(t, []models.Focus{fx.women}, l.Focuses)
	require.Equal(t, models.FocusDiversity, l.Focus)
	require.Equal(t, "/tag/diversity/", l.FocusFilter)
	require.False(t, l.HasMap())
	require.Equal(t, 1, l.Page.Number)

	l, err = a.Assemble(context.Background(), TechnologyTags, Request{})
	require.NoError(t, err)
	require.Equal(t, "/tag/technology/", l.FocusFilter)
}

func TestParentView(t *testing.T) {
	fx := newFixture(9)
	a := NewAssembler(fx.store, "k")

	l, err := a.Assemble(context.Background(), Parent, Request{ParentSlug: "pyladies"})
	require.NoError(t, err)
	require.Len(t, l.Organizations, 3)
	require.Equal(t, "parent="+fx.parent.ID.String(), l.Map)
	require.True(t, fx.store.filters[len(fx.store.filters)-1].OrderByLocation)

	_, err = a.Assemble(context.Background(), Parent, Request{ParentSlug: "missing"})
	require.ErrorIs(t, err, errMissing)
}

func TestHomeView(t *testing.T) {
	fx := newFixture(0)
	l, err := NewAssembler(fx.store, "k").Assemble(context.Background(), Home, Request{})
	require.NoError(t, err)
	require.Equal(t, []models.ParentOrganization{fx.parent}, l.Parents)
	require.Equal(t, "is_featured=true", l.Map)
	require.Equal(t, "k", l.MapsKey)
}

func TestParseDirective(t *testing.T) {
	focusID, locID, parentID := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		query   string
		want    models.OrganizationFilter
		wantErr bool
	}{
		{
			name:  "diversity with location",
			query: NewDirective().WithID(KeyDiversityFocus, &focusID).WithID(KeyLocation, &locID).String(),
			want:  models.OrganizationFilter{FocusID: &focusID, LocationID: &locID},
		},
		{
			name:  "technology",
			query: NewDirective().WithID(KeyTechnologyFocus, &focusID).String(),
			want:  models.OrganizationFilter{FocusID: &focusID},
		},
		{
			name:  "parent",
			query: NewDirective().WithID(KeyParent, &parentID).String(),
			want:  models.OrganizationFilter{ParentID: &parentID},
		},
		{
			name:  "featured",
			query: "is_featured=true",
			want:  models.OrganizationFilter{Featured: true},
		},
		{
			name:  "unknown keys ignored",
			query: "colour=blue",
			want:  models.OrganizationFilter{},
		},
		{
			name:    "bad id",
			query:   "location=abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseDirective(values)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

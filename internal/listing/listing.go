// Package listing assembles the filtered, paginated organization and focus
// listings. Each listing type is a View; handlers are parameterized by one.
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"diversityorgs/internal/models"
)

// OnlineLabel is the location label of online-only listings.
const OnlineLabel = "Online"

// Store is the query surface listings need.
type Store interface {
	FilterOrganizations(ctx context.Context, f models.OrganizationFilter) ([]models.Organization, error)
	GetFocusByName(ctx context.Context, kind models.FocusKind, name string) (*models.Focus, error)
	ListFocuses(ctx context.Context, kind models.FocusKind) ([]models.Focus, error)
	GetLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	GetParentOrganizationBySlug(ctx context.Context, slug string) (*models.ParentOrganization, error)
	FeaturedParentOrganizations(ctx context.Context) ([]models.ParentOrganization, error)
}

// Request carries the route and query parameters of a listing.
type Request struct {
	Tag        string // focus name from the path
	LocationID string // location id from the path or ?location=
	ParentSlug string
	Page       string // raw ?page= value
}

// Listing is the template context of a listing page.
type Listing struct {
	View          string
	Organizations []models.Organization
	Focuses       []models.Focus
	Parents       []models.ParentOrganization

	Tag         *models.Focus    // focus being filtered on
	Focus       models.FocusKind // kind of focus being listed or filtered
	FocusFilter string           // path prefix of the per-tag filter pages

	Location      *models.Location
	LocationLabel string
	Parent        *models.ParentOrganization

	Map     string // map directive, empty renders without a map
	MapsKey string
	Page    *Page
}

// HasMap returns true if the listing renders a map.
func (l *Listing) HasMap() bool {
	return l.Map != ""
}

// View configures one listing type.
type View struct {
	Name     string
	Template string
	PageSize int // zero disables pagination

	// Load fetches the listing's rows and context.
	Load func(ctx context.Context, s Store, req Request, l *Listing) error
	// Directive builds the map directive, nil renders without a map.
	Directive func(l *Listing) *Directive
}

// Assembler builds listings against a store.
type Assembler struct {
	store   Store
	mapsKey string
}

// NewAssembler creates an assembler. mapsKey is forwarded to every map.
func NewAssembler(store Store, mapsKey string) *Assembler {
	return &Assembler{store: store, mapsKey: mapsKey}
}

// Assemble runs v for req. Unknown focus names, locations and parents are
// returned as the store's not-found errors; bad ids and out-of-range pages as
// ErrNotFound.
func (a *Assembler) Assemble(ctx context.Context, v View, req Request) (*Listing, error) {
	page := 1
	if v.PageSize > 0 {
		var err error
		if page, err = ParsePage(req.Page); err != nil {
			return nil, err
		}
	}

	l := &Listing{View: v.Name}
	if err := v.Load(ctx, a.store, req, l); err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name, err)
	}

	if v.PageSize > 0 {
		var err error
		if l.Focuses != nil {
			l.Focuses, l.Page, err = Paginate(l.Focuses, page, v.PageSize)
		} else {
			l.Organizations, l.Page, err = Paginate(l.Organizations, page, v.PageSize)
		}
		if err != nil {
			return nil, err
		}
	}

	if v.Directive != nil {
		if d := v.Directive(l); d != nil {
			l.Map = d.String()
			l.MapsKey = a.mapsKey
		}
	}
	return l, nil
}

func parseLocationID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrNotFound
	}
	return &id, nil
}

func loadLocation(ctx context.Context, s Store, raw string, l *Listing) error {
	id, err := parseLocationID(raw)
	if err != nil || id == nil {
		return err
	}
	loc, err := s.GetLocationByID(ctx, *id)
	if err != nil {
		return err
	}
	l.Location = loc
	l.LocationLabel = loc.Label()
	return nil
}

func focusFilterPath(kind models.FocusKind) string {
	return "/tag/" + string(kind) + "/"
}

// focusFilterView lists the organizations with a focus, optionally at a
// location.
func focusFilterView(kind models.FocusKind, pageSize int) View {
	key := string(kind) + "_focus"
	return View{
		Name:     string(kind) + "_filter",
		Template: "orgs/list",
		PageSize: pageSize,
		Load: func(ctx context.Context, s Store, req Request, l *Listing) error {
			tag, err := s.GetFocusByName(ctx, kind, req.Tag)
			if err != nil {
				return err
			}
			l.Tag = tag
			l.Focus = kind
			if err := loadLocation(ctx, s, req.LocationID, l); err != nil {
				return err
			}

			f := models.OrganizationFilter{FocusID: &tag.ID}
			if l.Location != nil {
				f.LocationID = &l.Location.ID
			}
			l.Organizations, err = s.FilterOrganizations(ctx, f)
			return err
		},
		Directive: func(l *Listing) *Directive {
			d := NewDirective().WithID(key, &l.Tag.ID)
			if l.Location != nil {
				d.WithID(KeyLocation, &l.Location.ID)
			}
			return d
		},
	}
}

// onlineFilterView lists online-only organizations with a focus.
func onlineFilterView(kind models.FocusKind) View {
	return View{
		Name:     "online_" + string(kind) + "_filter",
		Template: "orgs/list",
		Load: func(ctx context.Context, s Store, req Request, l *Listing) error {
			tag, err := s.GetFocusByName(ctx, kind, req.Tag)
			if err != nil {
				return err
			}
			l.Tag = tag
			l.Focus = kind
			l.LocationLabel = OnlineLabel
			l.Organizations, err = s.FilterOrganizations(ctx, models.OrganizationFilter{
				FocusID:    &tag.ID,
				OnlineOnly: true,
			})
			return err
		},
	}
}

// tagListView lists every focus of a kind.
func tagListView(kind models.FocusKind, pageSize int) View {
	return View{
		Name:     string(kind) + "_tags",
		Template: "tags/list",
		PageSize: pageSize,
		Load: func(ctx context.Context, s Store, _ Request, l *Listing) error {
			focuses, err := s.ListFocuses(ctx, kind)
			if err != nil {
				return err
			}
			if focuses == nil {
				focuses = []models.Focus{}
			}
			l.Focuses = focuses
			l.Focus = kind
			l.FocusFilter = focusFilterPath(kind)
			return nil
		},
	}
}

// Listing views.
var (
	DiversityFilter  = focusFilterView(models.FocusDiversity, 50)
	TechnologyFilter = focusFilterView(models.FocusTechnology, 25)
	OnlineDiversity  = onlineFilterView(models.FocusDiversity)
	OnlineTechnology = onlineFilterView(models.FocusTechnology)
	DiversityTags    = tagListView(models.FocusDiversity, 50)
	TechnologyTags   = tagListView(models.FocusTechnology, 50)

	Location = View{
		Name:     "location",
		Template: "orgs/list",
		Load: func(ctx context.Context, s Store, req Request, l *Listing) error {
			if strings.TrimSpace(req.LocationID) == "" {
				return ErrNotFound
			}
			if err := loadLocation(ctx, s, req.LocationID, l); err != nil {
				return err
			}
			var err error
			l.Organizations, err = s.FilterOrganizations(ctx, models.OrganizationFilter{LocationID: &l.Location.ID})
			return err
		},
		Directive: func(l *Listing) *Directive {
			return NewDirective().WithID(KeyLocation, &l.Location.ID)
		},
	}

	Parent = View{
		Name:     "parent",
		Template: "parents/detail",
		Load: func(ctx context.Context, s Store, req Request, l *Listing) error {
			parent, err := s.GetParentOrganizationBySlug(ctx, req.ParentSlug)
			if err != nil {
				return err
			}
			l.Parent = parent
			l.Organizations, err = s.FilterOrganizations(ctx, models.OrganizationFilter{
				ParentID:        &parent.ID,
				OrderByLocation: true,
			})
			return err
		},
		Directive: func(l *Listing) *Directive {
			return NewDirective().WithID(KeyParent, &l.Parent.ID)
		},
	}

	Home = View{
		Name:     "home",
		Template: "home",
		Load: func(ctx context.Context, s Store, _ Request, l *Listing) error {
			var err error
			l.Parents, err = s.FeaturedParentOrganizations(ctx)
			return err
		},
		Directive: func(*Listing) *Directive {
			return NewDirective().With(KeyFeatured, "true")
		},
	}
)

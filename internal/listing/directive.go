package listing

import (
	"net/url"

	"github.com/google/uuid"

	"diversityorgs/internal/models"
)

// Map directive keys understood by the geo API.
const (
	KeyDiversityFocus  = "diversity_focus"
	KeyTechnologyFocus = "technology_focus"
	KeyLocation        = "location"
	KeyParent          = "parent"
	KeyFeatured        = "is_featured"
)

// Directive is the query string a rendered map uses to fetch its points.
type Directive struct {
	values url.Values
}

// NewDirective starts an empty directive.
func NewDirective() *Directive {
	return &Directive{values: url.Values{}}
}

// With sets key to value and returns the directive.
func (d *Directive) With(key, value string) *Directive {
	d.values.Set(key, value)
	return d
}

// WithID sets key to the id if it is non-nil.
func (d *Directive) WithID(key string, id *uuid.UUID) *Directive {
	if id != nil {
		d.values.Set(key, id.String())
	}
	return d
}

// String encodes the directive, keys in sorted order.
func (d *Directive) String() string {
	if d == nil {
		return ""
	}
	return d.values.Encode()
}

// ParseDirective turns a map directive back into an organization filter.
// Unknown keys are ignored; malformed ids yield ErrNotFound.
func ParseDirective(values url.Values) (models.OrganizationFilter, error) {
	var f models.OrganizationFilter

	parseID := func(key string) (*uuid.UUID, error) {
		raw := values.Get(key)
		if raw == "" {
			return nil, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrNotFound
		}
		return &id, nil
	}

	var err error
	if f.FocusID, err = parseID(KeyDiversityFocus); err != nil {
		return f, err
	}
	if f.FocusID == nil {
		if f.FocusID, err = parseID(KeyTechnologyFocus); err != nil {
			return f, err
		}
	}
	if f.LocationID, err = parseID(KeyLocation); err != nil {
		return f, err
	}
	if f.ParentID, err = parseID(KeyParent); err != nil {
		return f, err
	}
	f.Featured = values.Get(KeyFeatured) == "true"
	return f, nil
}

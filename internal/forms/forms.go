// Package forms holds the HTML form payloads, their validation, and the
// parsing of free-text form fields into models.
package forms

import (
	"regexp"
	"strings"

	"diversityorgs/internal/models"
)

// OrganizationForm is the create and update form of an organization.
type OrganizationForm struct {
	Name             string `form:"name" validate:"required,max=255"`
	Description      string `form:"description" validate:"max=5000"`
	URL              string `form:"url" validate:"omitempty,httpurl"`
	CodeOfConductURL string `form:"code_of_conduct" validate:"omitempty,httpurl"`
	LogoURL          string `form:"logo" validate:"omitempty,httpurl"`
	Parent           string `form:"parent" validate:"max=255"`
	Location         string `form:"location" validate:"max=255"`
	DiversityFocus   string `form:"diversity_focus" validate:"max=1000"`
	TechnologyFocus  string `form:"technology_focus" validate:"max=1000"`
	Organizers       string `form:"organizers" validate:"omitempty,emaillist"`
	OnlineOnly       bool   `form:"online_only"`
	OrgType          string `form:"org_type" validate:"omitempty,orgtype"`
}

// Type returns the chosen organization type, defaulting to a user group.
func (f *OrganizationForm) Type() models.OrgType {
	if f.OrgType == "" {
		return models.OrgTypeUserGroup
	}
	return models.OrgType(f.OrgType)
}

// Apply copies the scalar fields onto org. Relations are resolved by the
// caller.
func (f *OrganizationForm) Apply(org *models.Organization) {
	org.Name = strings.TrimSpace(f.Name)
	org.Description = strings.TrimSpace(f.Description)
	org.URL = strings.TrimSpace(f.URL)
	org.CodeOfConductURL = strings.TrimSpace(f.CodeOfConductURL)
	org.LogoURL = strings.TrimSpace(f.LogoURL)
	org.OnlineOnly = f.OnlineOnly
	org.OrgType = f.Type()
}

// InitialValues pre-fills the form from an existing organization. Focus names
// and organizer emails are joined with ", " and the location is written by
// FormatLocation.
func InitialValues(org *models.Organization) OrganizationForm {
	f := OrganizationForm{
		Name:             org.Name,
		Description:      org.Description,
		URL:              org.URL,
		CodeOfConductURL: org.CodeOfConductURL,
		LogoURL:          org.LogoURL,
		DiversityFocus:   strings.Join(models.FocusNames(org.DiversityFocus), ", "),
		TechnologyFocus:  strings.Join(models.FocusNames(org.TechnologyFocus), ", "),
		OnlineOnly:       org.OnlineOnly,
		OrgType:          string(org.OrgType),
	}

	emails := make([]string, 0, len(org.Organizers))
	for _, u := range org.Organizers {
		emails = append(emails, u.Email)
	}
	f.Organizers = strings.Join(emails, ", ")

	if org.Location != nil {
		f.Location = FormatLocation(org.Location)
	}
	if org.Parent != nil {
		f.Parent = org.Parent.Name
	}
	return f
}

// SuggestEditForm is an anonymous proposal of new organization values. Only
// the fields the user filled in are recorded.
type SuggestEditForm struct {
	Name             string `form:"name" validate:"max=255"`
	Description      string `form:"description" validate:"max=5000"`
	URL              string `form:"url" validate:"omitempty,httpurl"`
	CodeOfConductURL string `form:"code_of_conduct" validate:"omitempty,httpurl"`
	LogoURL          string `form:"logo" validate:"omitempty,httpurl"`
	Parent           string `form:"parent" validate:"max=255"`
	Location         string `form:"location" validate:"max=255"`
	DiversityFocus   string `form:"diversity_focus" validate:"max=1000"`
	TechnologyFocus  string `form:"technology_focus" validate:"max=1000"`
	OrgType          string `form:"org_type" validate:"omitempty,orgtype"`
	Notes            string `form:"notes" validate:"max=5000"`
}

// SuggestionFrom pre-fills a suggestion with the organization's current
// values.
func SuggestionFrom(org *models.Organization) SuggestEditForm {
	f := InitialValues(org)
	return SuggestEditForm{
		Name:             f.Name,
		Description:      f.Description,
		URL:              f.URL,
		CodeOfConductURL: f.CodeOfConductURL,
		LogoURL:          f.LogoURL,
		Parent:           f.Parent,
		Location:         f.Location,
		DiversityFocus:   f.DiversityFocus,
		TechnologyFocus:  f.TechnologyFocus,
		OrgType:          f.OrgType,
	}
}

// Fields returns the non-empty fields keyed by form name.
func (f *SuggestEditForm) Fields() map[string]string {
	all := map[string]string{
		"name":             f.Name,
		"description":      f.Description,
		"url":              f.URL,
		"code_of_conduct":  f.CodeOfConductURL,
		"logo":             f.LogoURL,
		"parent":           f.Parent,
		"location":         f.Location,
		"diversity_focus":  f.DiversityFocus,
		"technology_focus": f.TechnologyFocus,
		"org_type":         f.OrgType,
		"notes":            f.Notes,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

// Changes returns the fields whose value differs from current, plus the
// notes. Clearing a field is not recorded.
func (f *SuggestEditForm) Changes(current SuggestEditForm) map[string]string {
	proposed := f.Fields()
	existing := current.Fields()
	for k, v := range proposed {
		if k != "notes" && existing[k] == v {
			delete(proposed, k)
		}
	}
	return proposed
}

// ViolationReportForm reports a code of conduct or content violation.
type ViolationReportForm struct {
	Report string `form:"report" validate:"required,max=5000"`
}

// ClaimForm asks moderators to make the user an organizer.
type ClaimForm struct {
	Message string `form:"message" validate:"max=2000"`
}

// ParseNames splits a comma separated list, trimming whitespace and dropping
// empty and case-insensitively repeated entries.
func ParseNames(csv string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// FormatLocation writes a location so that ParseLocation reads back the same
// name, region and country. Empty parts are left out unless dropping them
// would move the region into the country position.
func FormatLocation(l *models.Location) string {
	switch {
	case l.Region == "" && l.Country == "":
		return l.Name
	case l.Region == "":
		return l.Name + ", " + l.Country
	default:
		return l.Name + ", " + l.Region + ", " + l.Country
	}
}

// ParseLocation reads "name, region, country". Two parts are a name and a
// country; extra middle parts are joined into the region. Parts keep their
// position when empty, so "Portland, Oregon, " has no country. Blank input
// is nil.
func ParseLocation(s string) *models.Location {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	switch len(parts) {
	case 0:
		return nil
	case 1:
		return &models.Location{Name: parts[0]}
	case 2:
		return &models.Location{Name: parts[0], Country: parts[1]}
	default:
		var region []string
		for _, p := range parts[1 : len(parts)-1] {
			if p != "" {
				region = append(region, p)
			}
		}
		return &models.Location{
			Name:    parts[0],
			Region:  strings.Join(region, ", "),
			Country: parts[len(parts)-1],
		}
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a name into a URL path segment.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

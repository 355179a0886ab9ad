package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrgType classifies what kind of group an organization is.
type OrgType string

// Organization types
const (
	OrgTypeUserGroup            OrgType = "USER_GROUP"
	OrgTypeEmploymentAssistance OrgType = "EMPLOYMENT_ASSISTANCE_PROGRAM"
	OrgTypeNetworking           OrgType = "NETWORKING"
	OrgTypeMentorship           OrgType = "MENTORSHIP"
	OrgTypeConference           OrgType = "CONFERENCE"
	OrgTypeYouthOrganization    OrgType = "YOUTH_ORGANIZATION"
	OrgTypeCodeSchool           OrgType = "CODE_SCHOOL"
	OrgTypeOther                OrgType = "OTHER"
)

// Website check states.
const (
	WebsiteUnknown   = "unknown"
	WebsiteHealthy   = "healthy"
	WebsiteUnhealthy = "unhealthy"
)

// OrgTypes lists every organization type in display order.
var OrgTypes = []OrgType{
	OrgTypeUserGroup,
	OrgTypeEmploymentAssistance,
	OrgTypeNetworking,
	OrgTypeMentorship,
	OrgTypeConference,
	OrgTypeYouthOrganization,
	OrgTypeCodeSchool,
	OrgTypeOther,
}

var orgTypeLabels = map[OrgType]string{
	OrgTypeUserGroup:            "User Group",
	OrgTypeEmploymentAssistance: "Employment Assistance Program",
	OrgTypeNetworking:           "Network",
	OrgTypeMentorship:           "Mentorship",
	OrgTypeConference:           "Conference",
	OrgTypeYouthOrganization:    "Youth Organization",
	OrgTypeCodeSchool:           "Code School",
	OrgTypeOther:                "Other",
}

// Valid reports whether t is a known organization type.
func (t OrgType) Valid() bool {
	_, ok := orgTypeLabels[t]
	return ok
}

// Label returns the human readable name of the type.
func (t OrgType) Label() string {
	if l, ok := orgTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Organization is a directory entry. An organization with a parent is a chapter.
type Organization struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	URL              string     `json:"url"`
	CodeOfConductURL string     `json:"code_of_conduct_url"`
	LogoURL          string     `json:"logo_url"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty"`
	LocationID       *uuid.UUID `json:"location_id,omitempty"`
	OnlineOnly       bool       `json:"online_only"`
	IsFeatured       bool       `json:"is_featured"`
	OrgType          OrgType    `json:"org_type"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	WebsiteStatus    string     `json:"website_status"`
	WebsiteCheckedAt *time.Time `json:"website_checked_at,omitempty"`

	// Joined from related tables
	Parent          *ParentOrganization `json:"parent,omitempty"`
	Location        *Location           `json:"location,omitempty"`
	DiversityFocus  []Focus             `json:"diversity_focus,omitempty"`
	TechnologyFocus []Focus             `json:"technology_focus,omitempty"`
	Organizers      []User              `json:"-"`
}

// IsChapter returns true if the organization belongs to a parent organization.
func (o *Organization) IsChapter() bool {
	return o.ParentID != nil
}

// FocusIDs returns the ids of every direct focus, diversity first.
func (o *Organization) FocusIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.DiversityFocus)+len(o.TechnologyFocus))
	for _, f := range o.DiversityFocus {
		ids = append(ids, f.ID)
	}
	for _, f := range o.TechnologyFocus {
		ids = append(ids, f.ID)
	}
	return ids
}

// ParentOrganization groups chapters of the same organization.
type ParentOrganization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Organizers []User `json:"-"`
}

// Location is a place shared by any number of organizations.
type Location struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Country   string    `json:"country"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPoint returns true if the location has coordinates.
func (l *Location) HasPoint() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Label joins the non-empty name, region and country with ", ".
func (l *Location) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// OrganizationFilter selects organizations. Zero-valued fields do not filter.
type OrganizationFilter struct {
	Name         string // case-insensitive exact name
	NameContains string // case-insensitive substring of name
	Place        string // exact location name, region or country
	FocusKind    FocusKind
	FocusName    string // exact focus name, requires FocusKind
	FocusID      *uuid.UUID
	LocationID   *uuid.UUID
	ParentID     *uuid.UUID
	ExcludeID    *uuid.UUID
	OrganizerID  *uuid.UUID
	OnlineOnly   bool
	Featured     bool

	// OrderByLocation sorts by country then location name instead of by name.
	OrderByLocation bool
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"diversityorgs/internal/focus"
)

// Taxonomy is the seed file describing focuses, parent organizations,
// location coordinates and featured organizations. Hierarchies are easier
// to maintain in YAML than through the web forms.
type Taxonomy struct {
	Diversity  []FocusConfig    `yaml:"diversity"`
	Technology []FocusConfig    `yaml:"technology"`
	Parents    []ParentConfig   `yaml:"parents"`
	Locations  []LocationConfig `yaml:"locations"`
	Featured   []string         `yaml:"featured"` // organization slugs
}

// FocusConfig defines a focus and the names of its broader categories.
type FocusConfig struct {
	Name       string   `yaml:"name"`
	OtherNames []string `yaml:"other_names,omitempty"`
	Parents    []string `yaml:"parents,omitempty"` // names of focuses in the same list
}

// ParentConfig defines a parent organization.
type ParentConfig struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug,omitempty"` // derived from the name when empty
	Description string `yaml:"description,omitempty"`
	URL         string `yaml:"url,omitempty"`
	LogoURL     string `yaml:"logo_url,omitempty"`
	// Organizers are emails of users who may edit every chapter.
	Organizers []string `yaml:"organizers,omitempty"`
}

// LocationConfig pins a location to a point on the map.
type LocationConfig struct {
	Name      string  `yaml:"name"`
	Region    string  `yaml:"region,omitempty"`
	Country   string  `yaml:"country,omitempty"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lon"`
}

// ValidCoordinates returns true if lat and lon lie on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// LoadTaxonomy reads and validates the taxonomy file at path.
// Returns nil without error if the file doesn't exist.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates taxonomy YAML.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that names are unique, that parents exist, and that
// neither hierarchy has a cycle.
func (t *Taxonomy) Validate() error {
	if err := validateFocuses("diversity", t.Diversity); err != nil {
		return err
	}
	if err := validateFocuses("technology", t.Technology); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, p := range t.Parents {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("parent organization with empty name")
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate parent organization %q", p.Name)
		}
		seen[key] = true
	}

	places := make(map[string]bool)
	for _, l := range t.Locations {
		if strings.TrimSpace(l.Name) == "" {
			return errors.New("location with empty name")
		}
		if !ValidCoordinates(l.Latitude, l.Longitude) {
			return fmt.Errorf("location %q has coordinates off the globe", l.Name)
		}
		key := strings.ToLower(strings.Join([]string{
			strings.TrimSpace(l.Name), strings.TrimSpace(l.Region), strings.TrimSpace(l.Country),
		}, "|"))
		if places[key] {
			return fmt.Errorf("duplicate location %q", l.Name)
		}
		places[key] = true
	}

	for _, slug := range t.Featured {
		if strings.TrimSpace(slug) == "" {
			return errors.New("featured organization with empty slug")
		}
	}
	return nil
}

func validateFocuses(kind string, focuses []FocusConfig) error {
	known := make(map[string]bool, len(focuses))
	for _, f := range focuses {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		if name == "" {
			return fmt.Errorf("%s focus with empty name", kind)
		}
		if known[name] {
			return fmt.Errorf("duplicate %s focus %q", kind, f.Name)
		}
		known[name] = true
	}

	graph := make(map[string][]string, len(focuses))
	for _, f := range focuses {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		for _, p := range f.Parents {
			parent := strings.ToLower(strings.TrimSpace(p))
			if !known[parent] {
				return fmt.Errorf("%s focus %q has unknown parent %q", kind, f.Name, p)
			}
			graph[name] = append(graph[name], parent)
		}
	}

	if err := focus.CheckAcyclic(graph); err != nil {
		return fmt.Errorf("%s focuses: %w", kind, err)
	}
	return nil
}

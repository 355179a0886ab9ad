package models

import (
	"time"

	"github.com/google/uuid"
)

// FocusKind separates the two focus taxonomies.
type FocusKind string

// Focus kinds
const (
	FocusDiversity  FocusKind = "diversity"
	FocusTechnology FocusKind = "technology"
)

// Valid reports whether k is a known focus kind.
func (k FocusKind) Valid() bool {
	return k == FocusDiversity || k == FocusTechnology
}

// Focus is a diversity or technology tag. Parents are broader categories
// of the same kind.
type Focus struct {
	ID         uuid.UUID `json:"id"`
	Kind       FocusKind `json:"kind"`
	Name       string    `json:"name"`
	OtherNames []string  `json:"other_names,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Parents []Focus `json:"parents,omitempty"`
}

// FocusNames returns the names of the given focuses in order.
func FocusNames(focuses []Focus) []string {
	names := make([]string, len(focuses))
	for i, f := range focuses {
		names[i] = f.Name
	}
	return names
}

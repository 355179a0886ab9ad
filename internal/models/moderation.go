package models

import (
	"time"

	"github.com/google/uuid"
)

// Moderation statuses
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// SuggestedEdit is a set of proposed field values for an organization.
// Moderators apply them by hand.
type SuggestedEdit struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Report         map[string]string `json:"report"`
	UserID         *uuid.UUID        `json:"user_id,omitempty"`
	Status         string            `json:"status"`
	ReviewedBy     *uuid.UUID        `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`

	// Joined fields for display
	OrganizationName string `json:"organization_name,omitempty"`
	OrganizationSlug string `json:"organization_slug,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
}

// ViolationReport is a free-text complaint about an organization.
type ViolationReport struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Report         string     `json:"report"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Status         string     `json:"status"`
	ReviewedBy     *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	OrganizationName string `json:"organization_name,omitempty"`
	OrganizationSlug string `json:"organization_slug,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
}

// ClaimRequest asks for organizer rights on an organization. It grants
// nothing until a moderator approves it.
type ClaimRequest struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	ReviewedBy     *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	OrganizationName string `json:"organization_name,omitempty"`
	OrganizationSlug string `json:"organization_slug,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
}

// ModerationQueue holds everything waiting for review.
type ModerationQueue struct {
	Edits   []SuggestedEdit
	Reports []ViolationReport
	Claims  []ClaimRequest
}

// Len returns the number of pending items.
func (q *ModerationQueue) Len() int {
	return len(q.Edits) + len(q.Reports) + len(q.Claims)
}

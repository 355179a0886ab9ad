// Package moderation accepts suggested edits, violation reports and claims,
// and lets moderators work through them. Intake is append-only: nothing here
// changes an organization until a moderator acts.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/events"
	"diversityorgs/internal/models"
)

var (
	ErrUnauthenticated  = errors.New("login required")
	ErrForbidden        = errors.New("not allowed to review moderation items")
	ErrEmptyEdit        = errors.New("suggested edit has no fields")
	ErrEmptyReport      = errors.New("violation report is empty")
	ErrAlreadyOrganizer = errors.New("user already organizes this organization")
)

// Store persists moderation items.
type Store interface {
	CreateSuggestedEdit(ctx context.Context, edit *models.SuggestedEdit) error
	CreateViolationReport(ctx context.Context, report *models.ViolationReport) error
	CreateClaimRequest(ctx context.Context, claim *models.ClaimRequest) error
	GetModerationQueue(ctx context.Context) (*models.ModerationQueue, error)
	MarkSuggestedEditReviewed(ctx context.Context, id, reviewerID uuid.UUID) error
	MarkViolationReportReviewed(ctx context.Context, id, reviewerID uuid.UUID) error
	ApproveClaimRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ClaimRequest, error)
	RejectClaimRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ClaimRequest, error)
}

// Gate decides who may review.
type Gate interface {
	CanReview(user *models.User) bool
}

// Notifier tells people about moderation activity.
type Notifier interface {
	NotifyEditSuggested(ctx context.Context, org *models.Organization, edit *models.SuggestedEdit, submitter *models.User)
	NotifyViolationReported(ctx context.Context, org *models.Organization, report *models.ViolationReport, submitter *models.User)
	NotifyClaimRequested(ctx context.Context, org *models.Organization, claim *models.ClaimRequest, claimant *models.User)
	NotifyClaimReviewed(ctx context.Context, claim *models.ClaimRequest)
}

// Service is the moderation workflow.
type Service struct {
	store    Store
	gate     Gate
	notifier Notifier
	events   events.Publisher
}

// NewService creates a moderation service. A nil publisher discards events.
func NewService(store Store, gate Gate, notifier Notifier, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: store, gate: gate, notifier: notifier, events: publisher}
}

func userID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

// SubmitEdit records proposed field values for org. user may be nil.
func (s *Service) SubmitEdit(ctx context.Context, org *models.Organization, user *models.User, fields map[string]string) (*models.SuggestedEdit, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyEdit
	}

	edit := &models.SuggestedEdit{
		OrganizationID: org.ID,
		Report:         fields,
		UserID:         userID(user),
	}
	if err := s.store.CreateSuggestedEdit(ctx, edit); err != nil {
		return nil, fmt.Errorf("failed to save suggested edit: %w", err)
	}

	log.Info().Str("org", org.Slug).Str("edit_id", edit.ID.String()).Msg("Suggested edit submitted")
	s.events.Publish(events.Event{Kind: events.EditSuggested, ItemID: edit.ID, OrganizationID: org.ID, UserID: edit.UserID})
	s.notifier.NotifyEditSuggested(ctx, org, edit, user)
	return edit, nil
}

// SubmitViolation records a violation report for org. user may be nil.
func (s *Service) SubmitViolation(ctx context.Context, org *models.Organization, user *models.User, text string) (*models.ViolationReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReport
	}

	report := &models.ViolationReport{
		OrganizationID: org.ID,
		Report:         text,
		UserID:         userID(user),
	}
	if err := s.store.CreateViolationReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save violation report: %w", err)
	}

	log.Info().Str("org", org.Slug).Str("report_id", report.ID.String()).Msg("Violation reported")
	s.events.Publish(events.Event{Kind: events.ViolationReported, ItemID: report.ID, OrganizationID: org.ID, UserID: report.UserID})
	s.notifier.NotifyViolationReported(ctx, org, report, user)
	return report, nil
}

// RequestClaim asks moderators to make user an organizer of org. It grants
// nothing by itself.
func (s *Service) RequestClaim(ctx context.Context, org *models.Organization, user *models.User, message string) (*models.ClaimRequest, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if models.ContainsUser(org.Organizers, user.ID) {
		return nil, ErrAlreadyOrganizer
	}

	claim := &models.ClaimRequest{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Message:        strings.TrimSpace(message),
	}
	if err := s.store.CreateClaimRequest(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save claim: %w", err)
	}

	log.Info().Str("org", org.Slug).Str("user", user.Email).Msg("Organization claim requested")
	s.events.Publish(events.Event{Kind: events.ClaimRequested, ItemID: claim.ID, OrganizationID: org.ID, UserID: &claim.UserID})
	s.notifier.NotifyClaimRequested(ctx, org, claim, user)
	return claim, nil
}

func (s *Service) authorize(reviewer *models.User) error {
	if reviewer == nil {
		return ErrUnauthenticated
	}
	if !s.gate.CanReview(reviewer) {
		return ErrForbidden
	}
	return nil
}

// Queue returns every pending item.
func (s *Service) Queue(ctx context.Context, reviewer *models.User) (*models.ModerationQueue, error) {
	if err := s.authorize(reviewer); err != nil {
		return nil, err
	}
	return s.store.GetModerationQueue(ctx)
}

// ReviewEdit closes a suggested edit.
func (s *Service) ReviewEdit(ctx context.Context, reviewer *models.User, id uuid.UUID) error {
	if err := s.authorize(reviewer); err != nil {
		return err
	}
	if err := s.store.MarkSuggestedEditReviewed(ctx, id, reviewer.ID); err != nil {
		return err
	}
	log.Info().Str("edit_id", id.String()).Str("reviewer", reviewer.Email).Msg("Suggested edit reviewed")
	s.events.Publish(events.Event{Kind: events.ItemReviewed, ItemID: id, UserID: &reviewer.ID})
	return nil
}

// ReviewReport closes a violation report.
func (s *Service) ReviewReport(ctx context.Context, reviewer *models.User, id uuid.UUID) error {
	if err := s.authorize(reviewer); err != nil {
		return err
	}
	if err := s.store.MarkViolationReportReviewed(ctx, id, reviewer.ID); err != nil {
		return err
	}
	log.Info().Str("report_id", id.String()).Str("reviewer", reviewer.Email).Msg("Violation report reviewed")
	s.events.Publish(events.Event{Kind: events.ItemReviewed, ItemID: id, UserID: &reviewer.ID})
	return nil
}

// ApproveClaim makes the claimant an organizer.
func (s *Service) ApproveClaim(ctx context.Context, reviewer *models.User, id uuid.UUID) (*models.ClaimRequest, error) {
	if err := s.authorize(reviewer); err != nil {
		return nil, err
	}
	claim, err := s.store.ApproveClaimRequest(ctx, id, reviewer.ID)
	if err != nil {
		return nil, err
	}
	s.claimReviewed(ctx, claim, events.ClaimApproved, reviewer)
	return claim, nil
}

// RejectClaim closes a claim without granting anything.
func (s *Service) RejectClaim(ctx context.Context, reviewer *models.User, id uuid.UUID) (*models.ClaimRequest, error) {
	if err := s.authorize(reviewer); err != nil {
		return nil, err
	}
	claim, err := s.store.RejectClaimRequest(ctx, id, reviewer.ID)
	if err != nil {
		return nil, err
	}
	s.claimReviewed(ctx, claim, events.ClaimRejected, reviewer)
	return claim, nil
}

func (s *Service) claimReviewed(ctx context.Context, claim *models.ClaimRequest, kind string, reviewer *models.User) {
	log.Info().
		Str("org", claim.OrganizationSlug).
		Str("user", claim.UserEmail).
		Str("status", claim.Status).
		Str("reviewer", reviewer.Email).
		Msg("Organization claim reviewed")
	s.events.Publish(events.Event{Kind: kind, ItemID: claim.ID, OrganizationID: claim.OrganizationID, UserID: &claim.UserID})
	s.notifier.NotifyClaimReviewed(ctx, claim)
}

package email

import (
	"context"

	"github.com/rs/zerolog/log"

	"diversityorgs/internal/config"
	"diversityorgs/internal/models"
)

// ModeratorEmailGetter looks up who receives moderation notifications.
type ModeratorEmailGetter interface {
	GetModeratorEmails(ctx context.Context) ([]string, error)
}

// Notifier sends email notifications for moderation events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        ModeratorEmailGetter
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db ModeratorEmailGetter) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
}

// moderatorEmails returns nil when moderator notifications are off or
// nobody can receive them.
func (n *Notifier) moderatorEmails(ctx context.Context) []string {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyModerators {
		return nil
	}

	emails, err := n.db.GetModeratorEmails(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get moderator emails")
		return nil
	}
	if len(emails) == 0 {
		log.Debug().Msg("No moderator emails found for notification")
	}
	return emails
}

// NotifyEditSuggested tells moderators about a new suggested edit.
func (n *Notifier) NotifyEditSuggested(ctx context.Context, org *models.Organization, edit *models.SuggestedEdit, submitter *models.User) {
	emails := n.moderatorEmails(ctx)
	if len(emails) == 0 {
		return
	}
	subject, htmlBody, textBody := n.templates.EditSuggested(org, edit, emailOf(submitter))
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyViolationReported tells moderators about a new violation report.
func (n *Notifier) NotifyViolationReported(ctx context.Context, org *models.Organization, report *models.ViolationReport, submitter *models.User) {
	emails := n.moderatorEmails(ctx)
	if len(emails) == 0 {
		return
	}
	subject, htmlBody, textBody := n.templates.ViolationReported(org, report, emailOf(submitter))
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyClaimRequested tells moderators a user wants to organize an
// organization.
func (n *Notifier) NotifyClaimRequested(ctx context.Context, org *models.Organization, claim *models.ClaimRequest, claimant *models.User) {
	emails := n.moderatorEmails(ctx)
	if len(emails) == 0 {
		return
	}
	subject, htmlBody, textBody := n.templates.ClaimRequested(org, claim, claimant)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyClaimReviewed tells the claimant whether their claim was approved.
func (n *Notifier) NotifyClaimReviewed(_ context.Context, claim *models.ClaimRequest) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyClaimants {
		return
	}
	if claim.UserEmail == "" {
		return
	}
	subject, htmlBody, textBody := n.templates.ClaimReviewed(claim)
	n.service.SendAsync([]string{claim.UserEmail}, subject, htmlBody, textBody)
}

func emailOf(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

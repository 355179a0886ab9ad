package email

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"diversityorgs/internal/config"
	"diversityorgs/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .button:hover { background: #1d4ed8; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .value { color: #6b7280; }
        .success { color: #059669; }
        .warning { color: #d97706; }
        .error { color: #dc2626; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

func (t *Templates) orgURL(org *models.Organization) string {
	return fmt.Sprintf("%s/orgs/%s/", t.cfg.BaseURL, org.Slug)
}

func (t *Templates) footer() string {
	return fmt.Sprintf("--\n%s\n%s", t.cfg.SiteTitle, t.cfg.BaseURL)
}

func submitterName(email string) string {
	if email == "" {
		return "Anonymous"
	}
	return email
}

// EditSuggested generates email for moderators when an edit is suggested.
func (t *Templates) EditSuggested(org *models.Organization, edit *models.SuggestedEdit, submitterEmail string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Suggested edit for %s", t.cfg.SiteTitle, org.Name)

	keys := slices.Sorted(maps.Keys(edit.Report))
	var rows, lines strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&rows, "<p><span class=\"label\">%s:</span> %s</p>\n",
			html.EscapeString(k), html.EscapeString(edit.Report[k]))
		fmt.Fprintf(&lines, "%s: %s\n", k, edit.Report[k])
	}

	content := fmt.Sprintf(`
        <p>Someone suggested changes to <a href="%s">%s</a>.</p>

        <div class="info-box">
            %s
            <p><span class="label">Submitted by:</span> %s</p>
        </div>

        <p style="text-align: center;">
            <a href="%s/moderation" class="button">Review in Dashboard</a>
        </p>
    `,
		t.orgURL(org),
		html.EscapeString(org.Name),
		rows.String(),
		html.EscapeString(submitterName(submitterEmail)),
		t.cfg.BaseURL,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Suggested edit for %s

%s
Submitted by: %s

Review at: %s/moderation

%s`,
		org.Name,
		lines.String(),
		submitterName(submitterEmail),
		t.cfg.BaseURL,
		t.footer(),
	)

	return
}

// ViolationReported generates email for moderators when a violation is
// reported.
func (t *Templates) ViolationReported(org *models.Organization, report *models.ViolationReport, submitterEmail string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Violation reported for %s", t.cfg.SiteTitle, org.Name)

	content := fmt.Sprintf(`
        <p>A violation was reported for <a href="%s">%s</a>.</p>

        <div class="info-box">
            <p><span class="label">Report:</span></p>
            <p class="warning">%s</p>
            <p><span class="label">Submitted by:</span> %s</p>
        </div>

        <p style="text-align: center;">
            <a href="%s/moderation" class="button">Review in Dashboard</a>
        </p>
    `,
		t.orgURL(org),
		html.EscapeString(org.Name),
		html.EscapeString(report.Report),
		html.EscapeString(submitterName(submitterEmail)),
		t.cfg.BaseURL,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Violation reported for %s

%s

Submitted by: %s

Review at: %s/moderation

%s`,
		org.Name,
		report.Report,
		submitterName(submitterEmail),
		t.cfg.BaseURL,
		t.footer(),
	)

	return
}

// ClaimRequested generates email for moderators when a user claims an
// organization.
func (t *Templates) ClaimRequested(org *models.Organization, claim *models.ClaimRequest, claimant *models.User) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %s claimed %s", t.cfg.SiteTitle, claimant.Email, org.Name)

	content := fmt.Sprintf(`
        <p>A user asked to become an organizer of <a href="%s">%s</a>.</p>

        <div class="info-box">
            <p><span class="label">User:</span> %s (%s)</p>
            <p><span class="label">Message:</span> %s</p>
        </div>

        <p style="text-align: center;">
            <a href="%s/moderation" class="button">Review in Dashboard</a>
        </p>
    `,
		t.orgURL(org),
		html.EscapeString(org.Name),
		html.EscapeString(claimant.DisplayName()),
		html.EscapeString(claimant.Email),
		html.EscapeString(claim.Message),
		t.cfg.BaseURL,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Organization claim for %s

User: %s (%s)
Message: %s

Review at: %s/moderation

%s`,
		org.Name,
		claimant.DisplayName(),
		claimant.Email,
		claim.Message,
		t.cfg.BaseURL,
		t.footer(),
	)

	return
}

// ClaimReviewed generates email for the claimant once a moderator decides.
func (t *Templates) ClaimReviewed(claim *models.ClaimRequest) (subject, htmlBody, textBody string) {
	approved := claim.Status == models.StatusApproved
	verdict, class := "rejected", "error"
	if approved {
		verdict, class = "approved", "success"
	}
	subject = fmt.Sprintf("[%s] Your claim on %s was %s", t.cfg.SiteTitle, claim.OrganizationName, verdict)

	next := "<p>If you think this is a mistake, reply to this email.</p>"
	nextText := "If you think this is a mistake, reply to this email."
	if approved {
		next = "<p>You can now update the organization's page.</p>"
		nextText = "You can now update the organization's page."
	}
	orgURL := fmt.Sprintf("%s/orgs/%s/", t.cfg.BaseURL, claim.OrganizationSlug)

	content := fmt.Sprintf(`
        <div class="info-box">
            <p><span class="label">Organization:</span> %s</p>
            <p><span class="label">Status:</span> <span class="%s">%s</span></p>
        </div>

        %s
        <p style="text-align: center;">
            <a href="%s" class="button">View Organization</a>
        </p>
    `,
		html.EscapeString(claim.OrganizationName),
		class,
		verdict,
		next,
		orgURL,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your claim on %s was %s.

%s

%s

%s`,
		claim.OrganizationName,
		verdict,
		nextText,
		orgURL,
		t.footer(),
	)

	return
}

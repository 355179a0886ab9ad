package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"diversityorgs/internal/config"
	"diversityorgs/internal/models"
)

type fakeModerators struct {
	emails []string
	err    error
}

func (f *fakeModerators) GetModeratorEmails(context.Context) ([]string, error) {
	return f.emails, f.err
}

func newTestNotifier(cfg *config.Config, db ModeratorEmailGetter) (*Notifier, *fakeSender) {
	n := NewNotifier(cfg, db)
	fake := newFakeSender()
	n.service.sender = fake
	return n, fake
}

func receive(t *testing.T, fake *fakeSender) *gomail.Message {
	t.Helper()
	select {
	case m := <-fake.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
		return nil
	}
}

func expectNone(t *testing.T, fake *fakeSender) {
	t.Helper()
	select {
	case m := <-fake.sent:
		t.Fatalf("unexpected email %v", m.GetHeader("Subject"))
	case <-time.After(50 * time.Millisecond):
	}
}

var testOrg = &models.Organization{ID: uuid.New(), Name: "PyLadies ATL", Slug: "pyladies-atl"}

func TestNewNotifier(t *testing.T) {
	cfg := &config.Config{SiteTitle: "Test", BaseURL: "https://test.example.com"}
	notifier := NewNotifier(cfg, nil)

	if notifier.service == nil {
		t.Error("Notifier service is nil")
	}
	if notifier.templates == nil {
		t.Error("Notifier templates is nil")
	}
	if notifier.cfg != cfg {
		t.Error("Notifier config not set")
	}
}

func TestNotifier_Disabled(t *testing.T) {
	notifier := NewNotifier(&config.Config{EmailNotifyModerators: true}, nil)

	// nil store must not be touched when email is disabled
	notifier.NotifyEditSuggested(context.Background(), testOrg, &models.SuggestedEdit{}, nil)
	notifier.NotifyViolationReported(context.Background(), testOrg, &models.ViolationReport{}, nil)
	notifier.NotifyClaimRequested(context.Background(), testOrg, &models.ClaimRequest{}, &models.User{})
	notifier.NotifyClaimReviewed(context.Background(), &models.ClaimRequest{UserEmail: "a@example.com"})
}

func TestNotifier_ModeratorToggleOff(t *testing.T) {
	cfg := enabledConfig()
	cfg.EmailNotifyModerators = false
	notifier, fake := newTestNotifier(cfg, &fakeModerators{emails: []string{"mod@example.com"}})

	notifier.NotifyViolationReported(context.Background(), testOrg, &models.ViolationReport{Report: "spam"}, nil)
	expectNone(t, fake)
}

func TestNotifier_NotifyEditSuggested(t *testing.T) {
	notifier, fake := newTestNotifier(enabledConfig(), &fakeModerators{emails: []string{"mod@example.com"}})

	edit := &models.SuggestedEdit{Report: map[string]string{"name": "PyLadies Atlanta"}}
	notifier.NotifyEditSuggested(context.Background(), testOrg, edit, nil)

	m := receive(t, fake)
	if to := m.GetHeader("To"); len(to) != 1 || to[0] != "mod@example.com" {
		t.Errorf("To = %v", to)
	}
	if s := m.GetHeader("Subject")[0]; !strings.Contains(s, "PyLadies ATL") {
		t.Errorf("Subject = %q", s)
	}
}

func TestNotifier_NoModerators(t *testing.T) {
	notifier, fake := newTestNotifier(enabledConfig(), &fakeModerators{})
	notifier.NotifyClaimRequested(context.Background(), testOrg, &models.ClaimRequest{}, &models.User{Email: "u@example.com"})
	expectNone(t, fake)
}

func TestNotifier_StoreError(t *testing.T) {
	notifier, fake := newTestNotifier(enabledConfig(), &fakeModerators{err: errors.New("db down")})
	notifier.NotifyViolationReported(context.Background(), testOrg, &models.ViolationReport{Report: "spam"}, nil)
	expectNone(t, fake)
}

func TestNotifier_NotifyClaimReviewed(t *testing.T) {
	notifier, fake := newTestNotifier(enabledConfig(), &fakeModerators{})

	notifier.NotifyClaimReviewed(context.Background(), &models.ClaimRequest{
		Status:           models.StatusApproved,
		OrganizationName: "PyLadies ATL",
		OrganizationSlug: "pyladies-atl",
		UserEmail:        "claimant@example.com",
	})

	m := receive(t, fake)
	if to := m.GetHeader("To"); to[0] != "claimant@example.com" {
		t.Errorf("To = %v", to)
	}
}

func TestNotifier_NotifyClaimReviewed_NoEmail(t *testing.T) {
	notifier, fake := newTestNotifier(enabledConfig(), &fakeModerators{})
	notifier.NotifyClaimReviewed(context.Background(), &models.ClaimRequest{Status: models.StatusRejected})
	expectNone(t, fake)
}

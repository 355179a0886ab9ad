package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"diversityorgs/internal/events"
	"diversityorgs/internal/models"
)

type fakeStore struct {
	edits     []*models.SuggestedEdit
	reports   []*models.ViolationReport
	claims    []*models.ClaimRequest
	reviewed  []uuid.UUID
	organizer map[uuid.UUID][]uuid.UUID // org id -> user ids
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{organizer: make(map[uuid.UUID][]uuid.UUID)}
}

func (s *fakeStore) CreateSuggestedEdit(_ context.Context, e *models.SuggestedEdit) error {
	if s.err != nil {
		return s.err
	}
	e.ID, e.Status = uuid.New(), models.StatusPending
	s.edits = append(s.edits, e)
	return nil
}

func (s *fakeStore) CreateViolationReport(_ context.Context, r *models.ViolationReport) error {
	if s.err != nil {
		return s.err
	}
	r.ID, r.Status = uuid.New(), models.StatusPending
	s.reports = append(s.reports, r)
	return nil
}

func (s *fakeStore) CreateClaimRequest(_ context.Context, c *models.ClaimRequest) error {
	if s.err != nil {
		return s.err
	}
	c.ID, c.Status = uuid.New(), models.StatusPending
	s.claims = append(s.claims, c)
	return nil
}

func (s *fakeStore) GetModerationQueue(context.Context) (*models.ModerationQueue, error) {
	q := &models.ModerationQueue{}
	for _, c := range s.claims {
		if c.Status == models.StatusPending {
			q.Claims = append(q.Claims, *c)
		}
	}
	return q, nil
}

func (s *fakeStore) MarkSuggestedEditReviewed(_ context.Context, id, _ uuid.UUID) error {
	s.reviewed = append(s.reviewed, id)
	return s.err
}

func (s *fakeStore) MarkViolationReportReviewed(_ context.Context, id, _ uuid.UUID) error {
	s.reviewed = append(s.reviewed, id)
	return s.err
}

func (s *fakeStore) review(id uuid.UUID, status string) (*models.ClaimRequest, error) {
	for _, c := range s.claims {
		if c.ID == id && c.Status == models.StatusPending {
			c.Status = status
			return c, nil
		}
	}
	return nil, errNoClaim
}

var errNoClaim = errors.New("claim not found")

func (s *fakeStore) ApproveClaimRequest(_ context.Context, id, _ uuid.UUID) (*models.ClaimRequest, error) {
	c, err := s.review(id, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	s.organizer[c.OrganizationID] = append(s.organizer[c.OrganizationID], c.UserID)
	return c, nil
}

func (s *fakeStore) RejectClaimRequest(_ context.Context, id, _ uuid.UUID) (*models.ClaimRequest, error) {
	return s.review(id, models.StatusRejected)
}

type roleGate struct{}

func (roleGate) CanReview(u *models.User) bool {
	return u != nil && u.IsModerator()
}

type fakeNotifier struct {
	calls []string
}

func (n *fakeNotifier) NotifyEditSuggested(context.Context, *models.Organization, *models.SuggestedEdit, *models.User) {
	n.calls = append(n.calls, "edit")
}

func (n *fakeNotifier) NotifyViolationReported(context.Context, *models.Organization, *models.ViolationReport, *models.User) {
	n.calls = append(n.calls, "violation")
}

func (n *fakeNotifier) NotifyClaimRequested(context.Context, *models.Organization, *models.ClaimRequest, *models.User) {
	n.calls = append(n.calls, "claim")
}

func (n *fakeNotifier) NotifyClaimReviewed(_ context.Context, c *models.ClaimRequest) {
	n.calls = append(n.calls, "claim_"+c.Status)
}

type fakePublisher struct {
	kinds []string
}

func (p *fakePublisher) Publish(e events.Event) { p.kinds = append(p.kinds, e.Kind) }
func (p *fakePublisher) Close()                 {}

type harness struct {
	svc       *Service
	store     *fakeStore
	notifier  *fakeNotifier
	publisher *fakePublisher
	org       *models.Organization
	user      *models.User
	moderator *models.User
}

func newHarness() *harness {
	h := &harness{
		store:     newFakeStore(),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		org:       &models.Organization{ID: uuid.New(), Name: "PyLadies ATL", Slug: "pyladies-atl"},
		user:      &models.User{ID: uuid.New(), Email: "user@example.com", Role: models.RoleUser},
		moderator: &models.User{ID: uuid.New(), Email: "mod@example.com", Role: models.RoleModerator},
	}
	h.svc = NewService(h.store, roleGate{}, h.notifier, h.publisher)
	return h
}

func TestSubmitEdit(t *testing.T) {
	h := newHarness()

	edit, err := h.svc.SubmitEdit(context.Background(), h.org, nil, map[string]string{"name": "PyLadies Atlanta"})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, edit.Status)
	require.Nil(t, edit.UserID, "anonymous suggestions carry no user")
	require.Equal(t, h.org.ID, edit.OrganizationID)
	require.Equal(t, []string{"edit"}, h.notifier.calls)
	require.Equal(t, []string{events.EditSuggested}, h.publisher.kinds)

	edit, err = h.svc.SubmitEdit(context.Background(), h.org, h.user, map[string]string{"url": "https://x.org"})
	require.NoError(t, err)
	require.Equal(t, h.user.ID, *edit.UserID)
}

func TestSubmitEditEmpty(t *testing.T) {
	h := newHarness()
	_, err := h.svc.SubmitEdit(context.Background(), h.org, nil, map[string]string{})
	require.ErrorIs(t, err, ErrEmptyEdit)
	require.Empty(t, h.store.edits)
	require.Empty(t, h.notifier.calls)
}

func TestSubmitViolation(t *testing.T) {
	h := newHarness()

	_, err := h.svc.SubmitViolation(context.Background(), h.org, nil, "   ")
	require.ErrorIs(t, err, ErrEmptyReport)

	report, err := h.svc.SubmitViolation(context.Background(), h.org, nil, "  spam links  ")
	require.NoError(t, err)
	require.Equal(t, "spam links", report.Report)
	require.Equal(t, []string{"violation"}, h.notifier.calls)
}

func TestSubmitStoreError(t *testing.T) {
	h := newHarness()
	h.store.err = errors.New("db down")

	_, err := h.svc.SubmitViolation(context.Background(), h.org, nil, "spam")
	require.ErrorIs(t, err, h.store.err)
	require.Empty(t, h.notifier.calls)
	require.Empty(t, h.publisher.kinds)
}

func TestRequestClaimNeedsLogin(t *testing.T) {
	h := newHarness()
	_, err := h.svc.RequestClaim(context.Background(), h.org, nil, "please")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequestClaimByOrganizer(t *testing.T) {
	h := newHarness()
	h.org.Organizers = []models.User{*h.user}
	_, err := h.svc.RequestClaim(context.Background(), h.org, h.user, "")
	require.ErrorIs(t, err, ErrAlreadyOrganizer)
}

func TestClaimDoesNotGrantUntilApproved(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	claim, err := h.svc.RequestClaim(ctx, h.org, h.user, " I run it ")
	require.NoError(t, err)
	require.Equal(t, "I run it", claim.Message)
	require.Empty(t, h.store.organizer[h.org.ID])

	_, err = h.svc.ApproveClaim(ctx, h.user, claim.ID)
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, h.store.organizer[h.org.ID])

	approved, err := h.svc.ApproveClaim(ctx, h.moderator, claim.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, approved.Status)
	require.Equal(t, []uuid.UUID{h.user.ID}, h.store.organizer[h.org.ID])
	require.Equal(t, []string{"claim", "claim_approved"}, h.notifier.calls)
	require.Equal(t, []string{events.ClaimRequested, events.ClaimApproved}, h.publisher.kinds)

	_, err = h.svc.ApproveClaim(ctx, h.moderator, claim.ID)
	require.ErrorIs(t, err, errNoClaim, "a claim can only be reviewed once")
}

func TestRejectClaim(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	claim, err := h.svc.RequestClaim(ctx, h.org, h.user, "")
	require.NoError(t, err)

	rejected, err := h.svc.RejectClaim(ctx, h.moderator, claim.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, rejected.Status)
	require.Empty(t, h.store.organizer[h.org.ID])
	require.Contains(t, h.notifier.calls, "claim_rejected")
}

func TestReviewRequiresModerator(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name string
		user *models.User
		want error
	}{
		{"anonymous", nil, ErrUnauthenticated},
		{"user", h.user, ErrForbidden},
		{"moderator", h.moderator, nil},
		{"admin", &models.User{ID: uuid.New(), Role: models.RoleAdmin}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.svc.ReviewEdit(ctx, tt.user, id)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}

			err = h.svc.ReviewReport(ctx, tt.user, id)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}

			_, err = h.svc.Queue(ctx, tt.user)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestQueueListsPendingClaims(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.RequestClaim(ctx, h.org, h.user, "")
	require.NoError(t, err)

	q, err := h.svc.Queue(ctx, h.moderator)
	require.NoError(t, err)
	require.Equal(t, 1, q.Len())
}

func TestNilPublisherDefaultsToNop(t *testing.T) {
	svc := NewService(newFakeStore(), roleGate{}, &fakeNotifier{}, nil)
	_, err := svc.SubmitViolation(context.Background(), &models.Organization{ID: uuid.New()}, nil, "spam")
	require.NoError(t, err)
}

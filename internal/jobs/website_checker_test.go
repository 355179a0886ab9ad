package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diversityorgs/internal/models"
	"diversityorgs/internal/validation"
)

type fakeWebsiteStore struct {
	mu       sync.Mutex
	due      []models.Organization
	statuses map[uuid.UUID]string
}

func (s *fakeWebsiteStore) OrganizationsNeedingWebsiteCheck(_ context.Context, _ time.Duration, limit int) ([]models.Organization, error) {
	if len(s.due) > limit {
		return s.due[:limit], nil
	}
	return s.due, nil
}

func (s *fakeWebsiteStore) UpdateWebsiteStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func newTestChecker(store WebsiteStore) *WebsiteChecker {
	w := NewWebsiteChecker(store, time.Hour, 24*time.Hour)
	w.delay = 0
	w.allow = func(context.Context, string) error { return nil }
	return w
}

func TestCheckDue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	ok := models.Organization{ID: uuid.New(), Slug: "pyladies-atl", URL: srv.URL + "/"}
	gone := models.Organization{ID: uuid.New(), Slug: "old-meetup", URL: srv.URL + "/gone"}
	missing := models.Organization{ID: uuid.New(), Slug: "moved", URL: srv.URL + "/missing"}
	broken := models.Organization{ID: uuid.New(), Slug: "flaky", URL: srv.URL + "/broken"}

	store := &fakeWebsiteStore{
		due:      []models.Organization{ok, gone, missing, broken},
		statuses: make(map[uuid.UUID]string),
	}
	newTestChecker(store).CheckDue(context.Background())

	require.Equal(t, map[uuid.UUID]string{
		ok.ID:      models.WebsiteHealthy,
		gone.ID:    models.WebsiteUnhealthy,
		missing.ID: models.WebsiteUnhealthy,
		broken.ID:  models.WebsiteHealthy,
	}, store.statuses)
}

func TestCheckUnreachableIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	org := models.Organization{ID: uuid.New(), Slug: "offline", URL: url}
	store := &fakeWebsiteStore{due: []models.Organization{org}, statuses: make(map[uuid.UUID]string)}
	newTestChecker(store).CheckDue(context.Background())

	require.Equal(t, models.WebsiteUnknown, store.statuses[org.ID])
}

func TestCheckRefusesPrivateAddresses(t *testing.T) {
	requested := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer srv.Close()

	org := models.Organization{ID: uuid.New(), Slug: "internal", URL: srv.URL}
	store := &fakeWebsiteStore{due: []models.Organization{org}, statuses: make(map[uuid.UUID]string)}

	// The default guard rejects the loopback test server.
	w := NewWebsiteChecker(store, time.Hour, 24*time.Hour)
	w.CheckDue(context.Background())

	require.False(t, requested)
	require.Equal(t, models.WebsiteUnhealthy, store.statuses[org.ID])
	require.ErrorIs(t, validation.CheckPublicURL(context.Background(), nil, srv.URL), validation.ErrPrivateAddress)
}

func TestCheckDueStopsOnCancel(t *testing.T) {
	store := &fakeWebsiteStore{
		due: []models.Organization{
			{ID: uuid.New(), URL: "https://a.example.com"},
			{ID: uuid.New(), URL: "https://b.example.com"},
		},
		statuses: make(map[uuid.UUID]string),
	}
	w := newTestChecker(store)
	w.delay = time.Hour
	w.allow = func(context.Context, string) error { return validation.ErrUnresolvable }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.CheckDue(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.statuses) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CheckDue did not return after cancel")
	}
	require.Len(t, store.statuses, 1)
}

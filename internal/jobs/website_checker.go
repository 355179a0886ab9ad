// Package jobs runs background maintenance work.
package jobs

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/metrics"
	"diversityorgs/internal/models"
	"diversityorgs/internal/validation"
)

const (
	batchSize = 50
	userAgent = "diversityorgs-website-checker/1.0"
)

// WebsiteStore loads organizations due for a website check and records the
// outcome.
type WebsiteStore interface {
	OrganizationsNeedingWebsiteCheck(ctx context.Context, maxAge time.Duration, limit int) ([]models.Organization, error)
	UpdateWebsiteStatus(ctx context.Context, id uuid.UUID, status string) error
}

// WebsiteChecker periodically checks that organization websites respond.
type WebsiteChecker struct {
	store    WebsiteStore
	interval time.Duration
	maxAge   time.Duration
	delay    time.Duration
	client   *http.Client
	allow    func(ctx context.Context, rawURL string) error
}

// NewWebsiteChecker creates a checker that runs every interval and rechecks
// websites older than maxAge.
func NewWebsiteChecker(store WebsiteStore, interval, maxAge time.Duration) *WebsiteChecker {
	return &WebsiteChecker{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		delay:    time.Second,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		allow: func(ctx context.Context, rawURL string) error {
			return validation.CheckPublicURL(ctx, net.DefaultResolver, rawURL)
		},
	}
}

// Start checks websites until ctx is done.
func (w *WebsiteChecker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("website checker started")

	w.CheckDue(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("website checker stopped")
			return
		case <-ticker.C:
			w.CheckDue(ctx)
		}
	}
}

// CheckDue checks one batch of organizations whose website is due.
func (w *WebsiteChecker) CheckDue(ctx context.Context) {
	orgs, err := w.store.OrganizationsNeedingWebsiteCheck(ctx, w.maxAge, batchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to load organizations for website check")
		return
	}
	if len(orgs) == 0 {
		return
	}

	log.Debug().Int("count", len(orgs)).Msg("checking organization websites")

	for i, org := range orgs {
		if i > 0 {
			// Space out requests to the same hosts.
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.delay):
			}
		}

		status := w.check(ctx, org.URL)
		metrics.RecordWebsiteCheck(status)
		if err := w.store.UpdateWebsiteStatus(ctx, org.ID, status); err != nil {
			log.Error().Err(err).Str("org", org.Slug).Msg("failed to record website status")
		}
	}
}

// check reports a website as healthy on any HTTP response other than a
// missing page. Connection failures are unknown since they are often
// transient. URLs that point at private addresses are never fetched.
func (w *WebsiteChecker) check(ctx context.Context, rawURL string) string {
	if err := w.allow(ctx, rawURL); err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("website not checkable")
		return models.WebsiteUnhealthy
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return models.WebsiteUnhealthy
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("website unreachable")
		return models.WebsiteUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return models.WebsiteUnhealthy
	}
	return models.WebsiteHealthy
}

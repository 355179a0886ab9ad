// Package metrics exposes Prometheus metrics for the directory.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	queueDepthDesc = prometheus.NewDesc(
		"diversityorgs_moderation_pending",
		"Pending moderation items by queue",
		[]string{"queue"},
		nil,
	)

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diversityorgs_searches_total",
		Help: "Searches by the cascade step that produced the result",
	}, []string{"step"})

	websiteChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diversityorgs_website_checks_total",
		Help: "Organization website checks by outcome",
	}, []string{"status"})

	requests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diversityorgs_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// QueueStore reports the size of each moderation queue.
type QueueStore interface {
	PendingCounts(ctx context.Context) (map[string]int, error)
}

// QueueCollector is a custom Prometheus collector that reads moderation queue
// depth from the database on each scrape.
type QueueCollector struct {
	store QueueStore
}

// NewQueueCollector creates a collector over store.
func NewQueueCollector(store QueueStore) *QueueCollector {
	return &QueueCollector{store: store}
}

// Describe sends the metric descriptor to the channel.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueDepthDesc
}

// Collect queries the database for pending counts and emits them as gauges.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.PendingCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect moderation queue metrics")
		return
	}
	for queue, n := range counts {
		ch <- prometheus.MustNewConstMetric(queueDepthDesc, prometheus.GaugeValue, float64(n), queue)
	}
}

var registerOnce sync.Once

// Init registers every collector with the default registry. Must be called
// once at startup; later calls are no-ops.
func Init(store QueueStore) {
	registerOnce.Do(func() {
		prometheus.MustRegister(NewQueueCollector(store), searches, websiteChecks, requests)
	})
}

// RecordSearch counts a search by the step that answered it.
func RecordSearch(step string) {
	searches.WithLabelValues(step).Inc()
}

// RecordWebsiteCheck counts a website check outcome.
func RecordWebsiteCheck(status string) {
	websiteChecks.WithLabelValues(status).Inc()
}

// Middleware records request latency labelled by the matched route pattern.
func Middleware(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if err != nil {
		status = fiber.StatusInternalServerError
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}

	route := "unmatched"
	if r := c.Route(); r != nil && r.Path != "" {
		route = r.Path
	}
	requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	return err
}

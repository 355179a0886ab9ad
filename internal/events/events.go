// Package events publishes moderation activity for other services. Publishing
// is best effort: failures are logged and never reach the request.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SubjectPrefix namespaces every published subject.
const SubjectPrefix = "diversityorgs.moderation."

// Event kinds, appended to SubjectPrefix to form the subject.
const (
	EditSuggested     = "edit_suggested"
	ViolationReported = "violation_reported"
	ClaimRequested    = "claim_requested"
	ClaimApproved     = "claim_approved"
	ClaimRejected     = "claim_rejected"
	ItemReviewed      = "item_reviewed"
)

// Event is the JSON payload of a moderation message.
type Event struct {
	Kind           string     `json:"kind"`
	ItemID         uuid.UUID  `json:"item_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	At             time.Time  `json:"at"`
}

// Subject returns the NATS subject the event is published on.
func (e Event) Subject() string {
	return SubjectPrefix + e.Kind
}

// Publisher sends moderation events.
type Publisher interface {
	Publish(e Event)
	Close()
}

// Nop discards events. It is used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(Event) {}
func (Nop) Close()        {}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events on a NATS connection.
type NATSPublisher struct {
	nc conn
}

// Connect dials url and keeps reconnecting for the life of the process.
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("diversityorgs"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("Publishing moderation events to NATS")
	return &NATSPublisher{nc: nc}, nil
}

// Publish sends e. The timestamp is filled in if unset.
func (p *NATSPublisher) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("kind", e.Kind).Msg("Failed to encode event")
		return
	}
	if err := p.nc.Publish(e.Subject(), data); err != nil {
		log.Warn().Err(err).Str("subject", e.Subject()).Msg("Failed to publish event")
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection")
	}
}

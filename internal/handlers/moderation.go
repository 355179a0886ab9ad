package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/models"
	"diversityorgs/internal/moderation"
)

// ModerationHandler serves the moderation queue.
type ModerationHandler struct {
	svc *moderation.Service
	cfg *config.Config
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(svc *moderation.Service, cfg *config.Config) *ModerationHandler {
	return &ModerationHandler{svc: svc, cfg: cfg}
}

// moderationError maps service errors to HTTP errors.
func moderationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, moderation.ErrUnauthenticated):
		return c.Redirect().To("/login")
	case errors.Is(err, moderation.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "you do not have moderation permissions")
	case db.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, "item is not pending")
	default:
		return err
	}
}

// Index renders every pending item.
func (h *ModerationHandler) Index(c fiber.Ctx) error {
	queue, err := h.svc.Queue(c.Context(), middleware.User(c))
	if err != nil {
		return moderationError(c, err)
	}
	return render(c, h.cfg, "moderation/index", fiber.Map{"Queue": queue})
}

// review runs fn for the item id in the route and returns to the queue.
func (h *ModerationHandler) review(action string, fn func(c fiber.Ctx, reviewer *models.User, id uuid.UUID) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		reviewer := middleware.User(c)
		if err := fn(c, reviewer, id); err != nil {
			return moderationError(c, err)
		}
		log.Info().Str("action", action).Str("item", id.String()).Str("reviewer", reviewer.Email).Msg("moderation item reviewed")
		return c.Redirect().To("/moderation")
	}
}

// ReviewEdit marks a suggested edit as reviewed.
func (h *ModerationHandler) ReviewEdit() fiber.Handler {
	return h.review("review_edit", func(c fiber.Ctx, reviewer *models.User, id uuid.UUID) error {
		return h.svc.ReviewEdit(c.Context(), reviewer, id)
	})
}

// ReviewReport marks a violation report as reviewed.
func (h *ModerationHandler) ReviewReport() fiber.Handler {
	return h.review("review_report", func(c fiber.Ctx, reviewer *models.User, id uuid.UUID) error {
		return h.svc.ReviewReport(c.Context(), reviewer, id)
	})
}

// ApproveClaim makes the claimant an organizer.
func (h *ModerationHandler) ApproveClaim() fiber.Handler {
	return h.review("approve_claim", func(c fiber.Ctx, reviewer *models.User, id uuid.UUID) error {
		_, err := h.svc.ApproveClaim(c.Context(), reviewer, id)
		return err
	})
}

// RejectClaim closes a claim without granting anything.
func (h *ModerationHandler) RejectClaim() fiber.Handler {
	return h.review("reject_claim", func(c fiber.Ctx, reviewer *models.User, id uuid.UUID) error {
		_, err := h.svc.RejectClaim(c.Context(), reviewer, id)
		return err
	})
}

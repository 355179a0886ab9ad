package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"diversityorgs/internal/middleware"
	"diversityorgs/internal/moderation"
)

// ModerationHandler exposes the moderation queue as JSON.
type ModerationHandler struct {
	svc *moderation.Service
}

// NewModerationHandler creates a new API moderation handler.
func NewModerationHandler(svc *moderation.Service) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

// ListPending returns every pending item for moderators.
func (h *ModerationHandler) ListPending(c fiber.Ctx) error {
	queue, err := h.svc.Queue(c.Context(), middleware.User(c))
	switch {
	case errors.Is(err, moderation.ErrUnauthenticated):
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	case errors.Is(err, moderation.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "moderator access required")
	case err != nil:
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch moderation queue")
	}

	return jsonSuccess(c, fiber.Map{
		"edits":   nonNil(queue.Edits),
		"reports": nonNil(queue.Reports),
		"claims":  nonNil(queue.Claims),
		"total":   queue.Len(),
	})
}


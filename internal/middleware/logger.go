package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request with the request id assigned by
// the requestid middleware.
func RequestLogger(c fiber.Ctx) error {
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

	var event *zerolog.Event
	switch {
	case status >= 500:
		event = log.Error().Err(err)
	case status >= 400:
		event = log.Warn()
	default:
		event = log.Info()
	}

	event.
		Str("request_id", requestid.FromContext(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("ip", c.IP()).
		Msg("request")
	return err
}

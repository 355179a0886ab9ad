package middleware

import (
	"github.com/gofiber/fiber/v3"

	"diversityorgs/internal/models"
)

const navLocal = "nav"

// Gate answers which restricted areas a user may enter.
type Gate interface {
	CanReview(user *models.User) bool
	IsSuperuser(user *models.User) bool
}

// Nav records which restricted links the layout shows.
type Nav struct {
	CanReview   bool
	IsSuperuser bool
}

// NavLinks asks gate which restricted pages the request's user may open.
// It must run after the user is loaded.
func NavLinks(gate Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := User(c)
		c.Locals(navLocal, Nav{CanReview: gate.CanReview(user), IsSuperuser: gate.IsSuperuser(user)})
		return c.Next()
	}
}

// NavFor returns the links recorded by NavLinks. Nothing restricted is shown
// when NavLinks didn't run.
func NavFor(c fiber.Ctx) Nav {
	nav, _ := c.Locals(navLocal).(Nav)
	return nav
}

package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"diversityorgs/internal/authz"
	"diversityorgs/internal/db"
	"diversityorgs/internal/handlers"
	"diversityorgs/internal/handlers/api"
	"diversityorgs/internal/listing"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/moderation"
)

// Deps are the services routes are wired to.
type Deps struct {
	DB         *db.DB
	Authz      *authz.Authorizer
	Moderation *moderation.Service
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	database := deps.DB

	// Initialize middleware
	auth := middleware.NewAuthMiddleware(database)
	s.App.Use(auth.OptionalAuth)
	s.App.Use(middleware.NavLinks(deps.Authz))

	// Initialize handlers
	listingHandler := handlers.NewListingHandler(database, s.Cfg)
	orgHandler := handlers.NewOrgHandler(database, s.Cfg, deps.Authz, deps.Moderation)
	moderationHandler := handlers.NewModerationHandler(deps.Moderation, s.Cfg)
	profileHandler := handlers.NewProfileHandler(database, s.Cfg)
	userHandler := handlers.NewUserHandler(database, s.Cfg, deps.Authz)

	// Auth routes
	s.App.Get("/login", handlers.LoginPage(s.Cfg))
	s.App.Get("/auth/logout", handlers.Logout)
	if s.Cfg.IsOIDCEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
	} else {
		log.Warn().Msg("OIDC is not configured, logins are disabled")
	}

	// Directory
	s.App.Get("/", listingHandler.View(listing.Home))
	s.App.Get("/search", listingHandler.Search)
	s.App.Get("/orgs/", orgHandler.List)
	s.App.Get("/orgs/new", auth.RequireAuth, orgHandler.New)
	s.App.Post("/orgs/new", auth.RequireAuth, orgHandler.Create)
	s.App.Get("/orgs/:slug/", orgHandler.Show)
	s.App.Get("/orgs/:slug/update", orgHandler.Edit)
	s.App.Post("/orgs/:slug/update", orgHandler.Update)
	s.App.Get("/orgs/:slug/suggest-edit", orgHandler.SuggestEdit)
	s.App.Post("/orgs/:slug/suggest-edit", orgHandler.SubmitSuggestEdit)
	s.App.Get("/orgs/:slug/report", orgHandler.Report)
	s.App.Post("/orgs/:slug/report", orgHandler.SubmitReport)
	s.App.Get("/orgs/:slug/claim", auth.RequireAuth, orgHandler.Claim)
	s.App.Post("/orgs/:slug/claim", auth.RequireAuth, orgHandler.SubmitClaim)

	// Listings
	s.App.Get("/tag/diversity/", listingHandler.View(listing.DiversityTags))
	s.App.Get("/tag/technology/", listingHandler.View(listing.TechnologyTags))
	s.App.Get("/tag/diversity/:name/", listingHandler.View(listing.DiversityFilter))
	s.App.Get("/tag/technology/:name/", listingHandler.View(listing.TechnologyFilter))
	s.App.Get("/tag/diversity/:name/online/", listingHandler.View(listing.OnlineDiversity))
	s.App.Get("/tag/technology/:name/online/", listingHandler.View(listing.OnlineTechnology))
	s.App.Get("/locations/:id/", listingHandler.View(listing.Location))
	s.App.Get("/parents/:slug/", listingHandler.View(listing.Parent))

	// Moderation routes (moderators only)
	s.App.Get("/moderation", auth.RequireAuth, moderationHandler.Index)
	s.App.Post("/moderation/edits/:id/review", auth.RequireAuth, moderationHandler.ReviewEdit())
	s.App.Post("/moderation/reports/:id/review", auth.RequireAuth, moderationHandler.ReviewReport())
	s.App.Post("/moderation/claims/:id/approve", auth.RequireAuth, moderationHandler.ApproveClaim())
	s.App.Post("/moderation/claims/:id/reject", auth.RequireAuth, moderationHandler.RejectClaim())

	// Account and admin routes
	s.App.Get("/profile", auth.RequireAuth, profileHandler.Show)
	s.App.Get("/admin/users", auth.RequireAuth, userHandler.ListUsers)
	s.App.Post("/admin/users/role", auth.RequireAuth, userHandler.UpdateUserRole)

	// JSON API
	geoHandler := api.NewGeoHandler(database)
	apiOrgHandler := api.NewOrgHandler(database)
	apiModerationHandler := api.NewModerationHandler(deps.Moderation)
	healthHandler := api.NewHealthHandler(database)

	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/api/geo", geoHandler.Organizations)
	s.App.Get("/api/orgs", apiOrgHandler.List)
	s.App.Get("/api/orgs/:slug", apiOrgHandler.Get)
	s.App.Get("/api/moderation/pending", auth.RequireAuth, apiModerationHandler.ListPending)

	return nil
}

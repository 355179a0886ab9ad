package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/forms"
	"diversityorgs/internal/models"
)

type featureStore interface {
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	SetOrganizationFeatured(ctx context.Context, id uuid.UUID, featured bool) error
}

type locationStore interface {
	GetOrCreateLocation(ctx context.Context, loc *models.Location) error
	SetLocationPoint(ctx context.Context, id uuid.UUID, lat, lon float64) error
}

type parentOrganizerStore interface {
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	AddParentOrganizer(ctx context.Context, parentID, userID uuid.UUID) error
}

// featureOrganization puts the organization on the home page, or takes it off.
func featureOrganization(ctx context.Context, store featureStore, slug string, featured bool) (*models.Organization, error) {
	org, err := store.GetOrganizationBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if err := store.SetOrganizationFeatured(ctx, org.ID, featured); err != nil {
		return nil, err
	}
	org.IsFeatured = featured
	return org, nil
}

// locate pins loc to lat/lon, creating the location if it doesn't exist.
// Existing coordinates are replaced.
func locate(ctx context.Context, store locationStore, loc *models.Location, lat, lon float64) error {
	if !config.ValidCoordinates(lat, lon) {
		return fmt.Errorf("coordinates %g, %g are off the globe", lat, lon)
	}
	if err := store.GetOrCreateLocation(ctx, loc); err != nil {
		return err
	}
	if err := store.SetLocationPoint(ctx, loc.ID, lat, lon); err != nil {
		return err
	}
	loc.Latitude, loc.Longitude = &lat, &lon
	return nil
}

// addParentOrganizers grants the users behind emails organizer rights over
// every chapter of the parent. Addresses without an account are returned
// in missing; users are created on first login.
func addParentOrganizers(ctx context.Context, store parentOrganizerStore, parentID uuid.UUID, emails []string) (added int, missing []string, err error) {
	if len(emails) == 0 {
		return 0, nil, nil
	}
	users, err := store.GetUsersByEmails(ctx, emails)
	if err != nil {
		return 0, nil, err
	}
	for _, e := range emails {
		found := false
		for _, u := range users {
			if strings.EqualFold(u.Email, strings.TrimSpace(e)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, e)
		}
	}
	for _, u := range users {
		if err := store.AddParentOrganizer(ctx, parentID, u.ID); err != nil {
			return added, missing, err
		}
		added++
	}
	return added, missing, nil
}

type FeatureCmd struct {
	Slug string `arg:"" help:"Slug of the organization"`
	Off  bool   `help:"Remove the organization from the home page instead"`
}

func (f *FeatureCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	org, err := featureOrganization(ctx, database, f.Slug, !f.Off)
	if err != nil {
		return fmt.Errorf("failed to feature %s: %w", f.Slug, err)
	}
	log.Info().Str("organization", org.Slug).Bool("featured", org.IsFeatured).Msg("organization updated")
	return nil
}

type LocateCmd struct {
	Location string  `arg:"" help:"Location as \"City, Region, Country\""`
	Lat      float64 `required:"" help:"Latitude in degrees"`
	Lon      float64 `required:"" help:"Longitude in degrees, use --lon=-122.68 for western longitudes"`
}

func (l *LocateCmd) Run(ctx context.Context, globals *Globals) error {
	loc := forms.ParseLocation(l.Location)
	if loc == nil {
		return errors.New("location is empty")
	}

	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := locate(ctx, database, loc, l.Lat, l.Lon); err != nil {
		return fmt.Errorf("failed to locate %s: %w", loc.Label(), err)
	}
	log.Info().Str("location", loc.Label()).Float64("lat", l.Lat).Float64("lon", l.Lon).Msg("location pinned")
	return nil
}

type ParentOrganizerCmd struct {
	Slug  string `arg:"" help:"Slug of the parent organization"`
	Email string `arg:"" help:"Email address of the user"`
}

func (p *ParentOrganizerCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	parent, err := database.GetParentOrganizationBySlug(ctx, p.Slug)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", p.Slug, err)
	}
	_, missing, err := addParentOrganizers(ctx, database, parent.ID, []string{p.Email})
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w", p.Email, db.ErrUserNotFound)
	}
	log.Info().Str("parent", parent.Slug).Str("user", p.Email).Msg("parent organizer added")
	return nil
}

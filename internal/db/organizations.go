package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/models"
)

const orgColumns = `
	o.id, o.name, o.slug, o.description, o.url, o.code_of_conduct_url, o.logo_url,
	o.parent_id, o.location_id, o.online_only, o.is_featured, o.org_type, o.created_at, o.updated_at,
	o.website_status, o.website_checked_at,
	p.name, p.slug,
	l.name, l.region, l.country, ST_Y(l.point::geometry), ST_X(l.point::geometry)`

const orgFrom = `
	FROM organizations o
	LEFT JOIN parent_organizations p ON p.id = o.parent_id
	LEFT JOIN locations l ON l.id = o.location_id`

// scanOrganization scans a row selected with orgColumns.
func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	var parentName, parentSlug *string
	var locName, locRegion, locCountry *string
	var lat, lon *float64

	err := row.Scan(
		&org.ID, &org.Name, &org.Slug, &org.Description, &org.URL, &org.CodeOfConductURL, &org.LogoURL,
		&org.ParentID, &org.LocationID, &org.OnlineOnly, &org.IsFeatured, &org.OrgType, &org.CreatedAt, &org.UpdatedAt,
		&org.WebsiteStatus, &org.WebsiteCheckedAt,
		&parentName, &parentSlug,
		&locName, &locRegion, &locCountry, &lat, &lon,
	)
	if err != nil {
		return nil, err
	}

	if org.ParentID != nil && parentName != nil {
		org.Parent = &models.ParentOrganization{ID: *org.ParentID, Name: *parentName, Slug: deref(parentSlug)}
	}
	if org.LocationID != nil && locName != nil {
		org.Location = &models.Location{
			ID:        *org.LocationID,
			Name:      *locName,
			Region:    deref(locRegion),
			Country:   deref(locCountry),
			Latitude:  lat,
			Longitude: lon,
		}
	}
	return &org, nil
}

func scanOrganizations(rows pgx.Rows) ([]models.Organization, error) {
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// escapeLike escapes LIKE wildcards so the pattern matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FilterOrganizations returns the organizations matching every set field of f,
// with their focuses attached.
func (d *DB) FilterOrganizations(ctx context.Context, f models.OrganizationFilter) ([]models.Organization, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Name != "" {
		where = append(where, "lower(o.name) = lower("+arg(f.Name)+")")
	}
	if f.NameContains != "" {
		where = append(where, "o.name ILIKE '%' || "+arg(escapeLike(f.NameContains))+" || '%'")
	}
	if f.Place != "" {
		p := arg(f.Place)
		where = append(where, "(l.name = "+p+" OR l.region = "+p+" OR l.country = "+p+")")
	}
	if f.FocusName != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM organization_focuses ofc
			JOIN focuses f ON f.id = ofc.focus_id
			WHERE ofc.organization_id = o.id AND f.kind = `+arg(string(f.FocusKind))+` AND f.name = `+arg(f.FocusName)+`)`)
	}
	if f.FocusID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM organization_focuses ofc WHERE ofc.organization_id = o.id AND ofc.focus_id = "+arg(*f.FocusID)+")")
	}
	if f.LocationID != nil {
		where = append(where, "o.location_id = "+arg(*f.LocationID))
	}
	if f.ParentID != nil {
		where = append(where, "o.parent_id = "+arg(*f.ParentID))
	}
	if f.ExcludeID != nil {
		where = append(where, "o.id <> "+arg(*f.ExcludeID))
	}
	if f.OrganizerID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM organization_organizers oo WHERE oo.organization_id = o.id AND oo.user_id = "+arg(*f.OrganizerID)+")")
	}
	if f.OnlineOnly {
		where = append(where, "o.online_only")
	}
	if f.Featured {
		where = append(where, "o.is_featured")
	}

	query := "SELECT " + orgColumns + orgFrom
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	if f.OrderByLocation {
		query += "\n\tORDER BY l.country ASC NULLS LAST, l.name ASC NULLS LAST, o.name ASC"
	} else {
		query += "\n\tORDER BY o.name ASC"
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orgs, err := scanOrganizations(rows)
	if err != nil {
		return nil, err
	}

	if err := d.attachFocuses(ctx, orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// RankedOrganizations runs a weighted full-text search over each
// organization's focus names and location fields. Diversity focus names carry
// weight C, technology focus names D, the location name A, and region and
// country B. Results below minRank are dropped.
func (d *DB) RankedOrganizations(ctx context.Context, text string, minRank float64) ([]models.Organization, error) {
	query := `
		WITH documents AS (
			SELECT o.id,
				setweight(to_tsvector('english', COALESCE(string_agg(DISTINCT f.name, ' ') FILTER (WHERE f.kind = 'diversity'), '')), 'C') ||
				setweight(to_tsvector('english', COALESCE(string_agg(DISTINCT f.name, ' ') FILTER (WHERE f.kind = 'technology'), '')), 'D') ||
				setweight(to_tsvector('english', COALESCE(l.name, '')), 'A') ||
				setweight(to_tsvector('english', COALESCE(l.region, '') || ' ' || COALESCE(l.country, '')), 'B') AS document
			FROM organizations o
			LEFT JOIN locations l ON l.id = o.location_id
			LEFT JOIN organization_focuses ofc ON ofc.organization_id = o.id
			LEFT JOIN focuses f ON f.id = ofc.focus_id
			GROUP BY o.id, l.name, l.region, l.country
		), ranked AS (
			SELECT id, ts_rank('{0.1, 0.3, 0.6, 1.0}', document, websearch_to_tsquery('english', $1)) AS rank
			FROM documents
		)
		SELECT ` + orgColumns + `
		FROM ranked r
		JOIN organizations o ON o.id = r.id
		LEFT JOIN parent_organizations p ON p.id = o.parent_id
		LEFT JOIN locations l ON l.id = o.location_id
		WHERE r.rank >= $2
		ORDER BY r.rank DESC, o.name ASC
	`

	rows, err := d.Pool.Query(ctx, query, text, minRank)
	if err != nil {
		return nil, err
	}
	orgs, err := scanOrganizations(rows)
	if err != nil {
		return nil, err
	}

	if err := d.attachFocuses(ctx, orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// GetOrganizationBySlug retrieves an organization with its focuses and the
// organizers of both the organization and its parent.
func (d *DB) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return d.getOrganization(ctx, "o.slug = $1", slug)
}

// GetOrganizationByID retrieves an organization by ID, fully loaded.
func (d *DB) GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return d.getOrganization(ctx, "o.id = $1", id)
}

func (d *DB) getOrganization(ctx context.Context, cond string, key any) (*models.Organization, error) {
	row := d.Pool.QueryRow(ctx, "SELECT "+orgColumns+orgFrom+"\n\tWHERE "+cond, key)
	org, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, err
	}

	orgs := []models.Organization{*org}
	if err := d.attachFocuses(ctx, orgs); err != nil {
		return nil, err
	}
	*org = orgs[0]

	if org.Organizers, err = d.organizationOrganizers(ctx, org.ID); err != nil {
		return nil, err
	}
	if org.Parent != nil {
		if org.Parent.Organizers, err = d.parentOrganizers(ctx, org.Parent.ID); err != nil {
			return nil, err
		}
	}
	return org, nil
}

// CreateOrganization inserts an organization, its focuses, and its first
// organizer in one transaction.
func (d *DB) CreateOrganization(ctx context.Context, org *models.Organization, focusIDs []uuid.UUID, organizerID uuid.UUID) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if org.OrgType == "" {
		org.OrgType = models.OrgTypeUserGroup
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, slug, description, url, code_of_conduct_url, logo_url,
			parent_id, location_id, online_only, is_featured, org_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, org.Name, org.Slug, org.Description, org.URL, org.CodeOfConductURL, org.LogoURL,
		org.ParentID, org.LocationID, org.OnlineOnly, org.IsFeatured, org.OrgType,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}

	if err := setOrganizationFocuses(ctx, tx, org.ID, focusIDs); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO organization_organizers (organization_id, user_id) VALUES ($1, $2)
	`, org.ID, organizerID); err != nil {
		return fmt.Errorf("failed to add organizer: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateOrganization saves the editable fields of org and replaces its
// focuses. A nil organizerIDs leaves the organizer set untouched.
func (d *DB) UpdateOrganization(ctx context.Context, org *models.Organization, focusIDs, organizerIDs []uuid.UUID) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE organizations SET
			name = $2, slug = $3, description = $4, url = $5, code_of_conduct_url = $6, logo_url = $7,
			parent_id = $8, location_id = $9, online_only = $10, org_type = $11, updated_at = NOW(),
			website_status = CASE WHEN url = $5 THEN website_status ELSE 'unknown' END,
			website_checked_at = CASE WHEN url = $5 THEN website_checked_at ELSE NULL END
		WHERE id = $1
		RETURNING updated_at
	`, org.ID, org.Name, org.Slug, org.Description, org.URL, org.CodeOfConductURL, org.LogoURL,
		org.ParentID, org.LocationID, org.OnlineOnly, org.OrgType,
	).Scan(&org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrgNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update organization: %w", err)
	}

	if err := setOrganizationFocuses(ctx, tx, org.ID, focusIDs); err != nil {
		return err
	}

	if organizerIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM organization_organizers WHERE organization_id = $1`, org.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO organization_organizers (organization_id, user_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING
		`, org.ID, organizerIDs); err != nil {
			return fmt.Errorf("failed to set organizers: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// OrganizationsNeedingWebsiteCheck returns up to limit organizations with a
// website that was never checked or was last checked more than maxAge ago.
func (d *DB) OrganizationsNeedingWebsiteCheck(ctx context.Context, maxAge time.Duration, limit int) ([]models.Organization, error) {
	rows, err := d.Pool.Query(ctx, "SELECT "+orgColumns+orgFrom+`
	WHERE o.url <> '' AND (o.website_checked_at IS NULL OR o.website_checked_at < $1)
	ORDER BY o.website_checked_at NULLS FIRST
	LIMIT $2`, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations needing website check: %w", err)
	}
	return scanOrganizations(rows)
}

// UpdateWebsiteStatus records the outcome of a website check.
func (d *DB) UpdateWebsiteStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE organizations SET website_status = $2, website_checked_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update website status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrgNotFound
	}
	return nil
}

// SetOrganizationFeatured toggles whether the organization appears on the home page.
func (d *DB) SetOrganizationFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE organizations SET is_featured = $2, updated_at = NOW() WHERE id = $1
	`, id, featured)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrgNotFound
	}
	return nil
}

func setOrganizationFocuses(ctx context.Context, tx pgx.Tx, orgID uuid.UUID, focusIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM organization_focuses WHERE organization_id = $1`, orgID); err != nil {
		return fmt.Errorf("failed to clear focuses: %w", err)
	}
	if len(focusIDs) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO organization_focuses (organization_id, focus_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, orgID, focusIDs); err != nil {
		return fmt.Errorf("failed to set focuses: %w", err)
	}
	return nil
}

// attachFocuses loads the direct focuses, with their parents, of every
// organization in orgs.
func (d *DB) attachFocuses(ctx context.Context, orgs []models.Organization) error {
	if len(orgs) == 0 {
		return nil
	}

	orgIDs := make([]uuid.UUID, len(orgs))
	for i, o := range orgs {
		orgIDs[i] = o.ID
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT ofc.organization_id, `+focusColumns+`
		FROM organization_focuses ofc
		JOIN focuses f ON f.id = ofc.focus_id
		WHERE ofc.organization_id = ANY($1)
		ORDER BY f.name ASC
	`, orgIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	byOrg := make(map[uuid.UUID][]models.Focus)
	var focusIDs []uuid.UUID
	for rows.Next() {
		var orgID uuid.UUID
		var f models.Focus
		if err := rows.Scan(&orgID, &f.ID, &f.Kind, &f.Name, &f.OtherNames, &f.CreatedAt); err != nil {
			return err
		}
		byOrg[orgID] = append(byOrg[orgID], f)
		focusIDs = append(focusIDs, f.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	parents, err := d.focusParents(ctx, focusIDs)
	if err != nil {
		return err
	}

	for i := range orgs {
		orgs[i].DiversityFocus = nil
		orgs[i].TechnologyFocus = nil
		for _, f := range byOrg[orgs[i].ID] {
			f.Parents = parents[f.ID]
			switch f.Kind {
			case models.FocusDiversity:
				orgs[i].DiversityFocus = append(orgs[i].DiversityFocus, f)
			case models.FocusTechnology:
				orgs[i].TechnologyFocus = append(orgs[i].TechnologyFocus, f)
			}
		}
	}
	return nil
}

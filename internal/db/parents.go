package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/models"
)

const parentColumns = `p.id, p.name, p.slug, p.description, p.url, p.logo_url, p.created_at, p.updated_at`

func scanParent(row pgx.Row) (*models.ParentOrganization, error) {
	var p models.ParentOrganization
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.URL, &p.LogoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanParents(rows pgx.Rows) ([]models.ParentOrganization, error) {
	defer rows.Close()

	var parents []models.ParentOrganization
	for rows.Next() {
		p, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		parents = append(parents, *p)
	}
	return parents, rows.Err()
}

// CreateParentOrganization inserts a parent organization.
func (d *DB) CreateParentOrganization(ctx context.Context, p *models.ParentOrganization) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO parent_organizations (name, slug, description, url, logo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Slug, p.Description, p.URL, p.LogoURL).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// GetParentOrganizationBySlug retrieves a parent organization with its organizers.
func (d *DB) GetParentOrganizationBySlug(ctx context.Context, slug string) (*models.ParentOrganization, error) {
	p, err := scanParent(d.Pool.QueryRow(ctx, `
		SELECT `+parentColumns+` FROM parent_organizations p WHERE p.slug = $1
	`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.Organizers, err = d.parentOrganizers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetParentOrganizationByName retrieves a parent organization by case-insensitive name.
func (d *DB) GetParentOrganizationByName(ctx context.Context, name string) (*models.ParentOrganization, error) {
	p, err := scanParent(d.Pool.QueryRow(ctx, `
		SELECT `+parentColumns+` FROM parent_organizations p WHERE lower(p.name) = lower($1)
	`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParentNotFound
	}
	return p, err
}

// FeaturedParentOrganizations returns the parents that have at least one
// featured chapter.
func (d *DB) FeaturedParentOrganizations(ctx context.Context) ([]models.ParentOrganization, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+parentColumns+`
		FROM parent_organizations p
		WHERE EXISTS (
			SELECT 1 FROM organizations o WHERE o.parent_id = p.id AND o.is_featured
		)
		ORDER BY p.name ASC
	`)
	if err != nil {
		return nil, err
	}
	return scanParents(rows)
}

// AddParentOrganizer grants a user organizer rights over every chapter of a parent.
func (d *DB) AddParentOrganizer(ctx context.Context, parentID, userID uuid.UUID) error {
	if _, err := d.Pool.Exec(ctx, `
		INSERT INTO parent_organization_organizers (parent_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, parentID, userID); err != nil {
		return fmt.Errorf("failed to add parent organizer: %w", err)
	}
	return nil
}

func (d *DB) parentOrganizers(ctx context.Context, parentID uuid.UUID) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM parent_organization_organizers po
		JOIN users u ON u.id = po.user_id
		WHERE po.parent_id = $1
		ORDER BY u.email ASC
	`, parentID)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (d *DB) organizationOrganizers(ctx context.Context, orgID uuid.UUID) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM organization_organizers oo
		JOIN users u ON u.id = oo.user_id
		WHERE oo.organization_id = $1
		ORDER BY u.email ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

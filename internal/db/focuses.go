package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/focus"
	"diversityorgs/internal/models"
)

const focusColumns = `f.id, f.kind, f.name, f.other_names, f.created_at`

func scanFocus(row pgx.Row) (*models.Focus, error) {
	var f models.Focus
	if err := row.Scan(&f.ID, &f.Kind, &f.Name, &f.OtherNames, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFocus inserts a new focus.
func (d *DB) CreateFocus(ctx context.Context, f *models.Focus) error {
	if f.OtherNames == nil {
		f.OtherNames = []string{}
	}
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO focuses (kind, name, other_names)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, f.Kind, f.Name, f.OtherNames).Scan(&f.ID, &f.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateFocus
	}
	return err
}

// GetFocusByName retrieves a focus of the given kind by case-insensitive name.
func (d *DB) GetFocusByName(ctx context.Context, kind models.FocusKind, name string) (*models.Focus, error) {
	row := d.Pool.QueryRow(ctx, `
		SELECT `+focusColumns+` FROM focuses f
		WHERE f.kind = $1 AND lower(f.name) = lower($2)
	`, kind, strings.TrimSpace(name))

	f, err := scanFocus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFocusNotFound
	}
	if err != nil {
		return nil, err
	}

	parents, err := d.focusParents(ctx, []uuid.UUID{f.ID})
	if err != nil {
		return nil, err
	}
	f.Parents = parents[f.ID]
	return f, nil
}

// GetOrCreateFocus returns the focus with the given name, creating it if needed.
func (d *DB) GetOrCreateFocus(ctx context.Context, kind models.FocusKind, name string) (*models.Focus, error) {
	f, err := d.GetFocusByName(ctx, kind, name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, ErrFocusNotFound) {
		return nil, err
	}

	f = &models.Focus{Kind: kind, Name: strings.TrimSpace(name)}
	if err := d.CreateFocus(ctx, f); err != nil {
		// Another request may have created it
		if errors.Is(err, ErrDuplicateFocus) {
			return d.GetFocusByName(ctx, kind, name)
		}
		return nil, err
	}
	return f, nil
}

// ListFocuses returns every focus of a kind ordered by name, with parents.
func (d *DB) ListFocuses(ctx context.Context, kind models.FocusKind) ([]models.Focus, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+focusColumns+` FROM focuses f
		WHERE f.kind = $1
		ORDER BY f.name ASC
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var focuses []models.Focus
	var ids []uuid.UUID
	for rows.Next() {
		f, err := scanFocus(rows)
		if err != nil {
			return nil, err
		}
		focuses = append(focuses, *f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	parents, err := d.focusParents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range focuses {
		focuses[i].Parents = parents[focuses[i].ID]
	}
	return focuses, nil
}

// AddFocusParent registers parentID as a broader category of focusID.
// Both must be of the same kind and the link must keep the hierarchy acyclic.
func (d *DB) AddFocusParent(ctx context.Context, focusID, parentID uuid.UUID) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Serialize hierarchy writers so two concurrent links cannot form a cycle.
	if _, err := tx.Exec(ctx, `LOCK TABLE focus_parents IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return err
	}

	var childKind, parentKind *models.FocusKind
	err = tx.QueryRow(ctx, `
		SELECT
			(SELECT kind FROM focuses WHERE id = $1),
			(SELECT kind FROM focuses WHERE id = $2)
	`, focusID, parentID).Scan(&childKind, &parentKind)
	if err != nil {
		return err
	}
	if childKind == nil || parentKind == nil {
		return ErrFocusNotFound
	}
	if *childKind != *parentKind {
		return ErrFocusKindMismatch
	}

	rows, err := tx.Query(ctx, `
		SELECT fp.focus_id, fp.parent_id
		FROM focus_parents fp
		JOIN focuses f ON f.id = fp.focus_id
		WHERE f.kind = $1
	`, *childKind)
	if err != nil {
		return err
	}
	edges := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var child, parent uuid.UUID
		if err := rows.Scan(&child, &parent); err != nil {
			rows.Close()
			return err
		}
		edges[child] = append(edges[child], parent)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if focus.WouldCycle(edges, focusID, parentID) {
		return ErrFocusCycle
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO focus_parents (focus_id, parent_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, focusID, parentID); err != nil {
		return fmt.Errorf("failed to add focus parent: %w", err)
	}

	return tx.Commit(ctx)
}

// focusParents returns the registered parents of each focus id.
func (d *DB) focusParents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.Focus, error) {
	parents := make(map[uuid.UUID][]models.Focus)
	if len(ids) == 0 {
		return parents, nil
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT fp.focus_id, `+focusColumns+`
		FROM focus_parents fp
		JOIN focuses f ON f.id = fp.parent_id
		WHERE fp.focus_id = ANY($1)
		ORDER BY f.name ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var child uuid.UUID
		var f models.Focus
		if err := rows.Scan(&child, &f.ID, &f.Kind, &f.Name, &f.OtherNames, &f.CreatedAt); err != nil {
			return nil, err
		}
		parents[child] = append(parents[child], f)
	}
	return parents, rows.Err()
}

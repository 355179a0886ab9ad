package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/models"
)

const userColumns = `u.id, u.sub, u.email, u.name, u.picture, u.role, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpsertUser creates or updates a user based on their OIDC subject.
// The role of an existing user is never changed by a login.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (sub, email, name, picture, role)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'user'))
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			updated_at = NOW()
		RETURNING id, role, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		user.Sub,
		user.Email,
		user.Name,
		user.Picture,
		nullIfEmpty(user.Role),
	).Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	u, err := scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.sub = $1`, sub))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetUserByID retrieves a user by their UUID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetUsersByEmails returns the users whose email matches one of emails,
// ignoring case. Unknown addresses are skipped.
func (d *DB) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(strings.TrimSpace(e))
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE lower(u.email) = ANY($1)
		ORDER BY u.email ASC
	`, lowered)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// ListUsers returns every user ordered by email.
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.email ASC`)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// UpdateUserRole sets the role of the user with the given email.
func (d *DB) UpdateUserRole(ctx context.Context, email, role string) (*models.User, error) {
	u, err := scanUser(d.Pool.QueryRow(ctx, `
		UPDATE users u SET role = $2, updated_at = NOW()
		WHERE lower(u.email) = lower($1)
		RETURNING `+userColumns, email, role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetModeratorEmails returns the addresses of all moderators and admins.
func (d *DB) GetModeratorEmails(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT email FROM users
		WHERE role IN ('moderator', 'admin') AND email <> ''
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

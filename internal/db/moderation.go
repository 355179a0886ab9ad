package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/models"
)

// CreateSuggestedEdit appends a suggested edit to the moderation queue.
func (d *DB) CreateSuggestedEdit(ctx context.Context, edit *models.SuggestedEdit) error {
	if edit.Report == nil {
		edit.Report = map[string]string{}
	}
	return d.Pool.QueryRow(ctx, `
		INSERT INTO suggested_edits (organization_id, report, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`, edit.OrganizationID, edit.Report, edit.UserID).Scan(&edit.ID, &edit.Status, &edit.CreatedAt)
}

// CreateViolationReport appends a violation report to the moderation queue.
func (d *DB) CreateViolationReport(ctx context.Context, report *models.ViolationReport) error {
	return d.Pool.QueryRow(ctx, `
		INSERT INTO violation_reports (organization_id, report, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`, report.OrganizationID, report.Report, report.UserID).Scan(&report.ID, &report.Status, &report.CreatedAt)
}

// CreateClaimRequest records a pending claim. A user may hold only one
// pending claim per organization.
func (d *DB) CreateClaimRequest(ctx context.Context, claim *models.ClaimRequest) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO claim_requests (organization_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`, claim.OrganizationID, claim.UserID, claim.Message).Scan(&claim.ID, &claim.Status, &claim.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateClaim
	}
	return err
}

// GetPendingSuggestedEdits returns pending suggested edits, oldest first.
func (d *DB) GetPendingSuggestedEdits(ctx context.Context) ([]models.SuggestedEdit, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT e.id, e.organization_id, e.report, e.user_id, e.status, e.created_at,
			o.name, o.slug, COALESCE(u.email, '')
		FROM suggested_edits e
		JOIN organizations o ON o.id = e.organization_id
		LEFT JOIN users u ON u.id = e.user_id
		WHERE e.status = 'pending'
		ORDER BY e.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edits []models.SuggestedEdit
	for rows.Next() {
		var e models.SuggestedEdit
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.Report, &e.UserID, &e.Status, &e.CreatedAt,
			&e.OrganizationName, &e.OrganizationSlug, &e.UserEmail); err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}
	return edits, rows.Err()
}

// GetPendingViolationReports returns pending violation reports, oldest first.
func (d *DB) GetPendingViolationReports(ctx context.Context) ([]models.ViolationReport, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT r.id, r.organization_id, r.report, r.user_id, r.status, r.created_at,
			o.name, o.slug, COALESCE(u.email, '')
		FROM violation_reports r
		JOIN organizations o ON o.id = r.organization_id
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.ViolationReport
	for rows.Next() {
		var r models.ViolationReport
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.Report, &r.UserID, &r.Status, &r.CreatedAt,
			&r.OrganizationName, &r.OrganizationSlug, &r.UserEmail); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetPendingClaimRequests returns pending claims, oldest first.
func (d *DB) GetPendingClaimRequests(ctx context.Context) ([]models.ClaimRequest, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT c.id, c.organization_id, c.user_id, c.message, c.status, c.created_at,
			o.name, o.slug, u.email
		FROM claim_requests c
		JOIN organizations o ON o.id = c.organization_id
		JOIN users u ON u.id = c.user_id
		WHERE c.status = 'pending'
		ORDER BY c.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.ClaimRequest
	for rows.Next() {
		var c models.ClaimRequest
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.UserID, &c.Message, &c.Status, &c.CreatedAt,
			&c.OrganizationName, &c.OrganizationSlug, &c.UserEmail); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// GetModerationQueue returns every pending item.
func (d *DB) GetModerationQueue(ctx context.Context) (*models.ModerationQueue, error) {
	var q models.ModerationQueue
	var err error
	if q.Edits, err = d.GetPendingSuggestedEdits(ctx); err != nil {
		return nil, fmt.Errorf("failed to load suggested edits: %w", err)
	}
	if q.Reports, err = d.GetPendingViolationReports(ctx); err != nil {
		return nil, fmt.Errorf("failed to load violation reports: %w", err)
	}
	if q.Claims, err = d.GetPendingClaimRequests(ctx); err != nil {
		return nil, fmt.Errorf("failed to load claim requests: %w", err)
	}
	return &q, nil
}

// MarkSuggestedEditReviewed closes a pending suggested edit.
func (d *DB) MarkSuggestedEditReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE suggested_edits SET status = 'reviewed', reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEditNotFound
	}
	return nil
}

// MarkViolationReportReviewed closes a pending violation report.
func (d *DB) MarkViolationReportReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE violation_reports SET status = 'reviewed', reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// ApproveClaimRequest approves a pending claim and makes the claimant an
// organizer in the same transaction.
func (d *DB) ApproveClaimRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ClaimRequest, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claim, err := reviewClaim(ctx, tx, id, reviewerID, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO organization_organizers (organization_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, claim.OrganizationID, claim.UserID); err != nil {
		return nil, fmt.Errorf("failed to add organizer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return claim, nil
}

// RejectClaimRequest rejects a pending claim.
func (d *DB) RejectClaimRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ClaimRequest, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claim, err := reviewClaim(ctx, tx, id, reviewerID, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return claim, nil
}

func reviewClaim(ctx context.Context, tx pgx.Tx, id, reviewerID uuid.UUID, status string) (*models.ClaimRequest, error) {
	var c models.ClaimRequest
	err := tx.QueryRow(ctx, `
		UPDATE claim_requests c SET status = $3, reviewed_by = $2, reviewed_at = NOW()
		FROM organizations o, users u
		WHERE c.id = $1 AND c.status = 'pending' AND o.id = c.organization_id AND u.id = c.user_id
		RETURNING c.id, c.organization_id, c.user_id, c.message, c.status, c.reviewed_by, c.reviewed_at, c.created_at,
			o.name, o.slug, u.email
	`, id, reviewerID, status).Scan(&c.ID, &c.OrganizationID, &c.UserID, &c.Message, &c.Status,
		&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt, &c.OrganizationName, &c.OrganizationSlug, &c.UserEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PendingCounts returns the number of pending items per queue.
func (d *DB) PendingCounts(ctx context.Context) (map[string]int, error) {
	var edits, reports, claims int
	err := d.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM suggested_edits WHERE status = 'pending'),
			(SELECT COUNT(*) FROM violation_reports WHERE status = 'pending'),
			(SELECT COUNT(*) FROM claim_requests WHERE status = 'pending')
	`).Scan(&edits, &reports, &claims)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		"suggested_edit":   edits,
		"violation_report": reports,
		"claim_request":    claims,
	}, nil
}

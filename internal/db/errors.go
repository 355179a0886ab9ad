package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level database error sentinels.
var (
	// Organization errors
	ErrOrgNotFound   = errors.New("organization not found")
	ErrDuplicateSlug = errors.New("an organization with this name already exists")

	// Parent organization errors
	ErrParentNotFound = errors.New("parent organization not found")

	// Location errors
	ErrLocationNotFound = errors.New("location not found")

	// Focus errors
	ErrFocusNotFound     = errors.New("focus not found")
	ErrDuplicateFocus    = errors.New("focus already exists")
	ErrFocusCycle        = errors.New("focus parent would create a cycle")
	ErrFocusKindMismatch = errors.New("focus parent must be of the same kind")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Moderation errors
	ErrEditNotFound   = errors.New("suggested edit not found")
	ErrReportNotFound = errors.New("violation report not found")
	ErrClaimNotFound  = errors.New("claim request not found")
	ErrDuplicateClaim = errors.New("you already have a pending claim for this organization")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrgNotFound) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrLocationNotFound) ||
		errors.Is(err, ErrFocusNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrEditNotFound) ||
		errors.Is(err, ErrReportNotFound) ||
		errors.Is(err, ErrClaimNotFound)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

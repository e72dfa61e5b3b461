package db

import (
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"botsub/internal/models"
)

// ConstraintError is a uniqueness violation reported by the database: a
// duplicate category or a duplicate membership.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return "constraint violation: " + e.Err.Error()
}

func (e *ConstraintError) Is(target error) bool {
	return target == models.ErrConflict
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// classify turns driver uniqueness errors into *ConstraintError and leaves
// everything else untouched.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
		return &ConstraintError{Constraint: pqErr.Constraint, Err: err}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &ConstraintError{Err: err}
		}
	}
	return err
}

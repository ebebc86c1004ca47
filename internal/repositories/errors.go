package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert violates a uniqueness constraint
// (e.g. the partial unique index guarding one in-progress attempt per student
// per quiz). Postgres surfaces it as SQLSTATE 23505; gorm translates that to
// gorm.ErrDuplicatedKey.
var ErrDuplicateKey = errors.New("duplicate key violation")

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey)
}

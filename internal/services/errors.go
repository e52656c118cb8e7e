package services

import (
	"errors"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"gorm.io/gorm"
)

// lookupErr maps a single-row fetch failure onto NotFound or Internal.
func lookupErr(err error, notFound, failed string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(failed, err)
}

// isUniqueViolation reports whether err came from a unique constraint.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

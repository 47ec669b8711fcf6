package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicate reports whether err is a unique-constraint violation.
// The postgres and sqlite drivers are opened with TranslateError, so
// gorm.ErrDuplicatedKey is the normal path; the message checks cover
// drivers that do not translate.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "duplicate key value violates unique constraint") ||
		strings.Contains(message, "UNIQUE constraint failed")
}

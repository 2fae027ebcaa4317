package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey reports whether err is a unique constraint violation.
// GORM's error translation covers drivers that support it; the string checks
// cover postgres and sqlite messages that reach us untranslated.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

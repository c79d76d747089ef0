package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Translate maps driver and GORM errors onto ErrNotFound and ErrConflict.
// Both unique and foreign-key violations count as conflicts.
// reason is attached to conflicts so callers can show why a write failed.
// Other errors are returned unchanged.
func Translate(err error, reason string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsDuplicate(err), errors.Is(err, gorm.ErrForeignKeyViolated):
		return Conflict(reason)
	default:
		return err
	}
}

// Conflict wraps ErrConflict with a reason.
func Conflict(reason string) error {
	if reason == "" {
		return ErrConflict
	}
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// NotFound wraps ErrNotFound with the missing entity name.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
// GORM's TranslateError covers the drivers it knows; the message check is a
// fallback for drivers compiled without error translation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

// Reason returns the text after the sentinel in a wrapped conflict or
// not-found error, or the whole message.
func Reason(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, ErrConflict.Error()+": "); ok {
		return rest
	}
	return msg
}

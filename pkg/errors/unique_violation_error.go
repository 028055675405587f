package custom_error

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type CustomError interface {
	Error() string
}

type UniqueViolationError struct {
	message string
	code    string // PostgreSQL (23505) or SQLite extended (2067, 1555) code
}

func (e *UniqueViolationError) Error() string {
	if e.code == "" {
		return e.message
	}
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func NewUniqueViolationError(message string) *UniqueViolationError {
	return &UniqueViolationError{message: message}
}

func WrapDBError(message, code string) CustomError {
	switch code {
	case "23505", "2067", "1555":
		return &UniqueViolationError{
			message: message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// FromDBError converts driver errors into typed errors; anything that is not
// a driver error is wrapped with message.
func FromDBError(message string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return WrapDBError(message+": "+pqErr.Message, string(pqErr.Code))
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return WrapDBError(message+": "+sqliteErr.Error(), strconv.Itoa(int(sqliteErr.ExtendedCode)))
		}
	}

	return fmt.Errorf("%s: %w", message, err)
}

func IsUniqueViolation(err error) bool {
	var target *UniqueViolationError
	return errors.As(err, &target)
}

package services

import (
	"errors"
	"fmt"

	"pantrytrack/utils"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = utils.ErrDuplicate
	ErrUnavailable  = errors.New("service unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-record error onto ErrNotFound for kind.
func notFound(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	}
	return err
}

// ErrInvalidCredentials is returned for a failed login or reset attempt.
var ErrInvalidCredentials = errors.New("invalid email or password")

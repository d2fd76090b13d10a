package utils

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate marks a unique-constraint violation.
var ErrDuplicate = errors.New("duplicate")

// DuplicateError is the user-facing form of a unique-constraint violation.
type DuplicateError struct {
	Kind string // "item", "tag"
	Name string
}

func (e *DuplicateError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "entry"
	}
	if e.Name == "" {
		return fmt.Sprintf("This %s already exists.", kind)
	}
	return fmt.Sprintf("A %s named %q already exists.", kind, e.Name)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// IsDuplicateKey reports whether err is a unique-constraint violation from
// Postgres or SQLite, translated by gorm or not.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}

// FriendlyDBError rewrites duplicate-key failures into a *DuplicateError.
// Other errors pass through unchanged.
func FriendlyDBError(err error, kind, name string) error {
	if !IsDuplicateKey(err) {
		return err
	}
	return &DuplicateError{Kind: kind, Name: name}
}

package schema

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("entry already exists")
)

// DbError hides the underlying database error from api responses while
// still logging the full cause.
type DbError struct {
	action string
}

func NewDbError(action string, err error) *DbError {
	slog.Error("sql error", "action", action, "error", err)
	return &DbError{action: action}
}

func (e *DbError) Error() string {
	return fmt.Sprintf("database error during operation '%v'", e.action)
}

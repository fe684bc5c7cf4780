// Package apperrors defines the error kinds shared by every stage. Callers
// wrap these with %w and match them with errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// RateLimitError reports a rejected admission. Count is the post-increment
// value of the user's window counter.
type RateLimitError struct {
	UserID string
	Count  int64
	Limit  int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for user %s: %d requests in window, limit %d", e.UserID, e.Count, e.Limit)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

func NotFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrNotFound)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func Conflict(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrConflict)
}

func InvalidTransition(resource, id, from, to string) error {
	return fmt.Errorf("%s %s cannot move from %s to %s: %w", resource, id, from, to, ErrInvalidTransition)
}

package service

import (
	"errors"
	"fmt"
	"time"
)

// Common service errors
var (
	// ErrNotRental is returned when a rental-only operation targets a purchase proposal
	ErrNotRental = errors.New("proposal is not a rental")

	// ErrSessionLimit is returned when an AI session used up its suggestions
	ErrSessionLimit = errors.New("session suggestion limit reached")

	// ErrStorageUnavailable is returned when no asset storage is configured
	ErrStorageUnavailable = errors.New("asset storage not configured")
)

// LoginFailedError reports a wrong password and the attempts left before lockout
type LoginFailedError struct {
	AttemptsRemaining int
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.AttemptsRemaining)
}

// LoginLockedError reports that login is blocked for RetryAfter
type LoginLockedError struct {
	RetryAfter time.Duration
}

func (e *LoginLockedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds rounds the remaining lockout up to whole seconds
func (e *LoginLockedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

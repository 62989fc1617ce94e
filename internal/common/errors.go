package common

import (
	"errors"
	"fmt"
	"strings"
)

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Post errors
	ErrPostNotFound  = errors.New("post not found")
	ErrBoardNotFound = errors.New("board not found")
	ErrUserNotFound  = errors.New("user not found")

	// Import errors
	ErrOriginUnreachable = errors.New("origin host unreachable")
	ErrInvalidOriginURL  = errors.New("url is not a supported origin thread address")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// AlreadyImportedError is returned when a duplicate import is detected
// before any write. PostID points at the pre-existing post so callers
// can link to it.
type AlreadyImportedError struct {
	PostID  int64
	Subject string
}

func (e *AlreadyImportedError) Error() string {
	return fmt.Sprintf("thread %q is already imported as post %d", e.Subject, e.PostID)
}

// UnresolvableIdentityError carries every origin username that could not
// be mapped to an internal identity, so the user can pre-create the
// missing characters and resubmit.
type UnresolvableIdentityError struct {
	Usernames []string
}

func (e *UnresolvableIdentityError) Error() string {
	return fmt.Sprintf("could not resolve origin usernames: %s", strings.Join(e.Usernames, ", "))
}

// MalformedFragmentError is returned when an origin HTML fragment lacks
// an expected field. Fatal for the import: skipping would silently drop
// content.
type MalformedFragmentError struct {
	Field string
	URL   string
}

func (e *MalformedFragmentError) Error() string {
	return fmt.Sprintf("origin fragment at %s is missing %s", e.URL, e.Field)
}

// Package repository contains the data access layer.  Lookups that find
// nothing return a nil record and a nil error; errors are reserved for
// failures.  Driver errors are wrapped with %w so callers can still inspect
// them with errors.Is/errors.As.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a property they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned by AddUser when another account already uses
// the email address (compared without regard to case).
var ErrEmailExists = errors.New("email already exists")

package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when caller input violates a
// precondition (blank required field, malformed email, pre-set server field).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a mutation is refused because of the current
// state of an entity: a bike already rented, a member already unsubscribed,
// a ride already closed. Unique-constraint violations in the store map here too.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("conflict")

// ErrStorage wraps failures of the persistence layer that are not otherwise
// classified. The driver error stays in the chain.
var ErrStorage = errors.New("storage error")

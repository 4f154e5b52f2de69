package domain

import "errors"

// ErrNotFound is returned by store and service functions when the requested
// record or draft does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. blank name, missing date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when an insert would break identifier uniqueness.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotSynced is returned when a remote update or delete is requested for a
// record that has no external counterpart yet.
// Handlers should map this to HTTP 409.
var ErrNotSynced = errors.New("record has no external counterpart")

// ErrAuth is returned when a bearer token cannot be acquired. Operations that
// depend on the token short-circuit with this error and are not retried.
// Handlers should map this to HTTP 401.
var ErrAuth = errors.New("authentication failed")

// ErrExternal is returned when the external calendar service rejects or fails
// a call. Local state is left exactly as it was before the call.
// Handlers should map this to HTTP 502.
var ErrExternal = errors.New("external service error")

// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// and the background worker to distinguish between failure scenarios. For
// example, ErrSeatTaken signals a seat-hold conflict that must surface as
// HTTP 409 with no state written, while the NotFound sentinels are treated
// as "already resolved" by background processes and as client errors by
// request handlers.
package repository

import "errors"

// ErrSeatTaken is returned when one or more requested seat labels are
// already present in a show's occupancy map. Handlers should translate
// this into an HTTP 409 response.
var ErrSeatTaken = errors.New("seat already taken")

// ErrMovieNotFound is returned when a movie is absent from the local
// catalog cache.
var ErrMovieNotFound = errors.New("movie not found")

// ErrShowNotFound is returned when the referenced show does not exist.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound is returned when the referenced booking does not
// exist. The hold-expiry and payment-confirmation processes treat this as
// a no-op rather than a failure.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when no mirrored identity record exists for
// a subject.
var ErrUserNotFound = errors.New("user not found")

// Package queue defines message payloads and queue topology exchanged over
// the message broker.  Three durable queues exist: booking.hold.wait (no
// consumer; messages carry a per-message TTL and dead-letter into
// booking.expiry when the hold window elapses), booking.expiry (consumed
// by the worker's release path), booking.confirmed and show.added
// (notification fan-out).
package queue

const (
    // HoldWaitQueue parks hold-expiry messages for the hold duration.
    HoldWaitQueue = "booking.hold.wait"
    // ExpiryQueue receives dead-lettered hold messages once due.
    ExpiryQueue = "booking.expiry"
    // ConfirmedQueue carries payment-confirmed notifications.
    ConfirmedQueue = "booking.confirmed"
    // ShowAddedQueue carries new-show announcements.
    ShowAddedQueue = "show.added"
)

// BookingCreatedEvent schedules the hold-expiry check for one booking.  It
// is published at booking creation and delivered to the expiry consumer
// only after the hold window has elapsed.  The payload carries just the
// identifier; the consumer re-reads the booking so stale data can never
// override the payment outcome.
type BookingCreatedEvent struct {
    BookingID uint64 `json:"booking_id"`
    ExpiresAt string `json:"expires_at"`
}

// BookingConfirmedEvent is published when a payment notification marks a
// booking paid.  Consumers send the confirmation email; duplicate events
// result in duplicate emails at worst, never corrupted state.
type BookingConfirmedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    ConfirmedAt string `json:"confirmed_at"`
}

// ShowAddedEvent is published when new shows are scheduled for a movie.
// Consumers announce the movie to every registered user.
type ShowAddedEvent struct {
    MovieID    uint64 `json:"movie_id"`
    MovieTitle string `json:"movie_title"`
    AddedAt    string `json:"added_at"`
}

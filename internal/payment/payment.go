// Package payment integrates the external payment processor.  The
// processor is consumed through its documented contract only: checkout
// sessions are created with the booking's public reference attached as
// metadata, and payment-succeeded webhooks are trusted only after
// signature verification against the shared signing secret.
package payment

import (
    "context"
    "errors"
    "time"
)

// ErrSessionNotFound is returned when a payment notification cannot be
// mapped back to a checkout session, and therefore to a booking.
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutInput describes the single line item a booking is charged as.
type CheckoutInput struct {
    BookingRef      string    // opaque booking reference carried as session metadata
    MovieTitle      string    // product name shown at checkout
    UnitAmountCents int64     // per-seat price
    SeatCount       int64     // quantity
    ExpiresAt       time.Time // when the checkout session itself expires
}

// Event is the verified, decoded form of a processor webhook.
type Event struct {
    Type            string // processor event type, e.g. "payment_intent.succeeded"
    PaymentIntentID string // set when the event carries a payment intent
}

// Gateway is the processor-facing surface used by handlers.  A fake
// implementation stands in during tests.
type Gateway interface {
    // CreateCheckout opens a hosted checkout session and returns its URL.
    CreateCheckout(ctx context.Context, in CheckoutInput) (string, error)
    // VerifyEvent authenticates a raw webhook payload against its
    // signature header and decodes it.  An error means the payload must
    // not be trusted and nothing may be mutated.
    VerifyEvent(payload []byte, sigHeader string) (Event, error)
    // BookingRefFor resolves a payment intent back to the booking
    // reference attached at checkout-session creation.
    BookingRefFor(ctx context.Context, paymentIntentID string) (string, error)
}

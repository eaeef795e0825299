package model

import "time"

// Booking records a single reservation attempt against a show.  It is
// created with IsPaid=false at seat-selection time, simultaneously with the
// show's occupancy entries for its seats.  It either transitions to
// IsPaid=true via payment confirmation (terminal, immutable, permanent) or
// is deleted by the hold-expiry process once ExpiresAt passes while unpaid.
//
// Fields:
//  ID          – primary key identifier.
//  PublicRef   – opaque UUID handed to the payment processor as metadata;
//                never exposes the numeric key.
//  ShowID      – show being booked.
//  UserID      – external identity-provider subject of the booker.
//  BookedSeats – ordered, non-empty list of seat labels.
//  AmountCents – total price in cents (seat count × show price).
//  IsPaid      – whether payment has been confirmed.
//  PaymentLink – checkout URL for completing payment while unpaid.
//  ExpiresAt   – hold-expiry deadline for unpaid bookings.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
    ID          uint64    `json:"id"`
    PublicRef   string    `json:"public_ref"`
    ShowID      uint64    `json:"show_id"`
    UserID      string    `json:"user_id"`
    BookedSeats []string  `json:"booked_seats"`
    AmountCents uint32    `json:"amount_cents"`
    IsPaid      bool      `json:"is_paid"`
    PaymentLink string    `json:"payment_link,omitempty"`
    ExpiresAt   time.Time `json:"expires_at"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

package model

import "time"

// Show represents a scheduled screening of a movie at a specific date and
// time.  An administrative action expands a (date × times) cross-product
// into one Show per slot.  Seat occupancy is denormalized onto the show as
// a map from seat label to the holding user's identifier; absence of a
// label means the seat is free.  The map is persisted in the show_seats
// table and is the single source of truth consulted at booking time.
//
// Fields:
//  ID            – primary key identifier.
//  MovieID       – movie being screened (references Movie).
//  ShowDateTime  – screening start, UTC.
//  PriceCents    – ticket price per seat in cents.
//  OccupiedSeats – seat label -> holding user ID.  Populated on demand.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Show struct {
    ID            uint64            `json:"id"`
    MovieID       uint64            `json:"movie_id"`
    ShowDateTime  time.Time         `json:"show_datetime"`
    PriceCents    uint32            `json:"price_cents"`
    OccupiedSeats map[string]string `json:"occupied_seats,omitempty"`
    CreatedAt     time.Time         `json:"created_at"`
    UpdatedAt     time.Time         `json:"updated_at"`
}

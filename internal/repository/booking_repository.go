package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/cinebook/cinebook/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their ordered seat
// lists.  A booking row and the show's occupancy entries for its seats are
// two views of the same fact; both are always written or removed inside
// one transaction together with ShowRepo's Tx methods.  All timestamps are
// UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, public_ref, show_id, user_id, amount_cents, is_paid, payment_link,
    expires_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    if err := row.Scan(&b.ID, &b.PublicRef, &b.ShowID, &b.UserID, &b.AmountCents, &b.IsPaid,
        &b.PaymentLink, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    return &b, nil
}

// CreateTx inserts a new booking and its ordered seat list within the scope
// of an existing transaction.  It populates the generated ID on the
// provided record.  The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (public_ref, show_id, user_id, amount_cents, expires_at)
               VALUES (?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, b.PublicRef, b.ShowID, b.UserID, b.AmountCents, b.ExpiresAt.UTC())
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    if len(b.BookedSeats) == 0 {
        return nil
    }
    query := `INSERT INTO booking_seats (booking_id, position, seat_label) VALUES `
    args := make([]interface{}, 0, len(b.BookedSeats)*3)
    for i, label := range b.BookedSeats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, b.ID, i, label)
    }
    _, err = tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID returns a booking with its seat list.  ErrBookingNotFound is
// returned when the booking does not exist (e.g. already expired and
// deleted).
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    seats, err := r.seatsFor(ctx, b.ID)
    if err != nil {
        return nil, err
    }
    b.BookedSeats = seats
    return b, nil
}

// LockTx loads a booking and its seat list inside a transaction with a row
// lock.  The hold-expiry process uses this so the paid/unpaid decision and
// the release that follows cannot interleave with a concurrent payment
// confirmation.
func (r *BookingRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
    b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    const seatQ = `SELECT seat_label FROM booking_seats WHERE booking_id = ? ORDER BY position ASC`
    rows, err := tx.QueryContext(ctx, seatQ, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var label string
        if err := rows.Scan(&label); err != nil {
            return nil, err
        }
        b.BookedSeats = append(b.BookedSeats, label)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return b, nil
}

func (r *BookingRepo) seatsFor(ctx context.Context, bookingID uint64) ([]string, error) {
    const q = `SELECT seat_label FROM booking_seats WHERE booking_id = ? ORDER BY position ASC`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []string
    for rows.Next() {
        var label string
        if err := rows.Scan(&label); err != nil {
            return nil, err
        }
        seats = append(seats, label)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// SetPaymentLink stores the checkout URL for an unpaid booking so the user
// can resume payment from their booking list.
func (r *BookingRepo) SetPaymentLink(ctx context.Context, id uint64, link string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE bookings SET payment_link = ? WHERE id = ?`, link, id)
    return err
}

// MarkPaidByRef flips is_paid for the booking carrying the given public
// reference and clears the now-useless payment link.  It returns the
// booking's numeric ID for downstream notification.  Re-running it for an
// already-paid booking is a harmless no-op update, which is what makes the
// payment-confirmation process safe to replay.  ErrBookingNotFound is
// returned when no booking carries the reference.
func (r *BookingRepo) MarkPaidByRef(ctx context.Context, publicRef string) (uint64, error) {
    var id uint64
    err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE public_ref = ?`, publicRef).Scan(&id)
    if err == sql.ErrNoRows {
        return 0, ErrBookingNotFound
    }
    if err != nil {
        return 0, err
    }
    if _, err := r.db.ExecContext(ctx, `UPDATE bookings SET is_paid = 1, payment_link = '' WHERE id = ?`, id); err != nil {
        return 0, err
    }
    return id, nil
}

// DeleteTx removes a booking and its seat list within the provided
// transaction.  Deleting a booking that is already gone is not an error.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, id); err != nil {
        return err
    }
    _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
    return err
}

// DueUnpaidIDs returns the IDs of bookings whose hold-expiry deadline has
// passed while still unpaid, oldest first.  The sweep worker feeds these
// into the release path; limit bounds one sweep batch.
func (r *BookingRepo) DueUnpaidIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
    const q = `SELECT id FROM bookings WHERE is_paid = 0 AND expires_at <= ? ORDER BY expires_at ASC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, now.UTC(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}

// BookingDetail is a booking joined with its show and movie for display.
type BookingDetail struct {
    ID           uint64    `json:"id"`
    PublicRef    string    `json:"public_ref"`
    UserID       string    `json:"user_id"`
    ShowID       uint64    `json:"show_id"`
    MovieID      uint64    `json:"movie_id"`
    MovieTitle   string    `json:"movie_title"`
    PosterPath   string    `json:"poster_path"`
    ShowDateTime time.Time `json:"show_datetime"`
    BookedSeats  []string  `json:"booked_seats"`
    AmountCents  uint32    `json:"amount_cents"`
    IsPaid       bool      `json:"is_paid"`
    PaymentLink  string    `json:"payment_link,omitempty"`
    CreatedAt    time.Time `json:"created_at"`
}

// ListByUser returns the user's bookings with show and movie details,
// newest first.  When no bookings exist, an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]BookingDetail, error) {
    const q = `SELECT b.id, b.public_ref, b.user_id, b.show_id, s.movie_id, m.title, m.poster_path,
                      s.show_datetime, b.amount_cents, b.is_paid, b.payment_link, b.created_at
               FROM bookings b
               JOIN shows s ON s.id = b.show_id
               JOIN movies m ON m.id = s.movie_id
               WHERE b.user_id = ?
               ORDER BY b.created_at DESC`
    return r.queryDetails(ctx, q, userID)
}

// ListAll returns every booking with show and movie details, newest first.
// It backs the admin booking overview.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
    const q = `SELECT b.id, b.public_ref, b.user_id, b.show_id, s.movie_id, m.title, m.poster_path,
                      s.show_datetime, b.amount_cents, b.is_paid, b.payment_link, b.created_at
               FROM bookings b
               JOIN shows s ON s.id = b.show_id
               JOIN movies m ON m.id = s.movie_id
               ORDER BY b.created_at DESC`
    return r.queryDetails(ctx, q)
}

func (r *BookingRepo) queryDetails(ctx context.Context, q string, args ...any) ([]BookingDetail, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var d BookingDetail
        if err := rows.Scan(&d.ID, &d.PublicRef, &d.UserID, &d.ShowID, &d.MovieID, &d.MovieTitle,
            &d.PosterPath, &d.ShowDateTime, &d.AmountCents, &d.IsPaid, &d.PaymentLink, &d.CreatedAt); err != nil {
            return nil, err
        }
        d.BookedSeats = []string{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    // Populate seats for all bookings in a single query.
    ids := make([]interface{}, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    seatQ := `SELECT booking_id, seat_label FROM booking_seats
              WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY booking_id, position`
    srows, err := r.db.QueryContext(ctx, seatQ, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var bid uint64
        var label string
        if err := srows.Scan(&bid, &label); err != nil {
            return nil, err
        }
        if idx, ok := index[bid]; ok {
            details[idx].BookedSeats = append(details[idx].BookedSeats, label)
        }
    }
    if err := srows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// PaidStats returns the number of paid bookings and their summed amount in
// cents.  It backs the admin dashboard.
func (r *BookingRepo) PaidStats(ctx context.Context) (int64, uint64, error) {
    var count int64
    var revenue uint64
    const q = `SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM bookings WHERE is_paid = 1`
    if err := r.db.QueryRowContext(ctx, q).Scan(&count, &revenue); err != nil {
        return 0, 0, err
    }
    return count, revenue, nil
}

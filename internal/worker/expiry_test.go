package worker

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinebook/cinebook/internal/repository"
)

var bookingCols = []string{
    "id", "public_ref", "show_id", "user_id", "amount_cents", "is_paid",
    "payment_link", "expires_at", "created_at", "updated_at",
}

func newExpirer(t *testing.T) (*Expirer, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return &Expirer{
        DB:       db,
        Bookings: repository.NewBookingRepo(db),
        Shows:    repository.NewShowRepo(db),
    }, mock
}

func bookingRow(id uint64, paid bool) *sqlmock.Rows {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    return sqlmock.NewRows(bookingCols).
        AddRow(id, "ref", 7, "user-1", 3000, paid, "", now, now, now)
}

func TestReleaseExpiredBookingMissingIsNoop(t *testing.T) {
    e, mock := newExpirer(t)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
        WithArgs(uint64(1)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    require.NoError(t, e.ReleaseExpiredBooking(context.Background(), 1))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredBookingPaidIsUntouched(t *testing.T) {
    e, mock := newExpirer(t)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
        WithArgs(uint64(2)).
        WillReturnRows(bookingRow(2, true))
    mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_label FROM booking_seats WHERE booking_id = ?")).
        WithArgs(uint64(2)).
        WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1"))
    mock.ExpectRollback()

    // No DELETE is ever issued for a paid booking.
    require.NoError(t, e.ReleaseExpiredBooking(context.Background(), 2))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredBookingUnpaidReleasesSeatsAndDeletes(t *testing.T) {
    e, mock := newExpirer(t)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
        WithArgs(uint64(3)).
        WillReturnRows(bookingRow(3, false))
    mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_label FROM booking_seats WHERE booking_id = ?")).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1").AddRow("A2"))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM show_seats WHERE show_id = ? AND seat_label IN (?,?)")).
        WithArgs(uint64(7), "A1", "A2").
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM booking_seats WHERE booking_id = ?")).
        WithArgs(uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = ?")).
        WithArgs(uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, e.ReleaseExpiredBooking(context.Background(), 3))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepContinuesPastFailures(t *testing.T) {
    e, mock := newExpirer(t)

    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    mock.ExpectQuery(regexp.QuoteMeta("WHERE is_paid = 0 AND expires_at <= ?")).
        WithArgs(now, 10).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

    // Booking 1 fails mid-release; booking 2 is still processed.
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
        WithArgs(uint64(1)).
        WillReturnError(sql.ErrConnDone)
    mock.ExpectRollback()

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
        WithArgs(uint64(2)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    released, err := e.Sweep(context.Background(), now, 10)
    require.NoError(t, err)
    assert.Equal(t, 1, released)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleExpiryMessageBadPayload(t *testing.T) {
    e, _ := newExpirer(t)
    assert.Error(t, e.HandleExpiryMessage([]byte("{not json")))
}

package repository

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinebook/cinebook/internal/model"
)

func TestCreateTxStoresSeatsInSelectionOrder(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    expires := time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC)
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
        WithArgs("ref-1", uint64(7), "user-1", uint32(3000), expires).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_seats (booking_id, position, seat_label) VALUES (?, ?, ?),(?, ?, ?)")).
        WithArgs(uint64(42), 0, "B2", uint64(42), 1, "A1").
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    tx, err := db.Begin()
    require.NoError(t, err)
    b := &model.Booking{
        PublicRef:   "ref-1",
        ShowID:      7,
        UserID:      "user-1",
        BookedSeats: []string{"B2", "A1"}, // order as selected, not sorted
        AmountCents: 3000,
        ExpiresAt:   expires,
    }
    require.NoError(t, repo.CreateTx(context.Background(), tx, b))
    require.NoError(t, tx.Commit())

    assert.Equal(t, uint64(42), b.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidByRefIsIdempotent(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    for i := 0; i < 2; i++ {
        mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings WHERE public_ref = ?")).
            WithArgs("ref-9").
            WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
        mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET is_paid = 1, payment_link = '' WHERE id = ?")).
            WithArgs(uint64(9)).
            WillReturnResult(sqlmock.NewResult(0, 1))
    }

    // A replayed confirmation yields the same outcome, no error.
    for i := 0; i < 2; i++ {
        id, err := repo.MarkPaidByRef(context.Background(), "ref-9")
        require.NoError(t, err)
        assert.Equal(t, uint64(9), id)
    }
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidByRefUnknownRef(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings WHERE public_ref = ?")).
        WithArgs("nope").
        WillReturnError(sql.ErrNoRows)

    _, err := repo.MarkPaidByRef(context.Background(), "nope")
    assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestDueUnpaidIDsOldestFirst(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    mock.ExpectQuery(regexp.QuoteMeta("WHERE is_paid = 0 AND expires_at <= ?")).
        WithArgs(now, 100).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(5))

    ids, err := repo.DueUnpaidIDs(context.Background(), now, 100)
    require.NoError(t, err)
    assert.Equal(t, []uint64{3, 5}, ids)
}

func TestGetByIDNotFoundBooking(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
        WithArgs(uint64(1)).
        WillReturnError(sql.ErrNoRows)

    _, err := repo.GetByID(context.Background(), 1)
    assert.ErrorIs(t, err, ErrBookingNotFound)
}

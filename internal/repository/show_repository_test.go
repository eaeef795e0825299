package repository

import (
    "context"
    "database/sql"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return db, mock
}

func TestOccupySeatsTxConflict(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO show_seats")).
        WithArgs(uint64(1), "A1", "user-1", uint64(1), "A2", "user-1").
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-A1' for key 'PRIMARY'"))
    mock.ExpectRollback()

    tx, err := db.Begin()
    require.NoError(t, err)
    err = repo.OccupySeatsTx(context.Background(), tx, 1, "user-1", []string{"A1", "A2"})
    assert.ErrorIs(t, err, ErrSeatTaken)
    require.NoError(t, tx.Rollback())

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupySeatsTxWritesAllLabels(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO show_seats")).
        WithArgs(uint64(9), "B1", "u", uint64(9), "B2", "u", uint64(9), "B3", "u").
        WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectCommit()

    tx, err := db.Begin()
    require.NoError(t, err)
    require.NoError(t, repo.OccupySeatsTx(context.Background(), tx, 9, "u", []string{"B1", "B2", "B3"}))
    require.NoError(t, tx.Commit())

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsTxToleratesAbsentLabels(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    mock.ExpectBegin()
    // Only one of the two labels still exists; the DELETE reports a single
    // affected row and the release still succeeds.
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM show_seats WHERE show_id = ? AND seat_label IN (?,?)")).
        WithArgs(uint64(3), "C1", "C2").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    tx, err := db.Begin()
    require.NoError(t, err)
    require.NoError(t, repo.ReleaseSeatsTx(context.Background(), tx, 3, []string{"C1", "C2"}))
    require.NoError(t, tx.Commit())

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta("FROM shows WHERE id = ?")).
        WithArgs(uint64(404)).
        WillReturnError(sql.ErrNoRows)

    _, err := repo.GetByID(context.Background(), 404)
    assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestOccupiedSeatsBuildsMap(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    rows := sqlmock.NewRows([]string{"seat_label", "user_id"}).
        AddRow("A1", "user-1").
        AddRow("A2", "user-2")
    mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_label, user_id FROM show_seats WHERE show_id = ?")).
        WithArgs(uint64(5)).
        WillReturnRows(rows)

    occupied, err := repo.OccupiedSeats(context.Background(), 5)
    require.NoError(t, err)
    assert.Equal(t, map[string]string{"A1": "user-1", "A2": "user-2"}, occupied)
}

func TestListStartingBetweenBounds(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewShowRepo(db)

    from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    to := from.Add(8 * time.Hour)
    rows := sqlmock.NewRows([]string{"id", "movie_id", "show_datetime", "price_cents", "created_at", "updated_at"}).
        AddRow(1, 10, from.Add(time.Hour), 1500, from, from)
    mock.ExpectQuery(regexp.QuoteMeta("WHERE show_datetime >= ? AND show_datetime <= ?")).
        WithArgs(from, to).
        WillReturnRows(rows)

    shows, err := repo.ListStartingBetween(context.Background(), from, to)
    require.NoError(t, err)
    require.Len(t, shows, 1)
    assert.Equal(t, uint64(10), shows[0].MovieID)
}

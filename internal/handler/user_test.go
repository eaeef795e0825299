package handler

import (
    "net/http"
    "net/http/httptest"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinebook/cinebook/internal/cache"
    "github.com/cinebook/cinebook/internal/repository"
)

func movieRows(now time.Time, pairs ...[2]any) *sqlmock.Rows {
    rows := sqlmock.NewRows([]string{"id", "title", "overview", "poster_path", "backdrop_path",
        "genres", "casts", "release_date", "runtime_minutes", "vote_average", "created_at"})
    for _, p := range pairs {
        rows.AddRow(p[0], p[1], "", "", "", "[]", "[]", "2026-01-01", 120, 7.0, now)
    }
    return rows
}

func TestRecommendationsFallBackToActiveShows(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    // Two distinct movies have upcoming shows.
    mock.ExpectQuery(regexp.QuoteMeta("FROM shows WHERE show_datetime >= ?")).
        WithArgs(sqlmock.AnyArg()).
        WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "show_datetime", "price_cents", "created_at", "updated_at"}).
            AddRow(1, 10, now.Add(time.Hour), 1500, now, now).
            AddRow(2, 20, now.Add(2*time.Hour), 1500, now, now).
            AddRow(3, 10, now.Add(3*time.Hour), 1500, now, now))
    // The user has no favorites, so the external recommender is skipped.
    mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM favorites WHERE user_id = ?")).
        WithArgs("user-1").
        WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))
    mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE id IN (?,?)")).
        WithArgs(uint64(10), uint64(20)).
        WillReturnRows(movieRows(now, [2]any{10, "First"}, [2]any{20, "Second"}))

    h := NewUserHandler(repository.NewUserRepo(db), repository.NewBookingRepo(db),
        repository.NewMovieRepo(db), repository.NewShowRepo(db), nil, nil, cache.NewMemory())

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/user/recommendations", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", "user-1")

    require.NoError(t, h.Recommendations(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "First")
    assert.Contains(t, rec.Body.String(), "Second")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMyBookingsEmpty(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = ?")).
        WithArgs("user-1").
        WillReturnRows(sqlmock.NewRows([]string{"id", "public_ref", "user_id", "show_id", "movie_id",
            "title", "poster_path", "show_datetime", "amount_cents", "is_paid", "payment_link", "created_at"}))

    h := NewUserHandler(repository.NewUserRepo(db), repository.NewBookingRepo(db),
        repository.NewMovieRepo(db), repository.NewShowRepo(db), nil, nil, cache.NewMemory())

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/user/bookings", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", "user-1")

    require.NoError(t, h.MyBookings(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"bookings":[]`)
}

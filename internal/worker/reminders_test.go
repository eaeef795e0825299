package worker

import (
    "context"
    "errors"
    "regexp"
    "sync"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinebook/cinebook/internal/repository"
)

// fakeMailer records sends and fails for configured addresses.
type fakeMailer struct {
    mu     sync.Mutex
    sent   []string
    failAt map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failAt[to] {
        return errors.New("smtp unavailable")
    }
    f.sent = append(f.sent, to)
    return nil
}

func TestReminderRunOnceCountsPartialFailures(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    showTime := now.Add(2 * time.Hour)

    mock.ExpectQuery(regexp.QuoteMeta("WHERE show_datetime >= ? AND show_datetime <= ?")).
        WithArgs(now, now.Add(8*time.Hour)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "show_datetime", "price_cents", "created_at", "updated_at"}).
            AddRow(1, 10, showTime, 1500, now, now))
    mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE id = ?")).
        WithArgs(uint64(10)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "title", "overview", "poster_path", "backdrop_path",
            "genres", "casts", "release_date", "runtime_minutes", "vote_average", "created_at"}).
            AddRow(10, "The Long Night", "", "", "", "[]", "[]", "2026-01-01", 120, 7.5, now))
    mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT user_id FROM show_seats WHERE show_id = ?")).
        WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2"))
    mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN (?,?)")).
        WithArgs("u1", "u2").
        WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "image", "created_at", "updated_at"}).
            AddRow("u1", "Alice", "alice@example.com", "", now, now).
            AddRow("u2", "Bob", "bob@example.com", "", now, now))

    mail := &fakeMailer{failAt: map[string]bool{"bob@example.com": true}}
    r := NewReminder(repository.NewShowRepo(db), repository.NewMovieRepo(db), repository.NewUserRepo(db), mail)
    r.now = func() time.Time { return now }

    sent, failed, err := r.RunOnce(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, sent)
    assert.Equal(t, 1, failed)
    assert.Equal(t, []string{"alice@example.com"}, mail.sent)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRunOnceEmptyWindow(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    mock.ExpectQuery(regexp.QuoteMeta("WHERE show_datetime >= ? AND show_datetime <= ?")).
        WithArgs(now, now.Add(8*time.Hour)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "show_datetime", "price_cents", "created_at", "updated_at"}))

    mail := &fakeMailer{}
    r := NewReminder(repository.NewShowRepo(db), repository.NewMovieRepo(db), repository.NewUserRepo(db), mail)
    r.now = func() time.Time { return now }

    sent, failed, err := r.RunOnce(context.Background())
    require.NoError(t, err)
    assert.Zero(t, sent)
    assert.Zero(t, failed)
    assert.Empty(t, mail.sent)
}

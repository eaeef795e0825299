package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/cinebook/cinebook/internal/model"
)

// ShowRepo provides access to shows and their denormalized seat-occupancy
// map (the show_seats table).  Occupancy mutation happens exclusively
// through the Tx methods so that seat acquisition and release stay atomic
// with the booking rows they mirror.  All timestamps are UTC.
type ShowRepo struct {
    db *sql.DB
}

// NewShowRepo returns a new ShowRepo bound to the given database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span shows, occupancy and bookings.
func (r *ShowRepo) DB() *sql.DB { return r.db }

// CreateBulk inserts one show per scheduled slot in a single statement.
// The ID fields of the passed structures are not populated; callers that
// need them should re-query.
func (r *ShowRepo) CreateBulk(ctx context.Context, shows []model.Show) error {
    if len(shows) == 0 {
        return nil
    }
    query := `INSERT INTO shows (movie_id, show_datetime, price_cents) VALUES `
    args := make([]interface{}, 0, len(shows)*3)
    for i, s := range shows {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, s.MovieID, s.ShowDateTime.UTC(), s.PriceCents)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

const showColumns = `id, movie_id, show_datetime, price_cents, created_at, updated_at`

func scanShow(row interface{ Scan(...any) error }) (*model.Show, error) {
    var s model.Show
    if err := row.Scan(&s.ID, &s.MovieID, &s.ShowDateTime, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
        return nil, err
    }
    return &s, nil
}

// GetByID returns a show without its occupancy map.  ErrShowNotFound is
// returned when no such show exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
    const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
    s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrShowNotFound
    }
    return s, err
}

// LockTx loads a show inside a transaction with a row lock (SELECT ... FOR
// UPDATE).  Seat acquisition must go through this lock so that two
// concurrent requests against the same show are serialized and cannot both
// observe a seat as free.
func (r *ShowRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Show, error) {
    const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ? FOR UPDATE`
    s, err := scanShow(tx.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrShowNotFound
    }
    return s, err
}

// OccupiedSeats returns the show's occupancy map: seat label -> holding
// user ID.  An empty map means every seat is free.
func (r *ShowRepo) OccupiedSeats(ctx context.Context, showID uint64) (map[string]string, error) {
    const q = `SELECT seat_label, user_id FROM show_seats WHERE show_id = ?`
    rows, err := r.db.QueryContext(ctx, q, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    occupied := make(map[string]string)
    for rows.Next() {
        var label, userID string
        if err := rows.Scan(&label, &userID); err != nil {
            return nil, err
        }
        occupied[label] = userID
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return occupied, nil
}

// OccupySeatsTx writes the requested labels into the show's occupancy map,
// all mapped to the requesting user, within the provided transaction.  The
// (show_id, seat_label) primary key turns a concurrent or repeated grab of
// any label into a duplicate-key error, which is surfaced as ErrSeatTaken;
// rolling back the transaction then leaves no partial state.
func (r *ShowRepo) OccupySeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, userID string, labels []string) error {
    if len(labels) == 0 {
        return nil
    }
    query := `INSERT INTO show_seats (show_id, seat_label, user_id) VALUES `
    args := make([]interface{}, 0, len(labels)*3)
    for i, label := range labels {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, showID, label, userID)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if strings.Contains(err.Error(), "1062") { // mysql duplicate entry
            return ErrSeatTaken
        }
        return err
    }
    return nil
}

// ReleaseSeatsTx removes the given labels from the show's occupancy map
// within the provided transaction.  Labels that are already absent are
// treated as already released, not as an error, so the hold-expiry process
// can safely run more than once.
func (r *ShowRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, labels []string) error {
    if len(labels) == 0 {
        return nil
    }
    placeholders := make([]string, len(labels))
    args := make([]interface{}, 0, len(labels)+1)
    args = append(args, showID)
    for i, label := range labels {
        placeholders[i] = "?"
        args = append(args, label)
    }
    _, err := tx.ExecContext(ctx,
        `DELETE FROM show_seats WHERE show_id = ? AND seat_label IN (`+strings.Join(placeholders, ",")+`)`,
        args...)
    return err
}

// ListUpcoming returns all shows starting at or after the given instant,
// ordered by start time ascending.
func (r *ShowRepo) ListUpcoming(ctx context.Context, now time.Time) ([]model.Show, error) {
    const q = `SELECT ` + showColumns + ` FROM shows WHERE show_datetime >= ? ORDER BY show_datetime ASC`
    return r.queryShows(ctx, q, now.UTC())
}

// ListUpcomingByMovie returns upcoming shows for one movie, ordered by
// start time ascending.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID uint64, now time.Time) ([]model.Show, error) {
    const q = `SELECT ` + showColumns + ` FROM shows WHERE movie_id = ? AND show_datetime >= ? ORDER BY show_datetime ASC`
    return r.queryShows(ctx, q, movieID, now.UTC())
}

// ListStartingBetween returns shows with a start time inside [from, to],
// ordered by start time ascending.  The reminder dispatcher uses this to
// find shows starting within its lookahead window.
func (r *ShowRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.Show, error) {
    const q = `SELECT ` + showColumns + ` FROM shows WHERE show_datetime >= ? AND show_datetime <= ? ORDER BY show_datetime ASC`
    return r.queryShows(ctx, q, from.UTC(), to.UTC())
}

func (r *ShowRepo) queryShows(ctx context.Context, q string, args ...any) ([]model.Show, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    shows := make([]model.Show, 0)
    for rows.Next() {
        s, err := scanShow(rows)
        if err != nil {
            return nil, err
        }
        shows = append(shows, *s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return shows, nil
}

// SeatHolders returns the distinct user IDs currently holding at least one
// seat on the given show.
func (r *ShowRepo) SeatHolders(ctx context.Context, showID uint64) ([]string, error) {
    const q = `SELECT DISTINCT user_id FROM show_seats WHERE show_id = ?`
    rows, err := r.db.QueryContext(ctx, q, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var userIDs []string
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        userIDs = append(userIDs, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return userIDs, nil
}

package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"

    "github.com/cinebook/cinebook/internal/model"
)

// MovieRepo provides access to the locally cached movie catalog.  Movies
// are write-once: they are inserted when first referenced and only read
// afterwards.  Genres and cast are persisted as JSON documents since they
// are always read back whole.
type MovieRepo struct {
    db *sql.DB
}

// NewMovieRepo returns a new MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, overview, poster_path, backdrop_path, genres, casts,
    release_date, runtime_minutes, vote_average, created_at`

func scanMovie(row interface{ Scan(...any) error }) (*model.Movie, error) {
    var m model.Movie
    var genres, casts []byte
    if err := row.Scan(&m.ID, &m.Title, &m.Overview, &m.PosterPath, &m.BackdropPath,
        &genres, &casts, &m.ReleaseDate, &m.RuntimeMinutes, &m.VoteAverage, &m.CreatedAt); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(genres, &m.Genres); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(casts, &m.Casts); err != nil {
        return nil, err
    }
    return &m, nil
}

// GetByID returns a single cached movie.  ErrMovieNotFound is returned when
// the movie has never been cached locally.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
    const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
    m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrMovieNotFound
    }
    return m, err
}

// Create inserts a movie fetched from the external catalog.  Inserting a
// movie that already exists is treated as success so that two concurrent
// first references do not fail; the existing row wins.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
    genres, err := json.Marshal(m.Genres)
    if err != nil {
        return err
    }
    casts, err := json.Marshal(m.Casts)
    if err != nil {
        return err
    }
    const q = `INSERT INTO movies (id, title, overview, poster_path, backdrop_path, genres, casts,
                release_date, runtime_minutes, vote_average)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = r.db.ExecContext(ctx, q, m.ID, m.Title, m.Overview, m.PosterPath, m.BackdropPath,
        genres, casts, m.ReleaseDate, m.RuntimeMinutes, m.VoteAverage)
    if err != nil && strings.Contains(err.Error(), "1062") { // duplicate key: already cached by a concurrent fetch
        return nil
    }
    return err
}

// ListByIDs returns the cached movies for the given catalog IDs, preserving
// the order of ids.  IDs without a local copy are silently skipped; the
// result may therefore be shorter than the input.
func (r *MovieRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Movie, error) {
    if len(ids) == 0 {
        return []model.Movie{}, nil
    }
    placeholders := make([]string, len(ids))
    args := make([]any, len(ids))
    for i, id := range ids {
        placeholders[i] = "?"
        args[i] = id
    }
    q := `SELECT ` + movieColumns + ` FROM movies WHERE id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    byID := make(map[uint64]model.Movie, len(ids))
    for rows.Next() {
        m, err := scanMovie(rows)
        if err != nil {
            return nil, err
        }
        byID[m.ID] = *m
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    out := make([]model.Movie, 0, len(byID))
    for _, id := range ids {
        if m, ok := byID[id]; ok {
            out = append(out, m)
        }
    }
    return out, nil
}

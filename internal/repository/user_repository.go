package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/cinebook/cinebook/internal/model"
)

// UserRepo maintains the local mirror of identity-provider records and the
// favorites join table.  Rows are only written by the identity-sync
// webhook; request handlers read them for notification addresses and
// favorite lists.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Upsert creates or refreshes a mirrored identity record.  The provider
// retries webhook deliveries, so create and update share one idempotent
// statement.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
    const q = `INSERT INTO users (id, name, email, image) VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE name = VALUES(name), email = VALUES(email), image = VALUES(image)`
    _, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Image)
    return err
}

// Delete removes a mirrored identity record along with its favorites.
// Deleting an unknown subject is not an error.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
    if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ?`, id); err != nil {
        return err
    }
    _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
    return err
}

// GetByID returns a mirrored user.  ErrUserNotFound is returned when the
// subject has never been synced.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
    const q = `SELECT id, name, email, image, created_at, updated_at FROM users WHERE id = ?`
    var u model.User
    err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt, &u.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// ListByIDs returns the mirrored users for the given subjects.  Unknown
// subjects are skipped.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
    if len(ids) == 0 {
        return []model.User{}, nil
    }
    placeholders := make([]string, len(ids))
    args := make([]any, len(ids))
    for i, id := range ids {
        placeholders[i] = "?"
        args[i] = id
    }
    q := `SELECT id, name, email, image, created_at, updated_at FROM users
          WHERE id IN (` + strings.Join(placeholders, ",") + `)`
    return r.queryUsers(ctx, q, args...)
}

// ListAll returns every mirrored user.  The new-show announcement fans out
// over this list.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
    const q = `SELECT id, name, email, image, created_at, updated_at FROM users ORDER BY created_at ASC`
    return r.queryUsers(ctx, q)
}

func (r *UserRepo) queryUsers(ctx context.Context, q string, args ...any) ([]model.User, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    users := make([]model.User, 0)
    for rows.Next() {
        var u model.User
        if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
            return nil, err
        }
        users = append(users, u)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return users, nil
}

// Count returns the number of mirrored users for the admin dashboard.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
    var n int64
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
    return n, err
}

// AddFavorite records a movie in the user's favorites set.  Adding an
// existing favorite is a no-op.
func (r *UserRepo) AddFavorite(ctx context.Context, userID string, movieID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT IGNORE INTO favorites (user_id, movie_id) VALUES (?, ?)`, userID, movieID)
    return err
}

// RemoveFavorite removes a movie from the user's favorites set.  Removing
// an absent favorite is a no-op.
func (r *UserRepo) RemoveFavorite(ctx context.Context, userID string, movieID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `DELETE FROM favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID)
    return err
}

// IsFavorite reports whether the movie is currently in the user's set.
func (r *UserRepo) IsFavorite(ctx context.Context, userID string, movieID uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// FavoriteMovieIDs returns the user's favorite movie IDs, oldest first.
func (r *UserRepo) FavoriteMovieIDs(ctx context.Context, userID string) ([]uint64, error) {
    const q = `SELECT movie_id FROM favorites WHERE user_id = ? ORDER BY created_at ASC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    ids := make([]uint64, 0)
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

// Package handler contains the HTTP handlers for the booking API.  Every
// handler returns JSON; errors use echo.Map{"error": ...} with a status
// code that reflects the failure class (400 bad input, 401/403 auth, 404
// missing, 409 seat conflict, 502 failing external collaborator).
package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/catalog"
    "github.com/cinebook/cinebook/internal/model"
    "github.com/cinebook/cinebook/internal/repository"
)

// userID extracts the authenticated user's ID stored by the auth
// middleware.  Routes behind JWTAuth always have it; a missing value is a
// wiring bug surfaced as 401.
func userID(c echo.Context) (string, error) {
    uid, ok := c.Get("user_id").(string)
    if !ok || uid == "" {
        return "", echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
    }
    return uid, nil
}

// getOrCreateMovie returns the locally cached movie, fetching and
// persisting it from the external catalog on first reference.  A catalog
// failure on the first fetch is surfaced; nothing is persisted partially.
func getOrCreateMovie(ctx context.Context, movies *repository.MovieRepo, cat *catalog.Client, id uint64) (*model.Movie, error) {
    m, err := movies.GetByID(ctx, id)
    if err == nil {
        return m, nil
    }
    if !errors.Is(err, repository.ErrMovieNotFound) {
        return nil, err
    }
    m, err = cat.FetchMovie(ctx, id)
    if err != nil {
        return nil, err
    }
    if err := movies.Create(ctx, m); err != nil {
        return nil, err
    }
    return m, nil
}

package handler

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/cache"
    "github.com/cinebook/cinebook/internal/catalog"
    "github.com/cinebook/cinebook/internal/repository"
)

// maxRecommendations bounds the personalized listing.
const maxRecommendations = 10

// UserHandler serves the authenticated user's bookings, favorites and
// personalized recommendations.
type UserHandler struct {
    Users       *repository.UserRepo
    Bookings    *repository.BookingRepo
    Movies      *repository.MovieRepo
    Shows       *repository.ShowRepo
    Catalog     *catalog.Client
    Recommender *catalog.Recommender
    Cache       cache.Cache
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *repository.UserRepo, bookings *repository.BookingRepo, movies *repository.MovieRepo, shows *repository.ShowRepo, cat *catalog.Client, rec *catalog.Recommender, c cache.Cache) *UserHandler {
    return &UserHandler{Users: users, Bookings: bookings, Movies: movies, Shows: shows, Catalog: cat, Recommender: rec, Cache: c}
}

// MyBookings lists the caller's bookings with show and movie details,
// newest first.
func (h *UserHandler) MyBookings(c echo.Context) error {
    uid, err := userID(c)
    if err != nil {
        return err
    }
    bookings, err := h.Bookings.ListByUser(c.Request().Context(), uid)
    if err != nil {
        log.Printf("user: list bookings for %s failed: %v", uid, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

type updateFavoriteRequest struct {
    MovieID uint64 `json:"movie_id"`
}

// UpdateFavorite toggles a movie in the caller's favorites.  The movie is
// fetched from the catalog and cached locally on first reference so the
// favorites list can always be rendered from local data.
func (h *UserHandler) UpdateFavorite(c echo.Context) error {
    uid, err := userID(c)
    if err != nil {
        return err
    }
    var req updateFavoriteRequest
    if err := c.Bind(&req); err != nil || req.MovieID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id is required"})
    }
    ctx := c.Request().Context()

    if _, err := getOrCreateMovie(ctx, h.Movies, h.Catalog, req.MovieID); err != nil {
        log.Printf("user: ensure movie %d failed: %v", req.MovieID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not load movie from catalog"})
    }

    favorited, err := h.Users.IsFavorite(ctx, uid, req.MovieID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update favorite"})
    }
    if favorited {
        err = h.Users.RemoveFavorite(ctx, uid, req.MovieID)
    } else {
        err = h.Users.AddFavorite(ctx, uid, req.MovieID)
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update favorite"})
    }
    return c.JSON(http.StatusOK, echo.Map{"favorited": !favorited})
}

// Favorites lists the caller's favorite movies.
func (h *UserHandler) Favorites(c echo.Context) error {
    uid, err := userID(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()
    ids, err := h.Users.FavoriteMovieIDs(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load favorites"})
    }
    movies, err := h.Movies.ListByIDs(ctx, ids)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load favorites"})
    }
    return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// Recommendations returns up to maxRecommendations watchable movies for
// the caller.  The external recommender ranks first; its output is
// filtered to movies with at least one upcoming show, then padded from the
// now-playing set and finally from the remaining active movies, so the
// listing is never empty while anything is bookable.
func (h *UserHandler) Recommendations(c echo.Context) error {
    uid, err := userID(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()

    active, err := h.activeMovieIDs(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load recommendations"})
    }

    var recommended []uint64
    if favIDs, err := h.Users.FavoriteMovieIDs(ctx, uid); err == nil && len(favIDs) > 0 {
        recommended, err = h.Recommender.Recommend(ctx, favIDs)
        if err != nil {
            log.Printf("user: recommender failed for %s: %v", uid, err)
            recommended = nil
        }
    }

    activeSet := make(map[uint64]bool, len(active))
    for _, id := range active {
        activeSet[id] = true
    }

    picked := make([]uint64, 0, maxRecommendations)
    pickedSet := make(map[uint64]bool)
    for _, id := range recommended {
        if len(picked) == maxRecommendations {
            break
        }
        if activeSet[id] && !pickedSet[id] {
            pickedSet[id] = true
            picked = append(picked, id)
        }
    }
    for _, id := range h.nowPlayingIDs(ctx) {
        if len(picked) == maxRecommendations {
            break
        }
        if activeSet[id] && !pickedSet[id] {
            pickedSet[id] = true
            picked = append(picked, id)
        }
    }
    for _, id := range active {
        if len(picked) == maxRecommendations {
            break
        }
        if !pickedSet[id] {
            pickedSet[id] = true
            picked = append(picked, id)
        }
    }

    movies, err := h.Movies.ListByIDs(ctx, picked)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load recommendations"})
    }
    return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// nowPlayingIDs returns the catalog's now-playing movie IDs, cached for
// ten minutes.  Catalog failure degrades to an empty set; the caller has
// further fallbacks.
func (h *UserHandler) nowPlayingIDs(ctx context.Context) []uint64 {
    const key = "catalog:now_playing_ids"
    if b, ok := h.Cache.Get(ctx, key); ok {
        var ids []uint64
        if err := json.Unmarshal(b, &ids); err == nil {
            return ids
        }
    }
    if h.Catalog == nil {
        return nil
    }
    movies, err := h.Catalog.NowPlaying(ctx)
    if err != nil {
        log.Printf("user: now-playing fetch failed: %v", err)
        return nil
    }
    ids := make([]uint64, 0, len(movies))
    for _, m := range movies {
        ids = append(ids, m.ID)
    }
    if b, err := json.Marshal(ids); err == nil {
        h.Cache.Set(ctx, key, b, 10*time.Minute)
    }
    return ids
}

// activeMovieIDs returns the distinct movies with an upcoming show,
// ordered by earliest screening.
func (h *UserHandler) activeMovieIDs(ctx context.Context) ([]uint64, error) {
    shows, err := h.Shows.ListUpcoming(ctx, time.Now().UTC())
    if err != nil {
        return nil, err
    }
    seen := make(map[uint64]bool)
    var ids []uint64
    for _, s := range shows {
        if !seen[s.MovieID] {
            seen[s.MovieID] = true
            ids = append(ids, s.MovieID)
        }
    }
    return ids, nil
}

package handler

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "sort"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/cache"
    "github.com/cinebook/cinebook/internal/catalog"
    "github.com/cinebook/cinebook/internal/model"
    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
)

// ShowHandler serves show scheduling and the public show/catalog listings.
type ShowHandler struct {
    Movies  *repository.MovieRepo
    Shows   *repository.ShowRepo
    Catalog *catalog.Client
    Cache   cache.Cache
}

// NewShowHandler constructs a ShowHandler.
func NewShowHandler(movies *repository.MovieRepo, shows *repository.ShowRepo, cat *catalog.Client, c cache.Cache) *ShowHandler {
    return &ShowHandler{Movies: movies, Shows: shows, Catalog: cat, Cache: c}
}

// cachedJSON serves the cached response body for key when present,
// otherwise builds it with fn, caches it and serves it.  Cache failures
// degrade to building on every request.
func cachedJSON(c echo.Context, store cache.Cache, key string, ttl time.Duration, fn func(ctx context.Context) (any, error)) error {
    ctx := c.Request().Context()
    if body, ok := store.Get(ctx, key); ok {
        return c.JSONBlob(http.StatusOK, body)
    }
    payload, err := fn(ctx)
    if err != nil {
        return err
    }
    body, err := json.Marshal(payload)
    if err != nil {
        return err
    }
    store.Set(ctx, key, body, ttl)
    return c.JSONBlob(http.StatusOK, body)
}

// NowPlaying proxies the catalog's now-playing list for the admin's
// add-show picker.
func (h *ShowHandler) NowPlaying(c echo.Context) error {
    err := cachedJSON(c, h.Cache, "catalog:now_playing", 10*time.Minute, func(ctx context.Context) (any, error) {
        movies, err := h.Catalog.NowPlaying(ctx)
        if err != nil {
            return nil, err
        }
        return echo.Map{"movies": movies}, nil
    })
    if err != nil {
        log.Printf("show: now-playing fetch failed: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie catalog unavailable"})
    }
    return nil
}

// UpcomingReleases proxies the catalog's upcoming list.
func (h *ShowHandler) UpcomingReleases(c echo.Context) error {
    err := cachedJSON(c, h.Cache, "catalog:upcoming", 10*time.Minute, func(ctx context.Context) (any, error) {
        movies, err := h.Catalog.Upcoming(ctx)
        if err != nil {
            return nil, err
        }
        return echo.Map{"movies": movies}, nil
    })
    if err != nil {
        log.Printf("show: upcoming fetch failed: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie catalog unavailable"})
    }
    return nil
}

// SearchMovies runs a title search against the catalog.
func (h *ShowHandler) SearchMovies(c echo.Context) error {
    q := c.QueryParam("query")
    if q == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "query is required"})
    }
    movies, err := h.Catalog.Search(c.Request().Context(), q)
    if err != nil {
        log.Printf("show: search %q failed: %v", q, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie catalog unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// DiscoverByLanguage lists popular catalog movies for one original
// language.
func (h *ShowHandler) DiscoverByLanguage(c echo.Context) error {
    lang := c.QueryParam("language")
    if lang == "" {
        lang = "hi"
    }
    err := cachedJSON(c, h.Cache, "catalog:discover:"+lang, 10*time.Minute, func(ctx context.Context) (any, error) {
        movies, err := h.Catalog.DiscoverByLanguage(ctx, lang)
        if err != nil {
            return nil, err
        }
        return echo.Map{"movies": movies}, nil
    })
    if err != nil {
        log.Printf("show: discover %q failed: %v", lang, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie catalog unavailable"})
    }
    return nil
}

// MovieVideos returns the catalog's trailer references for a movie.
func (h *ShowHandler) MovieVideos(c echo.Context) error {
    movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    videos, err := h.Catalog.Videos(c.Request().Context(), movieID)
    if err != nil {
        log.Printf("show: videos for %d failed: %v", movieID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie catalog unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"videos": videos})
}

type showSlotInput struct {
    Date  string   `json:"date"`  // YYYY-MM-DD
    Times []string `json:"times"` // HH:MM, 24h
}

type addShowRequest struct {
    MovieID        uint64          `json:"movie_id"`
    ShowsInput     []showSlotInput `json:"shows_input"`
    ShowPriceCents uint32          `json:"show_price_cents"`
}

// AddShow schedules screenings for a movie: the (date × times) input is
// expanded into one show per slot, all at the same price.  The movie is
// fetched from the catalog and cached locally on first reference.
func (h *ShowHandler) AddShow(c echo.Context) error {
    var req addShowRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.MovieID == 0 || req.ShowPriceCents == 0 || len(req.ShowsInput) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, show_price_cents and shows_input are required"})
    }

    ctx := c.Request().Context()
    movie, err := getOrCreateMovie(ctx, h.Movies, h.Catalog, req.MovieID)
    if err != nil {
        log.Printf("show: ensure movie %d failed: %v", req.MovieID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not load movie from catalog"})
    }

    var shows []model.Show
    for _, slot := range req.ShowsInput {
        for _, t := range slot.Times {
            when, err := time.ParseInLocation("2006-01-02T15:04", slot.Date+"T"+t, time.UTC)
            if err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date or time: " + slot.Date + " " + t})
            }
            shows = append(shows, model.Show{
                MovieID:      movie.ID,
                ShowDateTime: when,
                PriceCents:   req.ShowPriceCents,
            })
        }
    }
    if len(shows) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no show times provided"})
    }

    if err := h.Shows.CreateBulk(ctx, shows); err != nil {
        log.Printf("show: create shows for movie %d failed: %v", movie.ID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create shows"})
    }

    // Announcement fan-out is best effort; a broker outage never fails the
    // admin action.
    _ = queue.PublishShowAdded(ctx, queue.ShowAddedEvent{
        MovieID:    movie.ID,
        MovieTitle: movie.Title,
        AddedAt:    time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusCreated, echo.Map{"message": "shows added", "count": len(shows)})
}

// ListShows returns the distinct movies that have at least one upcoming
// show, ordered by their earliest upcoming screening.
func (h *ShowHandler) ListShows(c echo.Context) error {
    err := cachedJSON(c, h.Cache, "shows:list", time.Minute, func(ctx context.Context) (any, error) {
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
        movies, err := h.Movies.ListByIDs(ctx, ids)
        if err != nil {
            return nil, err
        }
        return echo.Map{"movies": movies}, nil
    })
    if err != nil {
        log.Printf("show: list shows failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list shows"})
    }
    return nil
}

type showSlot struct {
    Time   time.Time `json:"time"`
    ShowID uint64    `json:"show_id"`
}

// GetShow returns one movie together with its upcoming screenings grouped
// by date.
func (h *ShowHandler) GetShow(c echo.Context) error {
    movieID, err := strconv.ParseUint(c.Param("movieId"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    ctx := c.Request().Context()

    movie, err := h.Movies.GetByID(ctx, movieID)
    if errors.Is(err, repository.ErrMovieNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movie"})
    }

    shows, err := h.Shows.ListUpcomingByMovie(ctx, movieID, time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load shows"})
    }

    byDate := make(map[string][]showSlot)
    for _, s := range shows {
        date := s.ShowDateTime.UTC().Format("2006-01-02")
        byDate[date] = append(byDate[date], showSlot{Time: s.ShowDateTime, ShowID: s.ID})
    }
    for _, slots := range byDate {
        sort.Slice(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
    }

    return c.JSON(http.StatusOK, echo.Map{"movie": movie, "date_time": byDate})
}

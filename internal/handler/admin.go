package handler

import (
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/model"
    "github.com/cinebook/cinebook/internal/repository"
)

// AdminHandler serves the administrative dashboard and listings.  All of
// its routes sit behind the admin role check.
type AdminHandler struct {
    Users    *repository.UserRepo
    Movies   *repository.MovieRepo
    Shows    *repository.ShowRepo
    Bookings *repository.BookingRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(users *repository.UserRepo, movies *repository.MovieRepo, shows *repository.ShowRepo, bookings *repository.BookingRepo) *AdminHandler {
    return &AdminHandler{Users: users, Movies: movies, Shows: shows, Bookings: bookings}
}

// IsAdmin confirms the caller passed the role check.  The front end probes
// this before showing admin navigation.
func (h *AdminHandler) IsAdmin(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"is_admin": true})
}

// adminShow is a show joined with its movie for the admin listings.
type adminShow struct {
    Show  model.Show   `json:"show"`
    Movie *model.Movie `json:"movie,omitempty"`
}

// Dashboard aggregates paid-booking count, revenue, upcoming shows and
// the registered user count.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    ctx := c.Request().Context()

    paidCount, revenueCents, err := h.Bookings.PaidStats(ctx)
    if err != nil {
        log.Printf("admin: paid stats failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
    }
    shows, err := h.upcomingWithMovies(c)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
    }
    userCount, err := h.Users.Count(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "total_bookings": paidCount,
        "revenue_cents":  revenueCents,
        "active_shows":   shows,
        "total_users":    userCount,
    })
}

// AllShows lists every upcoming show with its movie.
func (h *AdminHandler) AllShows(c echo.Context) error {
    shows, err := h.upcomingWithMovies(c)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load shows"})
    }
    return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// AllBookings lists every booking with show and movie details.
func (h *AdminHandler) AllBookings(c echo.Context) error {
    bookings, err := h.Bookings.ListAll(c.Request().Context())
    if err != nil {
        log.Printf("admin: list bookings failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

func (h *AdminHandler) upcomingWithMovies(c echo.Context) ([]adminShow, error) {
    ctx := c.Request().Context()
    shows, err := h.Shows.ListUpcoming(ctx, time.Now().UTC())
    if err != nil {
        log.Printf("admin: list upcoming shows failed: %v", err)
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
        log.Printf("admin: load movies for shows failed: %v", err)
        return nil, err
    }
    byID := make(map[uint64]*model.Movie, len(movies))
    for i := range movies {
        byID[movies[i].ID] = &movies[i]
    }
    out := make([]adminShow, 0, len(shows))
    for _, s := range shows {
        out = append(out, adminShow{Show: s, Movie: byID[s.MovieID]})
    }
    return out, nil
}

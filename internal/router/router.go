// Package router wires the HTTP routes to their handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/cinebook/cinebook/internal/config"
    "github.com/cinebook/cinebook/internal/handler"
    "github.com/cinebook/cinebook/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
    Shows           *handler.ShowHandler
    Bookings        *handler.BookingHandler
    Users           *handler.UserHandler
    Admin           *handler.AdminHandler
    PaymentWebhook  *handler.PaymentWebhookHandler
    IdentityWebhook *handler.IdentityWebhookHandler
}

// Register wires all routes.  Webhooks are unauthenticated (each verifies
// its own signature); browse endpoints are public; booking and user
// endpoints require a valid token; admin endpoints additionally require
// the admin role.  The token-bucket limiter shields the booking and
// catalog-proxy paths.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    // Webhooks verify their own signatures and must see the raw body.
    e.POST("/api/payments/webhook", h.PaymentWebhook.Handle)
    e.POST("/api/identity/webhook", h.IdentityWebhook.Handle)

    limiter := middleware.NewTokenBucket(rlCfg, rdb)

    // Public browse endpoints.
    pub := e.Group("/api/show", limiter)
    pub.GET("/all", h.Shows.ListShows)
    pub.GET("/upcoming", h.Shows.UpcomingReleases)
    pub.GET("/search", h.Shows.SearchMovies)
    pub.GET("/discover", h.Shows.DiscoverByLanguage)
    pub.GET("/videos/:id", h.Shows.MovieVideos)
    pub.GET("/:movieId", h.Shows.GetShow)

    e.GET("/api/booking/seats/:showId", h.Bookings.OccupiedSeats, limiter)

    // Authenticated endpoints.
    auth := e.Group("/api", middleware.JWTAuth(jwtSecret))
    auth.POST("/booking/create", h.Bookings.Create, limiter)
    auth.GET("/user/bookings", h.Users.MyBookings)
    auth.POST("/user/update-favorite", h.Users.UpdateFavorite)
    auth.GET("/user/favorites", h.Users.Favorites)
    auth.GET("/user/recommendations", h.Users.Recommendations)

    // Admin endpoints.
    admin := auth.Group("/admin", middleware.RequireRole("admin"))
    admin.GET("/is-admin", h.Admin.IsAdmin)
    admin.GET("/dashboard", h.Admin.Dashboard)
    admin.GET("/all-shows", h.Admin.AllShows)
    admin.GET("/all-bookings", h.Admin.AllBookings)
    admin.GET("/now-playing", h.Shows.NowPlaying)
    admin.POST("/add-show", h.Shows.AddShow)
}

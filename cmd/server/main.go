package main

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/cinebook/cinebook/internal/cache"
    "github.com/cinebook/cinebook/internal/catalog"
    "github.com/cinebook/cinebook/internal/config"
    "github.com/cinebook/cinebook/internal/database"
    "github.com/cinebook/cinebook/internal/handler"
    "github.com/cinebook/cinebook/internal/mailer"
    "github.com/cinebook/cinebook/internal/payment"
    "github.com/cinebook/cinebook/internal/repository"
    "github.com/cinebook/cinebook/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments set the environment directly
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if err := database.EnsureSchema(context.Background(), db); err != nil {
        log.Fatalf("database schema: %v", err)
    }

    rdb := config.NewRedisClient()
    store := cache.NewRedis(rdb, "cinebook")

    movies := repository.NewMovieRepo(db)
    shows := repository.NewShowRepo(db)
    bookings := repository.NewBookingRepo(db)
    users := repository.NewUserRepo(db)

    cat := catalog.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey)
    rec := catalog.NewRecommender(cfg.RecommenderURL)
    gateway := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)

    // The server never sends mail directly; it is constructed here only to
    // fail fast on broken transport configuration.
    if _, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom); err != nil {
        log.Fatalf("mailer: %v", err)
    }

    holdTTL := time.Duration(cfg.HoldTTLMin) * time.Minute

    h := router.Handlers{
        Shows:           handler.NewShowHandler(movies, shows, cat, store),
        Bookings:        handler.NewBookingHandler(db, shows, bookings, movies, gateway, holdTTL),
        Users:           handler.NewUserHandler(users, bookings, movies, shows, cat, rec, store),
        Admin:           handler.NewAdminHandler(users, movies, shows, bookings),
        PaymentWebhook:  handler.NewPaymentWebhookHandler(gateway, bookings),
        IdentityWebhook: handler.NewIdentityWebhookHandler(users, cfg.IdentityWebhookSecret),
    }

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(echomw.CORS())

    router.Register(e, h, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

// The worker hosts every background process: the hold-expiry consumer and
// sweep, the show reminder scheduler and the notification email
// consumers.  It shares the database schema and configuration with the
// API server but runs as a separate binary so email and broker trouble
// never slow the request path.
package main

import (
    "context"
    "log"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"

    "github.com/cinebook/cinebook/internal/config"
    "github.com/cinebook/cinebook/internal/database"
    "github.com/cinebook/cinebook/internal/mailer"
    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
    "github.com/cinebook/cinebook/internal/worker"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if err := database.EnsureSchema(ctx, db); err != nil {
        log.Fatalf("database schema: %v", err)
    }

    mail, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
    if err != nil {
        log.Fatalf("mailer: %v", err)
    }

    movies := repository.NewMovieRepo(db)
    shows := repository.NewShowRepo(db)
    bookings := repository.NewBookingRepo(db)
    users := repository.NewUserRepo(db)

    expirer := &worker.Expirer{DB: db, Bookings: bookings, Shows: shows}
    notifier := &worker.Notifier{Bookings: bookings, Shows: shows, Movies: movies, Users: users, Mail: mail}
    reminder := worker.NewReminder(shows, movies, users, mail)

    go func() {
        if err := queue.Consume(queue.ExpiryQueue, expirer.HandleExpiryMessage); err != nil {
            log.Fatalf("expiry consumer: %v", err)
        }
    }()
    go func() {
        if err := queue.Consume(queue.ConfirmedQueue, notifier.HandleBookingConfirmed); err != nil {
            log.Fatalf("confirmed consumer: %v", err)
        }
    }()
    go func() {
        if err := queue.Consume(queue.ShowAddedQueue, notifier.HandleShowAdded); err != nil {
            log.Fatalf("show-added consumer: %v", err)
        }
    }()

    // The sweep is the authoritative expiry path; the broker message only
    // makes it timely.
    go expirer.RunSweeper(ctx, 30*time.Second)
    go reminder.RunScheduler(ctx, 8*time.Hour)

    log.Printf("worker running (env=%s)", cfg.Env)
    <-ctx.Done()
    log.Println("worker shutting down")
}

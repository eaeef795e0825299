package worker

import (
    "context"
    "log"
    "time"

    "github.com/cinebook/cinebook/internal/mailer"
    "github.com/cinebook/cinebook/internal/repository"
)

// Reminder mails every seat holder of shows starting within the lookahead
// window.  One failed send never blocks the rest of the fan-out.
type Reminder struct {
    Shows  *repository.ShowRepo
    Movies *repository.MovieRepo
    Users  *repository.UserRepo
    Mail   mailer.Mailer

    // Lookahead bounds the reminder window [now, now+Lookahead).
    Lookahead time.Duration

    now func() time.Time // overridable in tests
}

// NewReminder returns a Reminder with the default eight hour window.
func NewReminder(shows *repository.ShowRepo, movies *repository.MovieRepo, users *repository.UserRepo, mail mailer.Mailer) *Reminder {
    return &Reminder{
        Shows:     shows,
        Movies:    movies,
        Users:     users,
        Mail:      mail,
        Lookahead: 8 * time.Hour,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// RunOnce sends reminders for all shows starting within the window and
// returns the number of emails sent and the number that failed.
func (r *Reminder) RunOnce(ctx context.Context) (sent, failed int, err error) {
    from := r.now()
    to := from.Add(r.Lookahead)
    shows, err := r.Shows.ListStartingBetween(ctx, from, to)
    if err != nil {
        return 0, 0, err
    }

    for _, show := range shows {
        movie, err := r.Movies.GetByID(ctx, show.MovieID)
        if err != nil {
            log.Printf("reminder: load movie %d for show %d failed: %v", show.MovieID, show.ID, err)
            continue
        }
        holders, err := r.Shows.SeatHolders(ctx, show.ID)
        if err != nil {
            log.Printf("reminder: seat holders for show %d failed: %v", show.ID, err)
            continue
        }
        if len(holders) == 0 {
            continue
        }
        users, err := r.Users.ListByIDs(ctx, holders)
        if err != nil {
            log.Printf("reminder: load users for show %d failed: %v", show.ID, err)
            continue
        }
        for _, u := range users {
            subject, body, err := mailer.ReminderEmail(u.Name, movie.Title, show.ShowDateTime)
            if err != nil {
                failed++
                continue
            }
            if err := r.Mail.Send(ctx, u.Email, subject, body); err != nil {
                log.Printf("reminder: send to %s for show %d failed: %v", u.Email, show.ID, err)
                failed++
                continue
            }
            sent++
        }
    }
    return sent, failed, nil
}

// RunScheduler invokes RunOnce every interval until the context is
// cancelled.
func (r *Reminder) RunScheduler(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
        }
        sent, failed, err := r.RunOnce(ctx)
        if err != nil {
            log.Printf("reminder: run failed: %v", err)
            continue
        }
        log.Printf("reminder: sent %d reminder(s), %d failed", sent, failed)
    }
}

package worker

import (
    "context"
    "encoding/json"
    "errors"
    "log"

    "github.com/cinebook/cinebook/internal/mailer"
    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
)

// Notifier consumes booking.confirmed and show.added events and sends the
// corresponding emails.  Both handlers tolerate duplicate deliveries: the
// worst outcome of a replay is a duplicate email, never corrupted state.
type Notifier struct {
    Bookings *repository.BookingRepo
    Shows    *repository.ShowRepo
    Movies   *repository.MovieRepo
    Users    *repository.UserRepo
    Mail     mailer.Mailer
}

// HandleBookingConfirmed sends the payment-confirmation email for one
// booking.  A booking that no longer exists is treated as resolved.
func (n *Notifier) HandleBookingConfirmed(body []byte) error {
    var ev queue.BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return err
    }
    ctx := context.Background()

    b, err := n.Bookings.GetByID(ctx, ev.BookingID)
    if errors.Is(err, repository.ErrBookingNotFound) {
        log.Printf("notify: booking %d gone, skipping confirmation email", ev.BookingID)
        return nil
    }
    if err != nil {
        return err
    }
    show, err := n.Shows.GetByID(ctx, b.ShowID)
    if err != nil {
        return err
    }
    movie, err := n.Movies.GetByID(ctx, show.MovieID)
    if err != nil {
        return err
    }
    user, err := n.Users.GetByID(ctx, b.UserID)
    if err != nil {
        return err
    }

    subject, bodyHTML, err := mailer.ConfirmationEmail(user.Name, movie.Title, show.ShowDateTime, b.BookedSeats, b.AmountCents)
    if err != nil {
        return err
    }
    return n.Mail.Send(ctx, user.Email, subject, bodyHTML)
}

// HandleShowAdded announces a newly scheduled movie to every registered
// user.  Partial failures are logged and do not fail the delivery; the
// fan-out is best effort.
func (n *Notifier) HandleShowAdded(body []byte) error {
    var ev queue.ShowAddedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return err
    }
    ctx := context.Background()

    users, err := n.Users.ListAll(ctx)
    if err != nil {
        return err
    }
    failed := 0
    for _, u := range users {
        subject, bodyHTML, err := mailer.NewShowEmail(u.Name, ev.MovieTitle)
        if err != nil {
            failed++
            continue
        }
        if err := n.Mail.Send(ctx, u.Email, subject, bodyHTML); err != nil {
            log.Printf("notify: announce %q to %s failed: %v", ev.MovieTitle, u.Email, err)
            failed++
        }
    }
    log.Printf("notify: announced %q to %d user(s), %d failed", ev.MovieTitle, len(users)-failed, failed)
    return nil
}

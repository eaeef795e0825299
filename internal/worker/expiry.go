// Package worker hosts the background processes: hold-expiry release,
// show reminders and the email consumers for booking confirmations and
// new-show announcements.
package worker

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "log"
    "time"

    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
)

// Expirer releases the seats of bookings whose hold window elapsed without
// payment.  It is fed from two directions that funnel into the same
// idempotent release path: the broker's dead-lettered delay messages
// (timely) and a periodic sweep over bookings.expires_at (authoritative,
// survives broker loss and process restarts).
type Expirer struct {
    DB       *sql.DB
    Bookings *repository.BookingRepo
    Shows    *repository.ShowRepo
}

// ReleaseExpiredBooking re-reads the booking and, if it still exists and
// remains unpaid, removes its seats from the show occupancy map and
// deletes the booking, all in one transaction under a row lock.  A missing
// or paid booking makes the call a no-op, so duplicate deliveries and the
// sweep racing the broker message are both harmless.
func (e *Expirer) ReleaseExpiredBooking(ctx context.Context, bookingID uint64) error {
    tx, err := e.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := e.Bookings.LockTx(ctx, tx, bookingID)
    if errors.Is(err, repository.ErrBookingNotFound) {
        return nil // already released
    }
    if err != nil {
        return err
    }
    if b.IsPaid {
        return nil // payment won the race, hold stands
    }

    if err := e.Shows.ReleaseSeatsTx(ctx, tx, b.ShowID, b.BookedSeats); err != nil {
        return err
    }
    if err := e.Bookings.DeleteTx(ctx, tx, b.ID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    log.Printf("expiry: released booking %d (show %d, %d seats)", b.ID, b.ShowID, len(b.BookedSeats))
    return nil
}

// HandleExpiryMessage processes one dead-lettered hold message from the
// expiry queue.
func (e *Expirer) HandleExpiryMessage(body []byte) error {
    var ev queue.BookingCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return err
    }
    return e.ReleaseExpiredBooking(context.Background(), ev.BookingID)
}

// Sweep releases every booking that is past its hold deadline and still
// unpaid.  It returns the number of bookings released.  Individual release
// failures are logged and do not stop the batch.
func (e *Expirer) Sweep(ctx context.Context, now time.Time, limit int) (int, error) {
    ids, err := e.Bookings.DueUnpaidIDs(ctx, now, limit)
    if err != nil {
        return 0, err
    }
    released := 0
    for _, id := range ids {
        if err := e.ReleaseExpiredBooking(ctx, id); err != nil {
            log.Printf("expiry: sweep release booking %d failed: %v", id, err)
            continue
        }
        released++
    }
    return released, nil
}

// RunSweeper runs Sweep on a fixed interval until the context is
// cancelled.  It runs once immediately so expired holds left behind by a
// restart are cleared right away.
func (e *Expirer) RunSweeper(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        if _, err := e.Sweep(ctx, time.Now().UTC(), 200); err != nil {
            log.Printf("expiry: sweep failed: %v", err)
        }
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
        }
    }
}

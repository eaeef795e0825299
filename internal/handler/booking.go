package handler

import (
    "database/sql"
    "errors"
    "log"
    "net/http"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/model"
    "github.com/cinebook/cinebook/internal/payment"
    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
)

// BookingHandler serves seat acquisition and the occupancy lookup.
type BookingHandler struct {
    DB       *sql.DB
    Shows    *repository.ShowRepo
    Bookings *repository.BookingRepo
    Movies   *repository.MovieRepo
    Gateway  payment.Gateway
    HoldTTL  time.Duration
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(db *sql.DB, shows *repository.ShowRepo, bookings *repository.BookingRepo, movies *repository.MovieRepo, gw payment.Gateway, holdTTL time.Duration) *BookingHandler {
    return &BookingHandler{DB: db, Shows: shows, Bookings: bookings, Movies: movies, Gateway: gw, HoldTTL: holdTTL}
}

type createBookingRequest struct {
    ShowID     uint64   `json:"show_id"`
    SeatLabels []string `json:"seat_labels"`
}

// Create books the requested seats on a show.  The show row is locked and
// the occupancy inserts happen in one transaction, so two users racing for
// the same seat cannot both win; the loser gets 409 and no partial state.
// After the booking is committed a checkout session is opened and the
// hold-expiry message is scheduled.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := userID(c)
    if err != nil {
        return err
    }

    var req createBookingRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    labels := normalizeSeats(req.SeatLabels)
    if req.ShowID == 0 || len(labels) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id and seat_labels are required"})
    }

    ctx := c.Request().Context()
    now := time.Now().UTC()
    expiresAt := now.Add(h.HoldTTL)

    tx, err := h.DB.BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start booking"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    show, err := h.Shows.LockTx(ctx, tx, req.ShowID)
    if errors.Is(err, repository.ErrShowNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load show"})
    }

    if err := h.Shows.OccupySeatsTx(ctx, tx, show.ID, uid, labels); err != nil {
        if errors.Is(err, repository.ErrSeatTaken) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "one or more selected seats are already taken"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reserve seats"})
    }

    booking := &model.Booking{
        PublicRef:   uuid.NewString(),
        ShowID:      show.ID,
        UserID:      uid,
        BookedSeats: labels,
        AmountCents: show.PriceCents * uint32(len(labels)),
        ExpiresAt:   expiresAt,
    }
    if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
    }
    committed = true

    // The hold now exists regardless of what happens below; the expiry
    // process reclaims the seats if payment never completes.
    _ = queue.PublishBookingCreated(ctx, queue.BookingCreatedEvent{
        BookingID: booking.ID,
        ExpiresAt: expiresAt.Format(time.RFC3339),
    }, h.HoldTTL)

    title := "Movie tickets"
    if movie, err := h.Movies.GetByID(ctx, show.MovieID); err == nil {
        title = movie.Title
    }

    paymentURL, err := h.Gateway.CreateCheckout(ctx, payment.CheckoutInput{
        BookingRef:      booking.PublicRef,
        MovieTitle:      title,
        UnitAmountCents: int64(show.PriceCents),
        SeatCount:       int64(len(labels)),
        ExpiresAt:       now.Add(30 * time.Minute), // processor minimum session lifetime
    })
    if err != nil {
        log.Printf("booking: checkout for booking %d failed: %v", booking.ID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment session could not be created"})
    }
    if err := h.Bookings.SetPaymentLink(ctx, booking.ID, paymentURL); err != nil {
        log.Printf("booking: store payment link for booking %d failed: %v", booking.ID, err)
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   booking.ID,
        "public_ref":   booking.PublicRef,
        "amount_cents": booking.AmountCents,
        "expires_at":   expiresAt,
        "payment_url":  paymentURL,
    })
}

// OccupiedSeats returns the seat labels currently held on a show, sorted
// for stable output.
func (h *BookingHandler) OccupiedSeats(c echo.Context) error {
    showID, err := strconv.ParseUint(c.Param("showId"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    ctx := c.Request().Context()

    if _, err := h.Shows.GetByID(ctx, showID); err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load show"})
    }

    occupied, err := h.Shows.OccupiedSeats(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seats"})
    }
    labels := make([]string, 0, len(occupied))
    for label := range occupied {
        labels = append(labels, label)
    }
    sort.Strings(labels)
    return c.JSON(http.StatusOK, echo.Map{"occupied_seats": labels})
}

// normalizeSeats trims, drops empties and deduplicates seat labels while
// preserving the order the user picked them in.
func normalizeSeats(labels []string) []string {
    seen := make(map[string]bool, len(labels))
    out := make([]string, 0, len(labels))
    for _, l := range labels {
        l = strings.ToUpper(strings.TrimSpace(l))
        if l == "" || seen[l] {
            continue
        }
        seen[l] = true
        out = append(out, l)
    }
    return out
}

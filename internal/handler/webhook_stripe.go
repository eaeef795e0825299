package handler

import (
    "errors"
    "io"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinebook/cinebook/internal/payment"
    "github.com/cinebook/cinebook/internal/queue"
    "github.com/cinebook/cinebook/internal/repository"
)

// PaymentWebhookHandler receives payment processor notifications.  An
// unverifiable payload mutates nothing and is rejected with 400; only a
// signed payment-succeeded event can flip a booking to paid.
type PaymentWebhookHandler struct {
    Gateway  payment.Gateway
    Bookings *repository.BookingRepo
}

// NewPaymentWebhookHandler constructs a PaymentWebhookHandler.
func NewPaymentWebhookHandler(gw payment.Gateway, bookings *repository.BookingRepo) *PaymentWebhookHandler {
    return &PaymentWebhookHandler{Gateway: gw, Bookings: bookings}
}

// Handle verifies and processes one webhook delivery.  Marking a booking
// paid is idempotent, so processor retries and duplicate deliveries are
// safe.
func (h *PaymentWebhookHandler) Handle(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable payload"})
    }

    event, err := h.Gateway.VerifyEvent(body, c.Request().Header.Get("Stripe-Signature"))
    if err != nil {
        log.Printf("payment-webhook: signature verification failed: %v", err)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
    }

    // Unhandled event types are acknowledged so the processor stops
    // retrying them.
    if event.Type != "payment_intent.succeeded" {
        return c.JSON(http.StatusOK, echo.Map{"received": true})
    }

    ctx := c.Request().Context()
    ref, err := h.Gateway.BookingRefFor(ctx, event.PaymentIntentID)
    if errors.Is(err, payment.ErrSessionNotFound) {
        log.Printf("payment-webhook: no session for intent %s", event.PaymentIntentID)
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown payment"})
    }
    if err != nil {
        log.Printf("payment-webhook: resolve intent %s failed: %v", event.PaymentIntentID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not resolve payment"})
    }

    bookingID, err := h.Bookings.MarkPaidByRef(ctx, ref)
    if errors.Is(err, repository.ErrBookingNotFound) {
        log.Printf("payment-webhook: no booking for ref %s", ref)
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown booking"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm booking"})
    }

    _ = queue.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
        BookingID:   bookingID,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{"received": true})
}

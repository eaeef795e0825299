package payment

import (
    "context"
    "encoding/json"

    stripe "github.com/stripe/stripe-go/v79"
    "github.com/stripe/stripe-go/v79/checkout/session"
    "github.com/stripe/stripe-go/v79/webhook"
)

// Stripe implements Gateway against the Stripe API.
type Stripe struct {
    webhookSecret string
    successURL    string
    cancelURL     string
}

// NewStripe configures the Stripe SDK with the given API key and returns a
// gateway.  The webhook secret is the endpoint signing secret, distinct
// from the API key.
func NewStripe(apiKey, webhookSecret, successURL, cancelURL string) *Stripe {
    stripe.Key = apiKey
    return &Stripe{webhookSecret: webhookSecret, successURL: successURL, cancelURL: cancelURL}
}

// CreateCheckout opens a hosted checkout session for the booking.  The
// booking reference travels as session metadata so the webhook can map the
// payment back without trusting anything client-side.
func (s *Stripe) CreateCheckout(ctx context.Context, in CheckoutInput) (string, error) {
    params := &stripe.CheckoutSessionParams{
        SuccessURL: stripe.String(s.successURL),
        CancelURL:  stripe.String(s.cancelURL),
        Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
        LineItems: []*stripe.CheckoutSessionLineItemParams{
            {
                PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
                    Currency:   stripe.String("usd"),
                    UnitAmount: stripe.Int64(in.UnitAmountCents),
                    ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
                        Name: stripe.String(in.MovieTitle),
                    },
                },
                Quantity: stripe.Int64(in.SeatCount),
            },
        },
        ExpiresAt: stripe.Int64(in.ExpiresAt.Unix()),
    }
    params.Context = ctx
    params.AddMetadata("booking_ref", in.BookingRef)
    sess, err := session.New(params)
    if err != nil {
        return "", err
    }
    return sess.URL, nil
}

// VerifyEvent checks the signature header against the endpoint signing
// secret and decodes the event.  Events with an unexpected shape yield an
// Event with an empty PaymentIntentID; the caller decides what to ignore.
func (s *Stripe) VerifyEvent(payload []byte, sigHeader string) (Event, error) {
    ev, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
    if err != nil {
        return Event{}, err
    }
    out := Event{Type: string(ev.Type)}
    if out.Type == "payment_intent.succeeded" {
        var pi stripe.PaymentIntent
        if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
            return Event{}, err
        }
        out.PaymentIntentID = pi.ID
    }
    return out, nil
}

// BookingRefFor lists the checkout sessions attached to the payment intent
// and returns the booking reference from the first one.  The processor
// attaches at most one session per intent in this flow.
func (s *Stripe) BookingRefFor(ctx context.Context, paymentIntentID string) (string, error) {
    params := &stripe.CheckoutSessionListParams{
        PaymentIntent: stripe.String(paymentIntentID),
    }
    params.Context = ctx
    params.Limit = stripe.Int64(1)
    iter := session.List(params)
    for iter.Next() {
        sess := iter.CheckoutSession()
        if ref, ok := sess.Metadata["booking_ref"]; ok && ref != "" {
            return ref, nil
        }
        return "", ErrSessionNotFound
    }
    if err := iter.Err(); err != nil {
        return "", err
    }
    return "", ErrSessionNotFound
}

// Package mailer sends transactional email.  Delivery is strictly
// best-effort: no delivery guarantee is assumed, callers count failures
// per recipient and never escalate a single failed send into a batch
// failure.
package mailer

import (
    "context"

    "github.com/wneessen/go-mail"
)

// Mailer attempts a single delivery and reports its outcome.  The body is
// HTML.
type Mailer interface {
    Send(ctx context.Context, to, subject, body string) error
}

// SMTP is a Mailer backed by an SMTP relay.
type SMTP struct {
    client *mail.Client
    from   string
}

// NewSMTP builds an SMTP mailer.  Username and password are optional; when
// empty the relay is used unauthenticated (local dev relays).
func NewSMTP(host string, port int, username, password, from string) (*SMTP, error) {
    opts := []mail.Option{
        mail.WithPort(port),
        mail.WithTLSPolicy(mail.TLSOpportunistic),
    }
    if username != "" {
        opts = append(opts,
            mail.WithSMTPAuth(mail.SMTPAuthPlain),
            mail.WithUsername(username),
            mail.WithPassword(password),
        )
    }
    client, err := mail.NewClient(host, opts...)
    if err != nil {
        return nil, err
    }
    return &SMTP{client: client, from: from}, nil
}

// Send delivers one HTML message.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
    msg := mail.NewMsg()
    if err := msg.From(s.from); err != nil {
        return err
    }
    if err := msg.To(to); err != nil {
        return err
    }
    msg.Subject(subject)
    msg.SetBodyString(mail.TypeTextHTML, body)
    return s.client.DialAndSendWithContext(ctx, msg)
}

package mailer

import (
    "bytes"
    "fmt"
    "html/template"
    "strings"
    "time"
)

// Email templates for the three notification kinds: booking confirmation,
// show reminder and new-show announcement.  Bodies mirror what the front
// end's transactional mail has always looked like; amounts arrive in cents
// and are rendered as dollars.

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Booking Confirmed!</h2>
<p>Hello {{.UserName}},</p>
<p>Your booking for <strong>{{.MovieTitle}}</strong> is confirmed.</p>
<p><strong>Date &amp; Time:</strong> {{.ShowTime}}</p>
<p><strong>Seats:</strong> {{.Seats}}</p>
<p><strong>Tickets:</strong> {{.TicketCount}}</p>
<p><strong>Total Paid:</strong> {{.Amount}}</p>
<p>Thank you for booking with us. Enjoy your movie!</p>
<p>- CineBook Team</p>
`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`
<h2>Movie Reminder!</h2>
<p>Hi {{.UserName}},</p>
<p>This is a quick reminder that your movie <strong>&quot;{{.MovieTitle}}&quot;</strong> is starting soon!</p>
<p><strong>Date &amp; Time:</strong> {{.ShowTime}}</p>
<p>We hope you're as excited as we are. Don't be late!</p>
<p>- CineBook Team</p>
`))

var newShowTmpl = template.Must(template.New("newshow").Parse(`
<h2>New Show Alert!</h2>
<p>Hi {{.UserName}},</p>
<p>We've just added a new show for <strong>&quot;{{.MovieTitle}}&quot;</strong>!</p>
<p>Check it out now and book your seats before they fill up!</p>
<p>- CineBook Team</p>
`))

// ConfirmationEmail renders the booking-confirmation subject and body.
func ConfirmationEmail(userName, movieTitle string, showTime time.Time, seats []string, amountCents uint32) (string, string, error) {
    subject := fmt.Sprintf("Payment Confirmation: %q booked!", movieTitle)
    body, err := render(confirmationTmpl, map[string]any{
        "UserName":    userName,
        "MovieTitle":  movieTitle,
        "ShowTime":    showTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
        "Seats":       strings.Join(seats, ", "),
        "TicketCount": len(seats),
        "Amount":      formatCents(amountCents),
    })
    return subject, body, err
}

// ReminderEmail renders the show-reminder subject and body.
func ReminderEmail(userName, movieTitle string, showTime time.Time) (string, string, error) {
    subject := fmt.Sprintf("Reminder: Your movie %q starts soon!", movieTitle)
    body, err := render(reminderTmpl, map[string]any{
        "UserName":   userName,
        "MovieTitle": movieTitle,
        "ShowTime":   showTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
    })
    return subject, body, err
}

// NewShowEmail renders the new-show announcement subject and body.
func NewShowEmail(userName, movieTitle string) (string, string, error) {
    subject := fmt.Sprintf("New Show Added: %s", movieTitle)
    body, err := render(newShowTmpl, map[string]any{
        "UserName":   userName,
        "MovieTitle": movieTitle,
    })
    return subject, body, err
}

func render(t *template.Template, data any) (string, error) {
    var buf bytes.Buffer
    if err := t.Execute(&buf, data); err != nil {
        return "", err
    }
    return buf.String(), nil
}

func formatCents(cents uint32) string {
    return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

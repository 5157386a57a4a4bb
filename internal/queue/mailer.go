package queue

import (
	"errors"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// ErrMailNotConfigured is returned when SMTP settings are absent. The
// consumer logs and disables itself in that case.
var ErrMailNotConfigured = errors.New("smtp not configured")

// Mailer sends plain-text notification emails over SMTP. Settings come from
// the environment:
//
//	SMTP_HOST, SMTP_PORT - server address (port defaults to 587)
//	SMTP_USER, SMTP_PASS - credentials (optional, plain auth when set)
//	MAIL_FROM            - sender address
//	ADMIN_EMAIL          - recipient for contact and password-reset notices
type Mailer struct {
	client *mail.Client
	from   string
	admin  string
}

// NewMailer builds a Mailer from environment variables. It returns
// ErrMailNotConfigured when SMTP_HOST or MAIL_FROM is missing.
func NewMailer() (*Mailer, error) {
	host := os.Getenv("SMTP_HOST")
	from := os.Getenv("MAIL_FROM")
	if host == "" || from == "" {
		return nil, ErrMailNotConfigured
	}
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(os.Getenv("SMTP_PASS")),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}
	return &Mailer{
		client: client,
		from:   from,
		admin:  os.Getenv("ADMIN_EMAIL"),
	}, nil
}

// AdminAddr returns the configured administrator recipient, falling back to
// the sender address so admin notices are never silently unaddressed.
func (m *Mailer) AdminAddr() string {
	if m.admin != "" {
		return m.admin
	}
	return m.from
}

// Send delivers one plain-text message. Delivery failures are returned to
// the caller; nothing is retried here.
func (m *Mailer) Send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return m.client.DialAndSend(msg)
}

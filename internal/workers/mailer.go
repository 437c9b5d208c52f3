package workers

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/coldread-dev/coldread/internal/config"
)

// Sender delivers a prepared message. *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// logSender stands in for SMTP when none is configured
type logSender struct {
	log zerolog.Logger
}

func (s logSender) DialAndSend(msgs ...*gomail.Message) error {
	for _, m := range msgs {
		s.log.Warn().
			Strs("to", m.GetHeader("To")).
			Strs("subject", m.GetHeader("Subject")).
			Msg("SMTP not configured, email not sent")
	}
	return nil
}

// Mailer renders and sends account emails
type Mailer struct {
	from       string
	appBaseURL string
	sender     Sender
	log        zerolog.Logger
}

// MailerOption configures a Mailer
type MailerOption func(*Mailer)

// WithSender replaces the SMTP dialer, mainly for tests
func WithSender(s Sender) MailerOption {
	return func(m *Mailer) {
		m.sender = s
	}
}

// NewMailer builds a mailer from the email settings. Without an SMTP host
// messages are logged instead of sent.
func NewMailer(cfg *config.Config, log zerolog.Logger, opts ...MailerOption) *Mailer {
	m := &Mailer{
		from:       cfg.Email.From,
		appBaseURL: cfg.HTTP.AppBaseURL,
		log:        log,
	}
	switch {
	case cfg.Email.Enabled():
		m.sender = gomail.NewDialer(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password)
	default:
		m.sender = logSender{log: log}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// link builds an app URL carrying token as a query parameter
func (m *Mailer) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", m.appBaseURL, path, url.QueryEscape(token))
}

func greeting(name string) string {
	if name == "" {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

// SendVerification emails an address confirmation link
func (m *Mailer) SendVerification(to, name, token string) error {
	link := m.link("/verify-email", token)
	return m.send(to, "Confirm your coldread email address", fmt.Sprintf(
		"%s\n\nConfirm your email address by opening the link below. It expires in 48 hours.\n\n%s\n\nIf you didn't create a coldread account you can ignore this email.\n",
		greeting(name), link,
	))
}

// SendPasswordReset emails a password reset link
func (m *Mailer) SendPasswordReset(to, name, token string) error {
	link := m.link("/reset-password", token)
	return m.send(to, "Reset your coldread password", fmt.Sprintf(
		"%s\n\nSomeone asked to reset the password for your coldread account. Open the link below to choose a new one. It expires in 1 hour.\n\n%s\n\nIf this wasn't you, no action is needed.\n",
		greeting(name), link,
	))
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.log.Info().Str("subject", subject).Msg("Email sent")
	return nil
}

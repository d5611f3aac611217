package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// VerificationURL is the page that receives the verification token as ?token=.
	VerificationURL string
}

// Mailer represents an email sender.
// A Mailer built without an SMTP host logs messages instead of sending them.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	logger *zerolog.Logger
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// NewMailer creates a new Mailer instance with the given configuration.
func NewMailer(cfg Config, logger *zerolog.Logger) *Mailer {
	m := &Mailer{
		config: cfg,
		logger: logger,
	}

	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
		)
	}

	return m
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	if m.dialer == nil {
		m.logger.Info().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Msg("smtp not configured, email not sent")
		return nil
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialer.DialAndSend(msg)
}

// SendVerification mails the account verification link carrying token to the given address.
func (m *Mailer) SendVerification(ctx context.Context, to, name, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := verificationLink(m.config.VerificationURL, token)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Thanks for joining. Please confirm your email address to activate your account:</p>

		<p><a href="%s">%s</a></p>

		<p>If you did not create an account, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Jobfeed Team</p>
	`, html.EscapeString(name), link, link)

	plainBody := fmt.Sprintf("Hi %s,\n\nConfirm your email address: %s\n", name, link)

	return m.Send(Email{
		To:       []string{to},
		Subject:  "Verify your account",
		Body:     plainBody,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}

func verificationLink(base, token string) string {
	return base + "?token=" + url.QueryEscape(token)
}

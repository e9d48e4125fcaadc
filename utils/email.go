package utils

import (
	"fmt"
	"net/smtp"

	"github.com/sony/gobreaker"

	"yoosprint/config"
	"yoosprint/logging"
)

// SMTPMailer sends HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	logging.Logger.Debugf("Event ID: SEND_EMAIL_START, Description: Attempting to send email to '%s' with subject: '%s'", to, subject)
	if m.cfg.Password == "" {
		logging.Logger.Errorf("Event ID: SEND_EMAIL_MISSING_ENV, Description: EMAIL_PASSWORD environment variable is not set.")
		return fmt.Errorf("EMAIL_PASSWORD is not set")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.SMTPHost)
	if err := m.send(m.cfg.SMTPHost+":"+m.cfg.SMTPPort, auth, m.cfg.From, []string{to}, message); err != nil {
		logging.Logger.Errorf("Event ID: SEND_EMAIL_FAILED, Description: Failed to send email to '%s' with subject '%s': %v", to, subject, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logging.Logger.Infof("Event ID: SEND_EMAIL_SUCCESS, Description: Email successfully sent to '%s' with subject: '%s'", to, subject)
	return nil
}

// LogMailer writes mail to the log instead of sending it. Used when no
// SMTP credentials are configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	logging.Logger.Warnf("Event ID: SEND_EMAIL_DISABLED, Description: SMTP not configured, mail to '%s' (%s): %s", to, subject, body)
	return nil
}

type mailSender interface {
	Send(to, subject, body string) error
}

// BreakerMailer guards a mailer with a circuit breaker so a failing relay
// is not hammered on every login.
type BreakerMailer struct {
	next    mailSender
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerMailer(next mailSender, breaker *gobreaker.CircuitBreaker) *BreakerMailer {
	return &BreakerMailer{next: next, breaker: breaker}
}

func (m *BreakerMailer) Send(to, subject, body string) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.next.Send(to, subject, body)
	})
	if err != nil {
		return fmt.Errorf("mail delivery unavailable: %w", err)
	}
	return nil
}

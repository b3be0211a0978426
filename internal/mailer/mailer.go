// Package mailer delivers outbound notification email. Callers depend on the
// Notifier interface; delivery failures are reported distinctly from storage
// failures so account flows can continue while telling the user the message
// may not have arrived.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier sends a message to a single recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail over a plain SMTP endpoint.
type SMTPMailer struct {
	addr    string
	from    string
	auth    smtp.Auth
	timeout time.Duration
}

// NewSMTPMailer creates a mailer for the given host:port endpoint. Username
// may be empty for unauthenticated relays.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{
		addr:    addr,
		from:    from,
		timeout: 10 * time.Second,
	}
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers the message, bounded by the caller's context deadline. A
// timeout surfaces as a wrapped context error, never as a not-found.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
	}()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, context.DeadlineExceeded)
	}
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development when no SMTP endpoint is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail (not delivered, SMTP unconfigured)", "to", to, "subject", subject, "body", body)
	return nil
}

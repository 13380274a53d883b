// Package email sends transactional mail. Delivery is best-effort: callers
// fire it asynchronously, log failures, and never retry.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier dispatches a verification email carrying the confirmation link.
type Notifier interface {
	SendVerification(ctx context.Context, to, verifyURL string) error
}

// SMTPNotifier delivers mail through a plain SMTP relay.
type SMTPNotifier struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPNotifier builds an SMTP-backed notifier.
func NewSMTPNotifier(host string, port int, user, pass, from string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, user: user, pass: pass, from: from}
}

func (n *SMTPNotifier) SendVerification(_ context.Context, to, verifyURL string) error {
	msg := buildVerificationMessage(n.from, to, verifyURL)
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var a smtp.Auth
	if n.user != "" {
		a = smtp.PlainAuth("", n.user, n.pass, n.host)
	}
	if err := smtp.SendMail(addr, a, n.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func buildVerificationMessage(from, to, verifyURL string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Confirm your email for Volunity\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h2>Welcome to Volunity!</h2>`)
	b.WriteString(`<p>Thanks for signing up. Please confirm your email address by clicking the button below:</p>`)
	b.WriteString(`<div style="text-align: center; margin: 30px 0;">`)
	b.WriteString(`<a href="` + verifyURL + `" style="background-color: #4F46E5; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Confirm email</a>`)
	b.WriteString(`</div>`)
	b.WriteString(`<p>Or copy this link into your browser:</p>`)
	b.WriteString(`<p style="color: #666; word-break: break-all;">` + verifyURL + `</p>`)
	b.WriteString(`<p style="color: #999; font-size: 12px; margin-top: 30px;">If you did not sign up, please ignore this email.</p>`)
	b.WriteString(`</div>`)
	return []byte(b.String())
}

// DevNotifier logs the verification link instead of sending mail. Used in
// development and tests where no SMTP relay is configured.
type DevNotifier struct {
	logger *slog.Logger
}

// NewDevNotifier builds a logging notifier.
func NewDevNotifier(logger *slog.Logger) *DevNotifier {
	return &DevNotifier{logger: logger}
}

func (n *DevNotifier) SendVerification(ctx context.Context, to, verifyURL string) error {
	n.logger.InfoContext(ctx, "verification email issued",
		"to", to,
		"verify_url", verifyURL,
	)
	return nil
}

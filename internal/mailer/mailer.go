// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends the emails the application needs.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// LogMailer writes outgoing mail to the log instead of delivering it.
// It is used when no Resend API key is configured.
type LogMailer struct {
	log       *zap.Logger
	from      string
	clientURL string
}

// NewLogMailer creates a LogMailer. Reset links point at clientURL.
func NewLogMailer(log *zap.Logger, from, clientURL string) *LogMailer {
	return &LogMailer{
		log:       log.Named("mailer"),
		from:      from,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

// SendPasswordReset logs the reset link for to.
func (m *LogMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.log.Info("password reset email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("link", ResetLink(m.clientURL, token)),
	)
	return nil
}

// ResetLink builds the client URL a user follows to reset their password.
func ResetLink(clientURL, token string) string {
	return strings.TrimRight(clientURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

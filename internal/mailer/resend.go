package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/config"
)

const resetSubject = "Reset your password"

// ResendMailer delivers mail through the Resend API.
type ResendMailer struct {
	client    *resend.Client
	log       *zap.Logger
	from      string
	clientURL string
}

// NewResendMailer creates a ResendMailer from cfg. cfg.ResendBaseURL, when
// set, replaces the public API endpoint.
func NewResendMailer(cfg config.MailConfig, clientURL string, log *zap.Logger) (*ResendMailer, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("mailer: resend api key is empty")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	if cfg.ResendBaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.ResendBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("mailer: parse resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &ResendMailer{
		client:    client,
		log:       log.Named("mailer"),
		from:      cfg.From,
		clientURL: strings.TrimRight(clientURL, "/"),
	}, nil
}

// SendPasswordReset emails to a link that resets their password.
func (m *ResendMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := ResetLink(m.clientURL, token)
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: resetSubject,
		Html:    resetHTML(link),
		Text:    "Reset your password: " + link,
	})
	if err != nil {
		return fmt.Errorf("mailer: send password reset: %w", err)
	}

	m.log.Info("password reset email sent", zap.String("to", to), zap.String("id", sent.Id))
	return nil
}

func resetHTML(link string) string {
	href := html.EscapeString(link)
	return `<p>Someone asked to reset the password for your Readshelf account.</p>` +
		`<p><a href="` + href + `">Reset your password</a></p>` +
		`<p>The link expires in 24 hours. If you did not ask for this, ignore this email.</p>`
}

// New picks the mailer for cfg: Resend when an API key is configured,
// the log mailer otherwise.
func New(cfg config.MailConfig, clientURL string, log *zap.Logger) Mailer {
	if !cfg.Enabled() {
		return NewLogMailer(log, cfg.From, clientURL)
	}
	m, err := NewResendMailer(cfg, clientURL, log)
	if err != nil {
		log.Error("resend mailer unavailable, logging mail instead", zap.Error(err))
		return NewLogMailer(log, cfg.From, clientURL)
	}
	return m
}

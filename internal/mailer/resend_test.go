package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/config"
)

type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func resendServer(t *testing.T, status int, reply string, got *sentEmail, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		*auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResendMailer_SendPasswordReset(t *testing.T) {
	var (
		got  sentEmail
		auth string
	)
	srv := resendServer(t, http.StatusOK, `{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`, &got, &auth)

	m, err := NewResendMailer(config.MailConfig{
		From:          "Readshelf <noreply@readshelf.app>",
		ResendAPIKey:  "re_test",
		ResendBaseURL: srv.URL,
	}, "https://readshelf.app/", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.SendPasswordReset(context.Background(), "reader@example.com", "tok123"))

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "Readshelf <noreply@readshelf.app>", got.From)
	assert.Equal(t, []string{"reader@example.com"}, got.To)
	assert.Equal(t, "Reset your password", got.Subject)
	assert.Contains(t, got.HTML, `href="https://readshelf.app/reset-password?token=tok123"`)
}

func TestResendMailer_ProviderError(t *testing.T) {
	var (
		got  sentEmail
		auth string
	)
	srv := resendServer(t, http.StatusUnprocessableEntity,
		`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`, &got, &auth)

	m, err := NewResendMailer(config.MailConfig{From: "bad", ResendAPIKey: "re_test", ResendBaseURL: srv.URL}, "http://localhost:3000", zap.NewNop())
	require.NoError(t, err)

	err = m.SendPasswordReset(context.Background(), "reader@example.com", "tok123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send password reset")
}

func TestNewResendMailer_RequiresKey(t *testing.T) {
	_, err := NewResendMailer(config.MailConfig{From: "noreply@readshelf.app"}, "http://localhost:3000", zap.NewNop())
	assert.Error(t, err)
}

func TestNew_PicksProvider(t *testing.T) {
	m := New(config.MailConfig{From: "noreply@readshelf.app"}, "http://localhost:3000", zap.NewNop())
	assert.IsType(t, &LogMailer{}, m)

	m = New(config.MailConfig{From: "noreply@readshelf.app", ResendAPIKey: "re_test"}, "http://localhost:3000", zap.NewNop())
	assert.IsType(t, &ResendMailer{}, m)

	m = New(config.MailConfig{From: "noreply@readshelf.app", ResendAPIKey: "re_test", ResendBaseURL: "://bad"}, "http://localhost:3000", zap.NewNop())
	assert.IsType(t, &LogMailer{}, m)
}

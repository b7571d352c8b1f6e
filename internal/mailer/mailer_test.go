package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResetLink(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/reset-password?token=abc", ResetLink("http://localhost:3000/", "abc"))
	assert.Equal(t, "https://app.example/reset-password?token=a%2Bb", ResetLink("https://app.example", "a+b"))
}

func TestLogMailer_SendPasswordReset(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core), "noreply@readshelf.app", "http://localhost:3000")

	require.NoError(t, m.SendPasswordReset(context.Background(), "reader@example.com", "tok123"))

	entries := logs.FilterMessage("password reset email").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "reader@example.com", fields["to"])
	assert.Equal(t, "http://localhost:3000/reset-password?token=tok123", fields["link"])
}

package email

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_WithoutCredentialsLogsOnly(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587}, zerolog.Nop())
	assert.False(t, s.Configured())
	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}))
}

func TestSend_CancelledContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@b.c"}), context.Canceled)
}

func TestBuildMessage_HeadersFirst(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{FromName: "ScholarHub", FromEmail: "noreply@example.com"}, zerolog.Nop())
	raw := string(s.buildMessage(Message{To: "ada@example.com", ToName: "Ada", Subject: "Hi", HTMLBody: "<p>x</p>"}))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "To: Ada <ada@example.com>")
	assert.Contains(t, head, "From: ScholarHub <noreply@example.com>")
	assert.Equal(t, "<p>x</p>", body)
}

func TestTemplates_EscapeUserInput(t *testing.T) {
	msg := NotificationMessage("a@b.c", "<Eve>", "Decision", "<script>x</script>", "https://app/applications/1")
	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.Contains(t, msg.HTMLBody, "&lt;Eve&gt;")
	assert.Contains(t, msg.HTMLBody, "https://app/applications/1")

	v := VerificationMessage("https://api.example.com/", "a@b.c", "Ada", "tok123")
	assert.Contains(t, v.HTMLBody, "https://api.example.com/api/v1/auth/verify-email?token=tok123")
}

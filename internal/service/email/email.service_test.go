package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessageHeaders(t *testing.T) {
	s := NewSender("smtp.example.com", "465", "noreply@example.com", "pw")

	msg := string(s.buildMessage("player1@example.com", "Your FireKirin account", "<p>fk-123</p>"))

	assert.True(t, strings.HasPrefix(msg, "From: noreply@example.com\r\n"))
	assert.Contains(t, msg, "To: player1@example.com\r\n")
	assert.Contains(t, msg, "Subject: Your FireKirin account\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"utf-8\"\r\n")

	// Headers and body are separated by a blank line.
	_, body, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found)
	assert.Equal(t, "<p>fk-123</p>", body)
}

func TestSendFailsFastWhenUnreachable(t *testing.T) {
	s := NewSender("127.0.0.1", "1", "noreply@example.com", "pw")

	err := s.Send("player1@example.com", "subject", "body")
	assert.ErrorContains(t, err, "dial smtp server")
}

package email

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailstudio/builder/internal/config"
)

func testEmailConfig() *config.Config {
	return &config.Config{SmtpFromAddress: "noreply@mailstudio.example.com"}
}

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("from@example.com", []string{"a@example.com", "b@example.com"}, "Hello", []byte("<p>Hi</p>")))

	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, "<p>Hi</p>")
}

func TestNewSMTPSender_FallsBackToLoggingWithoutHost(t *testing.T) {
	sender := NewSMTPSender(testEmailConfig())
	_, ok := sender.(*LoggingSender)
	assert.True(t, ok)
}

func TestFileEmailSender_AppendsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "emails.log")
	sender, err := NewFileEmailSender(path, testEmailConfig())
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), []string{"dev@example.com"}, "First", []byte("<p>1</p>")))
	require.NoError(t, sender.Send(context.Background(), []string{"dev@example.com"}, "Second", []byte("<p>2</p>")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Subject: First")
	assert.Contains(t, content, "Subject: Second")
	assert.Contains(t, content, "<p>1</p>")
	assert.Contains(t, content, "<p>2</p>")
}

func TestNewFileEmailSender_EmptyPath(t *testing.T) {
	_, err := NewFileEmailSender("  ", testEmailConfig())
	assert.Error(t, err)
}

func TestCompositeEmailSender_FansOut(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileEmailSender(filepath.Join(dir, "a.log"), testEmailConfig())
	require.NoError(t, err)
	second, err := NewFileEmailSender(filepath.Join(dir, "b.log"), testEmailConfig())
	require.NoError(t, err)

	composite := NewCompositeEmailSender(first)
	composite.AddSender(second)

	require.NoError(t, composite.Send(context.Background(), []string{"dev@example.com"}, "Fan out", []byte("<p>x</p>")))

	for _, name := range []string{"a.log", "b.log"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "Subject: Fan out")
	}
}

package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestClientNotify(t *testing.T) {
	sender := &fakeSender{}
	c := NewClientWithSender(sender, 42)
	require.True(t, c.Available())

	require.NoError(t, c.Notify(context.Background(), "Price alert for BRK_B", "BRK_B above 150.00; current price 150.50"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Equal(t, "🔔 *Price alert for BRK\\_B*\n\nBRK\\_B above 150.00; current price 150.50", msg.Text)
}

func TestClientNotifyPropagatesErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("bad gateway")}
	c := NewClientWithSender(sender, 42)
	assert.EqualError(t, c.Notify(context.Background(), "t", "m"), "bad gateway")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Notify(ctx, "t", "m"), context.Canceled)
}

func TestClientUnavailableWithoutChat(t *testing.T) {
	assert.False(t, NewClientWithSender(&fakeSender{}, 0).Available())
}

func TestFormatNotificationTruncatesOnRuneBoundary(t *testing.T) {
	text := FormatNotification("AAPL", "x"+strings.Repeat("€", 2000))
	assert.LessOrEqual(t, len(text), maxMessageLen)
	assert.True(t, utf8.ValidString(text))
	assert.True(t, strings.HasPrefix(text, "🔔 *AAPL*"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "ab", truncate(`ab\_c`, 3))
	assert.Equal(t, `a\\`, truncate(`a\\x`, 3))
	assert.Equal(t, "", truncate("€", 2))
}

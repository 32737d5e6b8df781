package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram bot API the client uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client sends alert notifications to a Telegram chat.
type Client struct {
	bot    Sender
	chatID int64
}

// NewClient creates a new Telegram client. The token is verified against the
// Bot API.
func NewClient(botToken string, chatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return NewClientWithSender(bot, chatID), nil
}

// NewClientWithSender wraps an existing sender.
func NewClientWithSender(bot Sender, chatID int64) *Client {
	return &Client{bot: bot, chatID: chatID}
}

// Available reports whether a chat to deliver to is configured.
func (c *Client) Available() bool {
	return c.bot != nil && c.chatID != 0
}

// SendMessage sends a Markdown message to the configured Telegram chat.
func (c *Client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

// Notify formats an alert notification and sends it.
func (c *Client) Notify(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.SendMessage(FormatNotification(title, message))
}

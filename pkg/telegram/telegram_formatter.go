package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is the Bot API limit minus some headroom.
const maxMessageLen = 4090

// FormatNotification renders a notification as Telegram Markdown. User
// supplied text is escaped so tickers like BRK_B do not break the markup.
func FormatNotification(title, message string) string {
	text := fmt.Sprintf("🔔 *%s*\n\n%s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, title),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, message))
	return truncate(text, maxMessageLen)
}

// truncate cuts text to at most limit bytes without splitting a rune or
// leaving a dangling escape backslash at the end.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	text = text[:cut]
	trimmed := strings.TrimRight(text, "\\")
	if (len(text)-len(trimmed))%2 == 1 {
		text = text[:len(text)-1]
	}
	return text
}

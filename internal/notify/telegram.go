package notify

// Telegram notifier for daily run summaries
// Sends one HTML message per run to a single chat

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pharos-bot/internal/tasks"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

const DefaultTimeout = 30 * time.Second

// NewTelegram authorizes the bot (getMe) and parses chatID.
// timeout bounds every Bot API call, a stalled API never blocks the scheduler.
func NewTelegram(token, chatID string, timeout time.Duration) (*Telegram, error) {
	return newTelegram(token, chatID, tgbotapi.APIEndpoint, timeout)
}

func newTelegram(token, chatID, endpoint string, timeout time.Duration) (*Telegram, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: id}, nil
}

func (t *Telegram) Username() string {
	return t.bot.Self.UserName
}

// Notify returns when the message is sent, the client timeout passes or ctx is done.
// The Bot API client takes no context, an abandoned send ends with the client timeout.
func (t *Telegram) Notify(ctx context.Context, s tasks.Summary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	errCh := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram message abandoned: %w", ctx.Err())
	}
}

// FormatSummary renders a run summary as Telegram HTML
func FormatSummary(s tasks.Summary) string {
	var b strings.Builder
	b.WriteString("<b>Pharos daily tasks</b>\n")
	b.WriteString(fmt.Sprintf("Wallet: <code>%s</code>\n", html.EscapeString(shortAddress(s.Address))))
	b.WriteString(fmt.Sprintf("Started: %s\n", s.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString("<blockquote>")
	b.WriteString(resultLine("Check-in", s.CheckIn.Succeeded, s.CheckIn.Message))
	b.WriteString("\n")
	b.WriteString(resultLine("Swap", s.Swap.Succeeded, s.Swap.Message))
	b.WriteString("</blockquote>")
	return b.String()
}

func resultLine(name string, ok bool, message string) string {
	if ok {
		return "✅ " + name
	}
	if message == "" {
		return "❌ " + name
	}
	return "❌ " + name + ": " + html.EscapeString(message)
}

// 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 -> 0xf39F...2266
func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

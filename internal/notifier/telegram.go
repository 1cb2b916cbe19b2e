package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure TelegramChannel implements model.Channel.
var _ model.Channel = (*TelegramChannel)(nil)

// TelegramClient is the process-wide bot session. Create it once at startup
// and resolve one TelegramChannel per destination chat.
type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewTelegramClientWithEndpoint authenticates the bot token against the Bot
// API at endpoint, in the "https://host/bot%s/%s" form the bot library
// expects. client should carry a timeout: the bot library takes no context.
func NewTelegramClientWithEndpoint(token, endpoint string, client *http.Client, logger *slog.Logger) (*TelegramClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authenticating telegram bot: %w", err)
	}
	logger.Info("telegram bot authenticated", "bot", bot.Self.UserName)
	return &TelegramClient{bot: bot, logger: logger}, nil
}

// Channel resolves chatID to a sendable chat. chatID is either a numeric id
// ("-1001234567890") or a public channel username ("@qa_jobs").
func (c *TelegramClient) Channel(chatID string) (*TelegramChannel, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, fmt.Errorf("chat id is empty")
	}

	cfg := tgbotapi.ChatInfoConfig{}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg.ChatID = id
	} else if strings.HasPrefix(chatID, "@") {
		cfg.SuperGroupUsername = chatID
	} else {
		return nil, fmt.Errorf("invalid chat id %q", chatID)
	}

	chat, err := c.bot.GetChat(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving chat %s: %w", chatID, err)
	}

	c.logger.Debug("telegram chat resolved", "chat_id", chat.ID, "title", chat.Title)
	return &TelegramChannel{bot: c.bot, chatID: chat.ID, title: chat.Title}, nil
}

// TelegramChannel sends and deletes messages in one chat.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	title  string
}

// Title is the chat's display name as reported by Telegram.
func (c *TelegramChannel) Title() string { return c.title }

// Send posts text as a plain message with link previews disabled.
func (c *TelegramChannel) Send(ctx context.Context, text string) (model.MessageHandle, error) {
	if err := ctx.Err(); err != nil {
		return model.MessageHandle{}, err
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.DisableWebPagePreview = true

	sent, err := withContext(ctx, func() (tgbotapi.Message, error) {
		return c.bot.Send(msg)
	})
	if err != nil {
		return model.MessageHandle{}, fmt.Errorf("telegram send: %w", err)
	}
	return model.MessageHandle{
		Channel: strconv.FormatInt(c.chatID, 10),
		ID:      strconv.Itoa(sent.MessageID),
	}, nil
}

// Delete removes a message previously returned by Send.
func (c *TelegramChannel) Delete(ctx context.Context, handle model.MessageHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := strconv.Atoi(handle.ID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", handle.ID, err)
	}

	_, err = withContext(ctx, func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(tgbotapi.NewDeleteMessage(c.chatID, id))
	})
	if err != nil {
		return fmt.Errorf("telegram delete: %w", err)
	}
	return nil
}

// withContext runs a Bot API call and returns ctx's error as soon as ctx ends.
// An abandoned call keeps running until the HTTP client's timeout.
func withContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Package telegram wraps the Telegram Bot API client for TaskBot.
//
// It provides methods for sending prompts with optional inline keyboards,
// deleting messages, and registering bot command metadata.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fieldops/taskbot/internal/models"
)

// Constants for Telegram client configuration
const (
	// DefaultPollTimeout is the default long-poll timeout in seconds for update requests.
	DefaultPollTimeout = 30
)

// Sender is an interface for the Telegram operations the rest of the service
// needs (for production and testing).
type Sender interface {
	// SendMessage sends a text message with an optional inline keyboard and
	// returns the platform-assigned message id.
	SendMessage(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error)

	// DeleteMessage removes a previously sent message from the chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SetCommands registers bot command metadata with the platform.
	SetCommands(ctx context.Context, commands []models.Command) error
}

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token       string // bot token issued by BotFather
	PollTimeout int    // long-poll timeout in seconds
	Debug       bool   // enable Bot API request/response logging
}

// Option defines a configuration option for the Telegram client.
type Option func(*Opts)

// WithToken sets the bot token.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(o *Opts) {
		o.PollTimeout = seconds
	}
}

// WithDebug enables Bot API debug logging.
func WithDebug() Option {
	return func(o *Opts) {
		o.Debug = true
	}
}

// Client wraps the Bot API client for modular use.
type Client struct {
	bot         *tgbotapi.BotAPI
	pollTimeout int
}

// NewClient creates a new Telegram client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Telegram NewClient options set", "token_set", cfg.Token != "", "poll_timeout", cfg.PollTimeout, "debug", cfg.Debug)

	if cfg.Token == "" {
		slog.Error("Telegram bot token not set")
		return nil, fmt.Errorf("telegram bot token not set")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		slog.Error("Failed to initialize Telegram bot client", "error", err)
		return nil, fmt.Errorf("failed to initialize telegram bot client: %w", err)
	}
	bot.Debug = cfg.Debug

	slog.Info("Telegram client authorized", "account", bot.Self.UserName)
	return &Client{bot: bot, pollTimeout: cfg.PollTimeout}, nil
}

// SendMessage sends a text message, attaching an inline keyboard when one is
// provided, and returns the message id assigned by the platform.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(keyboard) > 0 {
		msg.ReplyMarkup = buildInlineKeyboard(keyboard)
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		slog.Error("Telegram SendMessage failed", "error", err, "chat_id", chatID)
		return 0, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	slog.Debug("Telegram SendMessage succeeded", "chat_id", chatID, "message_id", sent.MessageID, "body_length", len(text), "keyboard_rows", len(keyboard))
	return sent.MessageID, nil
}

// DeleteMessage removes a message from the chat by id.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		slog.Debug("Telegram DeleteMessage failed", "error", err, "chat_id", chatID, "message_id", messageID)
		return fmt.Errorf("failed to delete message %d in chat %d: %w", messageID, chatID, err)
	}
	slog.Debug("Telegram DeleteMessage succeeded", "chat_id", chatID, "message_id", messageID)
	return nil
}

// SetCommands registers the bot's command metadata with the platform.
func (c *Client) SetCommands(ctx context.Context, commands []models.Command) error {
	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	if _, err := c.bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		slog.Error("Telegram SetCommands failed", "error", err, "count", len(commands))
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	slog.Info("Telegram bot commands registered", "count", len(commands))
	return nil
}

// AnswerCallback acknowledges an inline button press so the client stops
// showing a loading spinner. Failures are non-fatal.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		slog.Debug("Telegram AnswerCallback failed", "error", err, "callback_id", callbackID)
		return fmt.Errorf("failed to answer callback %s: %w", callbackID, err)
	}
	return nil
}

// Updates returns the long-poll update channel for the bot.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	return c.bot.GetUpdatesChan(u)
}

// StopReceivingUpdates stops the long-poll update loop.
func (c *Client) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

// MockClient implements Sender without talking to Telegram (for tests).
// In tests, use telegram.NewMockClient() instead of NewClient to avoid real
// Bot API connections. It records sent and deleted messages and assigns
// sequential message ids.
type MockClient struct {
	Sent     []MockSentMessage
	Deleted  []int
	Commands []models.Command

	// SendErr and DeleteErr, when set, are returned by the corresponding calls.
	SendErr   error
	DeleteErr error

	nextID int
}

// MockSentMessage captures one SendMessage call made against a MockClient.
type MockSentMessage struct {
	ChatID    int64
	Text      string
	Keyboard  models.Keyboard
	MessageID int
}

// NewMockClient creates a recording mock Sender.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error) {
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.nextID++
	m.Sent = append(m.Sent, MockSentMessage{ChatID: chatID, Text: text, Keyboard: keyboard, MessageID: m.nextID})
	return m.nextID, nil
}

func (m *MockClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

func (m *MockClient) SetCommands(ctx context.Context, commands []models.Command) error {
	m.Commands = append([]models.Command(nil), commands...)
	return nil
}

// buildInlineKeyboard converts the keyboard model into Bot API markup.
func buildInlineKeyboard(keyboard models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldops/taskbot/internal/models"
	"github.com/fieldops/taskbot/internal/telegram"
)

// Constants for TelegramService configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// TelegramService implements Service using the Bot API based telegram client.
type TelegramService struct {
	client   telegram.Sender
	tgClient *telegram.Client // access to the underlying client for update polling
	events   chan models.Event
	done     chan struct{}
}

// NewTelegramService creates a new TelegramService wrapping the given Sender.
func NewTelegramService(client telegram.Sender) *TelegramService {
	service := &TelegramService{
		client: client,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}

	// Only a full Client can poll for updates; mocks send nothing.
	if tgClient, ok := client.(*telegram.Client); ok {
		service.tgClient = tgClient
		slog.Debug("TelegramService created with full client for update polling")
	} else {
		slog.Debug("TelegramService created with interface client (likely mock)")
	}

	return service
}

// Start begins background update polling.
func (s *TelegramService) Start(ctx context.Context) error {
	slog.Debug("TelegramService Start invoked")

	if s.tgClient != nil {
		go s.pumpUpdates(ctx)
		slog.Debug("TelegramService update pump started")
	} else {
		slog.Debug("TelegramService no full client available, skipping update polling (likely mock)")
	}

	return nil
}

// Stop stops background processing.
func (s *TelegramService) Stop() error {
	slog.Info("TelegramService Stop invoked")
	if s.tgClient != nil {
		s.tgClient.StopReceivingUpdates()
	}
	close(s.done)
	close(s.events)
	slog.Info("TelegramService stopped and event channel closed")
	return nil
}

// SendPrompt sends a message with an optional inline keyboard.
func (s *TelegramService) SendPrompt(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error) {
	slog.Debug("TelegramService SendPrompt invoked", "chat_id", chatID, "body_length", len(text), "keyboard_rows", len(keyboard))
	messageID, err := s.client.SendMessage(ctx, chatID, text, keyboard)
	if err != nil {
		slog.Error("TelegramService SendPrompt error", "error", err, "chat_id", chatID)
		return 0, err
	}
	slog.Info("TelegramService prompt sent", "chat_id", chatID, "message_id", messageID)
	return messageID, nil
}

// DeleteMessage removes a message from a chat.
func (s *TelegramService) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return s.client.DeleteMessage(ctx, chatID, messageID)
}

// RegisterCommands publishes command metadata to the platform.
func (s *TelegramService) RegisterCommands(ctx context.Context, commands []models.Command) error {
	return s.client.SetCommands(ctx, commands)
}

// Events returns a channel of normalized inbound chat events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

// pumpUpdates converts Bot API updates into normalized events until the
// context is cancelled. Transport-level poll timeouts surface as an empty
// update batch and simply resume receiving.
func (s *TelegramService) pumpUpdates(ctx context.Context) {
	slog.Debug("TelegramService pumpUpdates starting")

	updates := s.tgClient.Updates()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				slog.Debug("TelegramService update channel closed")
				return
			}

			switch {
			case update.Message != nil && update.Message.From != nil:
				s.forward(models.Event{
					Kind:      models.EventKindText,
					UserID:    update.Message.From.ID,
					ChatID:    update.Message.Chat.ID,
					Username:  update.Message.From.UserName,
					MessageID: update.Message.MessageID,
					Text:      update.Message.Text,
					Time:      int64(update.Message.Date),
				})

			case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
				query := update.CallbackQuery
				// Acknowledge the button press so the client stops its spinner.
				if err := s.tgClient.AnswerCallback(ctx, query.ID); err != nil {
					slog.Debug("TelegramService callback acknowledgement failed", "error", err)
				}
				s.forward(models.Event{
					Kind:      models.EventKindSelection,
					UserID:    query.From.ID,
					ChatID:    query.Message.Chat.ID,
					Username:  query.From.UserName,
					MessageID: query.Message.MessageID,
					Token:     query.Data,
					Time:      time.Now().Unix(),
				})

			default:
				// Neither text nor selection present; log and ignore.
				slog.Debug("TelegramService ignoring unrecognized update", "update_id", update.UpdateID)
			}

		case <-ctx.Done():
			slog.Debug("TelegramService pumpUpdates stopping due to context cancellation")
			return
		}
	}
}

// forward sends an event to the events channel without blocking indefinitely.
func (s *TelegramService) forward(event models.Event) {
	select {
	case s.events <- event:
		slog.Debug("TelegramService inbound event forwarded", "kind", event.Kind, "user_id", event.UserID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TelegramService event channel blocked, dropping event", "kind", event.Kind, "user_id", event.UserID, "timeout", DefaultChannelTimeout)
	}
}

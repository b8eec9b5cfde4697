// Package messaging provides the message delivery abstraction and the
// per-chat message lifecycle ledger for TaskBot.
package messaging

import (
	"context"

	"github.com/fieldops/taskbot/internal/models"
)

// Service defines a pluggable message delivery abstraction.
// It supports sending prompts with inline keyboards, deleting messages, and
// provides a channel of normalized inbound events.
type Service interface {
	// SendPrompt sends a message with an optional inline keyboard and returns
	// the platform-assigned message id.
	SendPrompt(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error)

	// DeleteMessage removes a message from a chat by id.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// RegisterCommands publishes bot command metadata to the platform.
	RegisterCommands(ctx context.Context, commands []models.Command) error

	// Start begins any background processing (e.g., polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns a channel of normalized inbound chat events.
	Events() <-chan models.Event
}

// Deleter is the subset of Service the message ledger needs.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

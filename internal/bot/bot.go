// Package bot wires the TaskBot modules together and runs the long-lived
// receive loop that dispatches inbound chat events to the conversation
// engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldops/taskbot/internal/flow"
	"github.com/fieldops/taskbot/internal/messaging"
	"github.com/fieldops/taskbot/internal/models"
	"github.com/fieldops/taskbot/internal/store"
	"github.com/fieldops/taskbot/internal/telegram"
)

// DefaultCommands is the command metadata registered with the platform at startup.
var DefaultCommands = []models.Command{
	{Name: "new", Description: "Create a completed-work record"},
	{Name: "clear", Description: "Reset the form"},
}

// Opts holds configuration options for the bot service.
type Opts struct {
	ChatID int64 // the chat the message ledger is scoped to
}

// Option defines a configuration option for the bot service.
type Option func(*Opts)

// WithChatID sets the chat the message ledger is scoped to.
func WithChatID(chatID int64) Option {
	return func(o *Opts) {
		o.ChatID = chatID
	}
}

// Run builds the Telegram client, messaging service, record store and
// conversation engine, registers command metadata, and runs the receive loop
// until an interrupt or termination signal arrives. On shutdown it stops
// accepting new events; the in-flight handler completes its transition.
func Run(telegramOpts []telegram.Option, storeOpts []store.Option, opts ...Option) error {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := telegram.NewClient(telegramOpts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	recordStore, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}
	defer recordStore.Close()

	service := messaging.NewTelegramService(client)
	ledger := messaging.NewLedger(service, cfg.ChatID)
	engine := flow.NewEngine(service, ledger, recordStore)

	if err := service.RegisterCommands(ctx, DefaultCommands); err != nil {
		// Command metadata is cosmetic; the conversation works without it.
		slog.Warn("Failed to register bot commands", "error", err)
	} else {
		slog.Info("Bot commands registered", "count", len(DefaultCommands))
	}

	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}

	slog.Info("TaskBot receive loop running", "chat_id", cfg.ChatID)
	runLoop(ctx, engine, service)

	if err := service.Stop(); err != nil {
		slog.Warn("Messaging service stop failed", "error", err)
	}
	slog.Info("TaskBot shut down")
	return nil
}

// runLoop dispatches inbound events to the engine until the context is
// cancelled or the event channel closes. Single-event failures are logged and
// never stop the loop.
func runLoop(ctx context.Context, engine *flow.Engine, service messaging.Service) {
	for {
		select {
		case ev, ok := <-service.Events():
			if !ok {
				slog.Debug("Event channel closed, stopping receive loop")
				return
			}
			if err := engine.HandleEvent(ctx, ev); err != nil {
				slog.Error("Failed to handle inbound event", "error", err, "kind", ev.Kind, "user_id", ev.UserID)
			}

		case <-ctx.Done():
			slog.Info("Shutdown signal received, stopping receive loop")
			return
		}
	}
}

// buildStore selects the record store backend from the configured DSN:
// Postgres connection strings get the Postgres store, anything else falls
// back to SQLite. Without a DSN an in-memory store is used.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}

	if cfg.DSN == "" {
		slog.Warn("No database DSN configured, using in-memory record store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Info("Using Postgres record store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Info("Using SQLite record store", "path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}

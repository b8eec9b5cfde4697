package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldops/taskbot/internal/models"
	"github.com/fieldops/taskbot/internal/telegram"
)

func TestTelegramServiceSendPrompt(t *testing.T) {
	mock := telegram.NewMockClient()
	service := NewTelegramService(mock)
	ctx := context.Background()

	keyboard := models.Keyboard{{{Label: "Yes", Token: "yes"}}}
	messageID, err := service.SendPrompt(ctx, 1000, "Choose:", keyboard)
	if err != nil {
		t.Fatalf("SendPrompt failed: %v", err)
	}
	if messageID == 0 {
		t.Errorf("SendPrompt should return the assigned message id")
	}
	if len(mock.Sent) != 1 {
		t.Fatalf("Expected 1 sent message, got %d", len(mock.Sent))
	}
	sent := mock.Sent[0]
	if sent.ChatID != 1000 || sent.Text != "Choose:" {
		t.Errorf("Unexpected sent message: %+v", sent)
	}
	if len(sent.Keyboard) != 1 || sent.Keyboard[0][0].Token != "yes" {
		t.Errorf("Keyboard should be passed through, got %v", sent.Keyboard)
	}
}

func TestTelegramServiceSendPromptError(t *testing.T) {
	mock := telegram.NewMockClient()
	mock.SendErr = errors.New("network down")
	service := NewTelegramService(mock)

	if _, err := service.SendPrompt(context.Background(), 1000, "Choose:", nil); err == nil {
		t.Errorf("SendPrompt should surface transport errors")
	}
}

func TestTelegramServiceDeleteMessage(t *testing.T) {
	mock := telegram.NewMockClient()
	service := NewTelegramService(mock)

	if err := service.DeleteMessage(context.Background(), 1000, 42); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if len(mock.Deleted) != 1 || mock.Deleted[0] != 42 {
		t.Errorf("Expected message 42 deleted, got %v", mock.Deleted)
	}
}

func TestTelegramServiceRegisterCommands(t *testing.T) {
	mock := telegram.NewMockClient()
	service := NewTelegramService(mock)

	commands := []models.Command{
		{Name: "new", Description: "Create a completed-work record"},
		{Name: "clear", Description: "Reset the form"},
	}
	if err := service.RegisterCommands(context.Background(), commands); err != nil {
		t.Fatalf("RegisterCommands failed: %v", err)
	}
	if len(mock.Commands) != 2 || mock.Commands[0].Name != "new" {
		t.Errorf("Commands should be registered with the client, got %v", mock.Commands)
	}
}

func TestTelegramServiceStartStopWithMock(t *testing.T) {
	service := NewTelegramService(telegram.NewMockClient())

	// A mock client has no update channel; Start and Stop are still safe.
	if err := service.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := service.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// The event channel is closed after Stop.
	if _, ok := <-service.Events(); ok {
		t.Errorf("Events channel should be closed after Stop")
	}
}

func TestTelegramServiceForwardDropsWhenBlocked(t *testing.T) {
	service := &TelegramService{
		client: telegram.NewMockClient(),
		events: make(chan models.Event), // unbuffered and never read
		done:   make(chan struct{}),
	}

	// Must return after the forward timeout instead of blocking forever.
	service.forward(models.Event{Kind: models.EventKindText, UserID: 1})
}

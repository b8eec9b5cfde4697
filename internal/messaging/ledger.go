package messaging

import (
	"context"
	"log/slog"
	"sync"
)

// Ledger tracks the message ids currently "live" in one chat per user so they
// can be deleted when the conversation advances. Inline-button conversations
// otherwise leave a growing trail of stale prompts and old answers; the
// ledger keeps the chat down to the current prompt and (temporarily) the
// final summary.
type Ledger struct {
	transport Deleter
	chatID    int64

	// mu protects live and ignored.
	mu   sync.Mutex
	live map[int64][]int
	// ignored holds chat-wide message ids excluded from Remember. An entry
	// is removed once its message is actually deleted by CleanupIgnored.
	ignored map[int]struct{}
}

// NewLedger creates a message ledger scoped to one chat.
func NewLedger(transport Deleter, chatID int64) *Ledger {
	slog.Debug("Creating message ledger", "chat_id", chatID)
	return &Ledger{
		transport: transport,
		chatID:    chatID,
		live:      make(map[int64][]int),
		ignored:   make(map[int]struct{}),
	}
}

// Remember adds a message id to the user's live set unless the id has been
// marked ignored.
func (l *Ledger) Remember(userID int64, messageID int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, skip := l.ignored[messageID]; skip {
		slog.Debug("Ledger skipping ignored message id", "user_id", userID, "message_id", messageID)
		return
	}
	l.live[userID] = append(l.live[userID], messageID)
	slog.Debug("Ledger remembered message", "user_id", userID, "message_id", messageID, "live_count", len(l.live[userID]))
}

// MarkIgnored excludes a message id from future Remember calls. Used for the
// final confirmation message that must outlive the next prune.
func (l *Ledger) MarkIgnored(messageID int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ignored[messageID] = struct{}{}
	slog.Debug("Ledger marked message ignored", "message_id", messageID)
}

// Prune deletes every message id in the user's live set via the transport and
// clears the set. Individual delete failures are logged and skipped; a
// message already removed by the platform or the user must not block cleanup
// of the rest. After Prune returns the user's live set is empty.
func (l *Ledger) Prune(ctx context.Context, userID int64) {
	l.mu.Lock()
	pending := l.live[userID]
	delete(l.live, userID)
	l.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	for _, messageID := range pending {
		if err := l.transport.DeleteMessage(ctx, l.chatID, messageID); err != nil {
			slog.Warn("Ledger prune delete failed, skipping", "error", err, "user_id", userID, "message_id", messageID)
		}
	}
	slog.Debug("Ledger pruned messages", "user_id", userID, "count", len(pending))
}

// CleanupIgnored deletes a previously ignored message and, on success, drops
// it from the ignored set. Best effort: a failure leaves the entry in place
// so the id stays excluded while the message still exists.
func (l *Ledger) CleanupIgnored(ctx context.Context, messageID int) {
	if err := l.transport.DeleteMessage(ctx, l.chatID, messageID); err != nil {
		slog.Warn("Ledger ignored-message cleanup failed", "error", err, "message_id", messageID)
		return
	}

	l.mu.Lock()
	delete(l.ignored, messageID)
	l.mu.Unlock()
	slog.Debug("Ledger cleaned up ignored message", "message_id", messageID)
}

// LiveCount returns the number of live message ids tracked for a user.
func (l *Ledger) LiveCount(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live[userID])
}

// IsIgnored reports whether a message id is currently in the ignored set.
func (l *Ledger) IsIgnored(messageID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ignored[messageID]
	return ok
}

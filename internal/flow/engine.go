package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/taskbot/internal/messaging"
	"github.com/fieldops/taskbot/internal/models"
	"github.com/fieldops/taskbot/internal/store"
)

// DefaultCleanupDelay is how long the final summary stays in the chat after a
// completed conversation before the delayed cleanup removes it.
const DefaultCleanupDelay = 5 * time.Second

// Prompt texts, prefixed with an @username mention when one is known.
const (
	promptDate           = "Choose a date:"
	promptTaskType       = "Choose a work type:"
	promptDescription    = "Describe the completed work:"
	promptLocation       = "Choose a work location:"
	promptCustomLocation = "Enter the work location:"
	promptPerformers     = "Choose the performers:"

	msgSaved    = "✅ Record saved."
	msgNotSaved = "⚠️ The record was not saved. Please try again."
)

// Engine is the conversation state machine. It consumes inbound events, looks
// up the draft for the sending user, advances its step, sends the next prompt
// through the messaging service and prunes obsolete messages via the ledger.
//
// HandleInboundText and HandleInboundSelection are safe to invoke
// concurrently; events for the same user are serialized by a per-user lock so
// two events never interleave their read-modify-write of that user's draft or
// ledger entries. Events for different users proceed in parallel.
type Engine struct {
	messenger    messaging.Service
	ledger       *messaging.Ledger
	recordStore  store.Store
	drafts       *DraftStore
	menus        *Menus
	timer        Timer
	cleanupDelay time.Duration

	// userLocks maps user id to its *sync.Mutex.
	userLocks sync.Map
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCleanupDelay overrides the delay before the final summary is removed.
func WithCleanupDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		e.cleanupDelay = delay
	}
}

// WithMenus overrides the menu provider.
func WithMenus(menus *Menus) EngineOption {
	return func(e *Engine) {
		e.menus = menus
	}
}

// WithTimer overrides the delayed-cleanup timer.
func WithTimer(timer Timer) EngineOption {
	return func(e *Engine) {
		e.timer = timer
	}
}

// NewEngine creates a conversation engine wired to the given messaging
// service, message ledger and record store.
func NewEngine(messenger messaging.Service, ledger *messaging.Ledger, recordStore store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		messenger:    messenger,
		ledger:       ledger,
		recordStore:  recordStore,
		menus:        NewMenus(),
		timer:        NewSimpleTimer(),
		cleanupDelay: DefaultCleanupDelay,
		drafts:       NewDraftStore(),
	}
	for _, opt := range opts {
		opt(e)
	}
	slog.Debug("Conversation engine created", "cleanup_delay", e.cleanupDelay)
	return e
}

// Drafts exposes the engine's draft table for inspection.
func (e *Engine) Drafts() *DraftStore {
	return e.drafts
}

// HandleEvent routes an inbound event to the text or selection handler.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) error {
	switch ev.Kind {
	case models.EventKindText:
		return e.HandleInboundText(ctx, ev)
	case models.EventKindSelection:
		return e.HandleInboundSelection(ctx, ev)
	default:
		slog.Debug("Engine ignoring event with unknown kind", "kind", ev.Kind, "user_id", ev.UserID)
		return nil
	}
}

// HandleInboundText processes a free-text message from a user.
func (e *Engine) HandleInboundText(ctx context.Context, ev models.Event) error {
	unlock := e.lockUser(ev.UserID)
	defer unlock()

	slog.Debug("Engine handling inbound text", "user_id", ev.UserID, "body_length", len(ev.Text))

	switch ev.Text {
	case models.CommandNew:
		e.drafts.Reset(ev.UserID)
		if err := e.prompt(ctx, ev, promptDate, e.menus.LayoutFor(QuestionDate)); err != nil {
			return err
		}
		slog.Info("Engine started new conversation", "user_id", ev.UserID)
		return nil

	case models.CommandClear:
		e.drafts.Reset(ev.UserID)
		// Silent reset; the command message itself is pruned on the next transition.
		e.ledger.Remember(ev.UserID, ev.MessageID)
		slog.Info("Engine cleared draft", "user_id", ev.UserID)
		return nil
	}

	draft := e.drafts.GetOrCreate(ev.UserID)

	switch draft.Step {
	case models.StepTypeChosen:
		// Free text at this step is the work description.
		if len(ev.Text) == 0 || len(ev.Text) > models.MaxDescriptionLength {
			slog.Debug("Engine ignoring invalid description", "user_id", ev.UserID, "body_length", len(ev.Text))
			return nil
		}
		if err := e.prompt(ctx, ev, promptLocation, e.menus.LayoutFor(QuestionLocation)); err != nil {
			return err
		}
		draft.Description = ev.Text
		e.advance(draft, models.StepDescriptionEntered)
		return nil

	case models.StepDescriptionEntered:
		// Free text here is only meaningful after the "other location" escape.
		if !draft.CustomLocation || ev.Text == "" {
			slog.Debug("Engine ignoring out-of-order text", "user_id", ev.UserID, "step", draft.Step)
			return nil
		}
		if err := e.prompt(ctx, ev, promptPerformers, e.menus.LayoutFor(QuestionPerformers)); err != nil {
			return err
		}
		draft.Location = ev.Text
		draft.CustomLocation = false
		e.advance(draft, models.StepLocationChosen)
		return nil

	default:
		// Out-of-order input is acknowledged as a no-op.
		slog.Debug("Engine ignoring out-of-order text", "user_id", ev.UserID, "step", draft.Step)
		return nil
	}
}

// HandleInboundSelection processes an inline button callback from a user.
func (e *Engine) HandleInboundSelection(ctx context.Context, ev models.Event) error {
	unlock := e.lockUser(ev.UserID)
	defer unlock()

	draft := e.drafts.GetOrCreate(ev.UserID)
	slog.Debug("Engine handling inbound selection", "user_id", ev.UserID, "step", draft.Step, "token", ev.Token)

	switch draft.Step {
	case models.StepStart:
		// Only a token from the date menu advances the conversation; stray
		// callbacks from stale keyboards are ignored.
		if _, err := models.ParseDateToken(ev.Token); err != nil {
			slog.Debug("Engine ignoring non-date selection at start", "user_id", ev.UserID, "token", ev.Token)
			return nil
		}
		if err := e.prompt(ctx, ev, promptTaskType, e.menus.LayoutFor(QuestionTaskType)); err != nil {
			return err
		}
		draft.Date = ev.Token
		e.advance(draft, models.StepDateChosen)
		return nil

	case models.StepDateChosen:
		if err := e.prompt(ctx, ev, promptDescription, nil); err != nil {
			return err
		}
		draft.TaskType = ev.Token
		e.advance(draft, models.StepTypeChosen)
		return nil

	case models.StepDescriptionEntered:
		if ev.Token == models.TokenOtherLocation {
			if err := e.prompt(ctx, ev, promptCustomLocation, nil); err != nil {
				return err
			}
			draft.CustomLocation = true
			draft.UpdatedAt = time.Now()
			return nil
		}
		if err := e.prompt(ctx, ev, promptPerformers, e.menus.LayoutFor(QuestionPerformers)); err != nil {
			return err
		}
		draft.Location = ev.Token
		e.advance(draft, models.StepLocationChosen)
		return nil

	case models.StepLocationChosen, models.StepCollectingPerformers:
		if ev.Token == models.TokenDone {
			if draft.Step != models.StepCollectingPerformers {
				// Nothing picked yet; finishing an empty performer list is a no-op.
				slog.Debug("Engine ignoring done with no performers", "user_id", ev.UserID)
				return nil
			}
			return e.finalize(ctx, ev, draft)
		}
		// Echo the running list including the new pick, then re-send the menu.
		echo := e.mention(ev) + draft.Summary() + "\n" + ev.Token
		if err := e.promptWithEcho(ctx, ev, echo, promptPerformers, e.menus.LayoutFor(QuestionPerformers)); err != nil {
			return err
		}
		draft.Performers = append(draft.Performers, ev.Token)
		e.advance(draft, models.StepCollectingPerformers)
		return nil

	default:
		slog.Debug("Engine ignoring out-of-order selection", "user_id", ev.UserID, "step", draft.Step, "token", ev.Token)
		return nil
	}
}

// finalize builds the immutable record, reports the summary, persists the
// record, reports the outcome and schedules the delayed transcript cleanup.
func (e *Engine) finalize(ctx context.Context, ev models.Event, draft *models.TaskDraft) error {
	date, err := models.ParseDateToken(draft.Date)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	task := models.Task{
		ID:          uuid.NewString(),
		Date:        date,
		Type:        draft.TaskType,
		Description: draft.Description,
		Location:    draft.Location,
		Performers:  strings.Join(draft.Performers, models.PerformersDelimiter),
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	// Remove the last performer menu, then send the summary. A transport
	// failure here leaves the step unchanged so "done" can be retried.
	e.ledger.Prune(ctx, ev.UserID)
	summaryID, err := e.messenger.SendPrompt(ctx, ev.ChatID, e.mention(ev)+draft.Summary(), nil)
	if err != nil {
		return fmt.Errorf("failed to send summary: %w", err)
	}
	e.ledger.MarkIgnored(summaryID)

	// The conversation is complete from here on; a persistence failure is
	// reported but never rolls the step back.
	e.advance(draft, models.StepFinished)

	outcome := msgSaved
	rows, err := e.recordStore.AddTask(task)
	if err != nil || rows == 0 {
		slog.Error("Engine record persist failed", "error", err, "rows", rows, "user_id", ev.UserID, "task_id", task.ID)
		outcome = msgNotSaved
	} else {
		slog.Info("Engine record persisted", "user_id", ev.UserID, "task_id", task.ID, "rows", rows)
	}

	outcomeID, sendErr := e.messenger.SendPrompt(ctx, ev.ChatID, outcome, nil)
	if sendErr != nil {
		slog.Error("Engine failed to send outcome message", "error", sendErr, "user_id", ev.UserID)
		return fmt.Errorf("failed to send outcome: %w", sendErr)
	}
	e.ledger.MarkIgnored(outcomeID)

	e.scheduleCleanup(ev.UserID, summaryID, outcomeID)
	return nil
}

// scheduleCleanup arranges a detached best-effort removal of the final
// summary and outcome messages plus one last prune for the user.
func (e *Engine) scheduleCleanup(userID int64, messageIDs ...int) {
	if _, err := e.timer.ScheduleAfter(e.cleanupDelay, func() {
		ctx := context.Background()
		for _, id := range messageIDs {
			e.ledger.CleanupIgnored(ctx, id)
		}
		e.ledger.Prune(ctx, userID)
	}); err != nil {
		slog.Warn("Engine failed to schedule final cleanup", "error", err, "user_id", userID)
	}
}

// prompt performs one transition's message lifecycle: prune previously
// tracked messages, send the next prompt, then register the new message
// id(s). The draft is not mutated here; callers apply changes only after a
// successful send so a transport failure can be retried.
func (e *Engine) prompt(ctx context.Context, ev models.Event, text string, keyboard models.Keyboard) error {
	e.ledger.Prune(ctx, ev.UserID)

	messageID, err := e.messenger.SendPrompt(ctx, ev.ChatID, e.mention(ev)+text, keyboard)
	if err != nil {
		return fmt.Errorf("failed to send prompt: %w", err)
	}

	// Selections arrive on an already-tracked prompt message; only typed
	// answers introduce a new inbound id worth pruning later.
	if ev.Kind == models.EventKindText {
		e.ledger.Remember(ev.UserID, ev.MessageID)
	}
	e.ledger.Remember(ev.UserID, messageID)
	return nil
}

// promptWithEcho sends an echo message followed by a prompt with a keyboard,
// registering both ids.
func (e *Engine) promptWithEcho(ctx context.Context, ev models.Event, echo, text string, keyboard models.Keyboard) error {
	e.ledger.Prune(ctx, ev.UserID)

	echoID, err := e.messenger.SendPrompt(ctx, ev.ChatID, echo, nil)
	if err != nil {
		return fmt.Errorf("failed to send echo: %w", err)
	}
	messageID, err := e.messenger.SendPrompt(ctx, ev.ChatID, e.mention(ev)+text, keyboard)
	if err != nil {
		// The echo is already tracked so the next prune removes it.
		e.ledger.Remember(ev.UserID, echoID)
		return fmt.Errorf("failed to send prompt: %w", err)
	}

	e.ledger.Remember(ev.UserID, echoID)
	e.ledger.Remember(ev.UserID, messageID)
	return nil
}

// advance moves the draft to the next step.
func (e *Engine) advance(draft *models.TaskDraft, step models.Step) {
	draft.Step = step
	draft.UpdatedAt = time.Now()
}

// mention returns the "@username " prefix for prompts, or empty when the
// username is unknown.
func (e *Engine) mention(ev models.Event) string {
	if ev.Username == "" {
		return ""
	}
	return "@" + ev.Username + " "
}

// lockUser acquires the per-user mutex and returns its release function.
func (e *Engine) lockUser(userID int64) func() {
	v, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

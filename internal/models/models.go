// Package models defines the core data structures for TaskBot.
//
// It includes the in-progress task draft, the finished task record, and the
// inbound event model shared across modules.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Step identifies how far a user's conversation has progressed.
// A draft's step only ever advances forward, or resets to StepStart via an
// explicit reset command.
type Step string

const (
	// StepStart is the initial step; the date menu has been offered (or nothing yet).
	StepStart Step = "start"
	// StepDateChosen means the date is stored and the task type menu was sent.
	StepDateChosen Step = "date_chosen"
	// StepTypeChosen means the task type is stored and a free-text description was requested.
	StepTypeChosen Step = "type_chosen"
	// StepDescriptionEntered means the description is stored and the location menu was sent.
	StepDescriptionEntered Step = "description_entered"
	// StepLocationChosen means the location is stored and the performer menu was sent.
	StepLocationChosen Step = "location_chosen"
	// StepCollectingPerformers means at least one performer pick was offered and more may follow.
	StepCollectingPerformers Step = "collecting_performers"
	// StepFinished means the record was handed to the store; the draft is kept for retry.
	StepFinished Step = "finished"
)

// EventKind distinguishes free-text messages from inline button callbacks.
type EventKind string

const (
	// EventKindText is a plain text message typed by the user.
	EventKindText EventKind = "text"
	// EventKindSelection is an inline keyboard button press carrying a callback token.
	EventKindSelection EventKind = "selection"
)

// Reserved callback tokens. Menu content must never emit these as ordinary
// date, location or performer values.
const (
	// TokenOtherLocation is the sentinel emitted by the "other location" escape button.
	TokenOtherLocation = "other"
	// TokenDone is the sentinel emitted by the performer list terminator button.
	TokenDone = "done"
)

// Recognized text commands.
const (
	// CommandNew resets the draft and begins a new record conversation.
	CommandNew = "/new"
	// CommandClear resets the draft silently.
	CommandClear = "/clear"
)

// DateTokenLayout is the time layout used for date menu tokens and for
// parsing the chosen date token into the persisted record timestamp.
const DateTokenLayout = "02.01.2006"

// PerformersDelimiter joins the ordered performer list into the single
// delimited string stored on a finished record.
const PerformersDelimiter = ", "

// MaxDescriptionLength defines the maximum accepted length for the free-text
// description answer.
const MaxDescriptionLength = 4096

// Validation error variables for finished records.
var (
	ErrEmptyTaskID      = errors.New("task id cannot be empty")
	ErrZeroTaskDate     = errors.New("task date must be set")
	ErrEmptyTaskType    = errors.New("task type cannot be empty")
	ErrEmptyDescription = errors.New("task description cannot be empty")
	ErrEmptyLocation    = errors.New("task location cannot be empty")
	ErrNoPerformers     = errors.New("task performers cannot be empty")
)

// Event is a normalized inbound chat event delivered by the messaging transport.
// Exactly one of Text or Token is meaningful, selected by Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username,omitempty"`
	MessageID int       `json:"message_id"`
	Text      string    `json:"text,omitempty"`
	Token     string    `json:"token,omitempty"`
	Time      int64     `json:"time"`
}

// Button is one inline keyboard option: a visible label and the callback
// token delivered when the user taps it.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Keyboard is an ordered grid of inline buttons, row by row.
type Keyboard [][]Button

// Command describes bot command metadata registered with the platform.
type Command struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskDraft is the in-progress answer set for one user's conversation.
// It is exclusively owned by the conversation engine's per-user table.
type TaskDraft struct {
	Step        Step     `json:"step"`
	Date        string   `json:"date,omitempty"`
	TaskType    string   `json:"task_type,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Performers  []string `json:"performers,omitempty"`
	// CustomLocation is set while the engine is waiting for a free-text
	// location after the "other" escape was selected.
	CustomLocation bool      `json:"custom_location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTaskDraft creates an empty draft at the initial step.
func NewTaskDraft() *TaskDraft {
	now := time.Now()
	return &TaskDraft{
		Step:      StepStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Summary renders the draft's collected answers one per line, in the order
// they were gathered. Used for the running-list echo while collecting
// performers and for the final confirmation message.
func (d *TaskDraft) Summary() string {
	lines := []string{d.Date, d.TaskType, d.Description, d.Location}
	lines = append(lines, d.Performers...)
	return strings.Join(lines, "\n")
}

// Task is an immutable snapshot of a completed conversation, handed to the
// record store exactly once.
type Task struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Performers  string    `json:"performers"`
}

// Validate checks that a finished record carries every required field.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}
	if t.Date.IsZero() {
		return ErrZeroTaskDate
	}
	if t.Type == "" {
		return ErrEmptyTaskType
	}
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.Location == "" {
		return ErrEmptyLocation
	}
	if t.Performers == "" {
		return ErrNoPerformers
	}
	return nil
}

// ParseDateToken parses a date menu token into the record timestamp.
func ParseDateToken(token string) (time.Time, error) {
	ts, err := time.Parse(DateTokenLayout, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date token %q: %w", token, err)
	}
	return ts, nil
}

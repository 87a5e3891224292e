package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// GreetingText opens every conversation.
const GreetingText = "Hello! I'm your AI Scrum Master. I can help you manage tasks, analyze sprint progress, " +
	"identify blockers, and provide project insights. Try commands like:\n\n" +
	"• 'Update task [name] to [status]'\n" +
	"• 'Show sprint progress'\n" +
	"• 'What are the blockers?'\n" +
	"• 'Create a task for [description]'"

// QuickAction is a canned prompt offered as a one-key shortcut.
type QuickAction struct {
	Label  string
	Prompt string
}

// QuickActions are submitted through the same path as typed messages.
var QuickActions = []QuickAction{
	{Label: "Sprint progress", Prompt: "Show sprint progress"},
	{Label: "Blockers", Prompt: "What are the blockers?"},
	{Label: "Team", Prompt: "Show team performance"},
	{Label: "Recommendations", Prompt: "Any recommendations?"},
	{Label: "Mark blocker", Prompt: "Mark a blocker"},
}

// Respond classifies raw and synthesizes the reply against snap. It is a
// pure function of its inputs.
func Respond(raw string, snap Snapshot) (Intent, Reply, error) {
	intent, err := Classify(raw)
	if err != nil {
		return nil, Reply{}, err
	}
	return intent, Synthesize(intent, snap), nil
}

// Turn is the outcome of one user message.
type Turn struct {
	User         models.ChatMessage
	Assistant    models.ChatMessage
	Intent       Intent
	Confirmation *Confirmation
	// ActionErr is set when the reply carried an action that failed to apply.
	// The assistant message is still appended.
	ActionErr error
}

// Conversation holds the ordered message log of one chat session. Turns are
// processed one at a time; concurrent callers queue behind each other.
type Conversation struct {
	source   SnapshotSource
	executor ActionExecutor
	events   EventLogger
	logger   *slog.Logger

	now   func() time.Time
	newID func() string

	turnMu sync.Mutex

	mu       sync.RWMutex
	messages []models.ChatMessage
}

// NewConversation starts a session whose log holds only the greeting.
// A nil executor leaves actions unapplied; events may be nil.
func NewConversation(source SnapshotSource, executor ActionExecutor, events EventLogger, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conversation{
		source:   source,
		executor: executor,
		events:   events,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	c.messages = []models.ChatMessage{c.greeting()}
	return c
}

func (c *Conversation) greeting() models.ChatMessage {
	return models.ChatMessage{
		ID:        c.newID(),
		Content:   GreetingText,
		Role:      models.RoleAssistant,
		Timestamp: c.now(),
	}
}

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears the log back to a fresh greeting.
func (c *Conversation) Reset() {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []models.ChatMessage{c.greeting()}
}

// Post validates raw and appends it to the log as a user message. It returns
// ErrEmptyInput without touching the log when raw is blank.
func (c *Conversation) Post(raw string) (models.ChatMessage, error) {
	if _, err := Normalize(raw); err != nil {
		return models.ChatMessage{}, err
	}
	msg := models.ChatMessage{
		ID:        c.newID(),
		Content:   raw,
		Role:      models.RoleUser,
		Timestamp: c.now(),
	}
	c.append(msg)
	return msg, nil
}

// Reply answers a user message previously returned by Post. The assistant
// message is appended before the action, if any, is executed.
func (c *Conversation) Reply(ctx context.Context, user models.ChatMessage) (*Turn, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	return c.reply(ctx, user)
}

// reply runs one turn. The caller holds turnMu.
func (c *Conversation) reply(ctx context.Context, user models.ChatMessage) (*Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := c.source.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("loading board snapshot: %w", err)
	}

	intent, reply, err := Respond(user.Content, snap)
	if err != nil {
		return nil, err
	}

	assistant := models.ChatMessage{
		ID:         c.newID(),
		Content:    reply.Response,
		Role:       models.RoleAssistant,
		Timestamp:  c.now(),
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
		Action:     reply.Action,
	}
	c.append(assistant)

	turn := &Turn{User: user, Assistant: assistant, Intent: intent}

	c.logger.Debug("assistant turn",
		"intent", intent.Kind(),
		"confidence", reply.Confidence,
		"has_action", reply.Action != nil,
	)
	c.logEvent(EventAssistantTurn, TurnEventData(intent, reply))

	if reply.Action != nil && c.executor != nil {
		conf, err := c.executor.Execute(*reply.Action)
		if err != nil {
			c.logger.Warn("action failed", "kind", reply.Action.Kind, "error", err)
			turn.ActionErr = err
		}
		turn.Confirmation = conf
	}

	return turn, nil
}

// Submit posts raw and answers it in one call. The user message and its
// reply are appended as one unit, so concurrent submissions never interleave.
func (c *Conversation) Submit(ctx context.Context, raw string) (*Turn, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	user, err := c.Post(raw)
	if err != nil {
		return nil, err
	}
	return c.reply(ctx, user)
}

func (c *Conversation) append(msg models.ChatMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// EventAssistantTurn is the event type logged for every answered message.
const EventAssistantTurn = "assistant.turn"

// TurnEventData is the payload logged with EventAssistantTurn.
func TurnEventData(intent Intent, reply Reply) map[string]any {
	return map[string]any{
		"intent":     string(intent.Kind()),
		"confidence": reply.Confidence,
		"has_action": reply.Action != nil,
	}
}

func (c *Conversation) logEvent(eventType string, data map[string]any) {
	if c.events == nil {
		return
	}
	if err := c.events.LogEvent(eventType, data); err != nil {
		c.logger.Warn("failed to log event", "event", eventType, "error", err)
	}
}

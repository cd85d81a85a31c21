package chat

import "context"

// MentionHandlerFunc handles a message that mentioned the bot. It may
// thread state through by returning a new *Chat; returning the same
// *Chat unchanged (or wrapping with Stateless) is equally valid — the
// dispatcher always re-reads the returned Chat as the chat for the next
// handler (spec.md §4.4's "handler return handling").
type MentionHandlerFunc func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error)

// MessageHandlerFunc handles a message routed by regex match.
type MessageHandlerFunc func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error)

// SubscribedHandlerFunc handles a message on a subscribed thread.
type SubscribedHandlerFunc func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error)

// EventHandlerFunc handles any non-message event class (reaction, action,
// modal submit/close, slash command, assistant thread/context events).
type EventHandlerFunc func(ctx context.Context, c *Chat, env EventEnvelope) (*Chat, error)

// messageHandlerEntry pairs a compiled regex with its handler. Regexes are
// compiled once, at registration time (spec.md §9 — "recompiling on every
// dispatch is forbidden").
type messageHandlerEntry struct {
	pattern *compiledPattern
	fn      MessageHandlerFunc
}

// HandlerTable holds the ordered, per-class handler lists. Registration
// always appends, so list order is dispatch order (spec.md §4.8, §8
// invariant 4).
type HandlerTable struct {
	Mention                 []MentionHandlerFunc
	Message                 []messageHandlerEntry
	Subscribed              []SubscribedHandlerFunc
	Reaction                []EventHandlerFunc
	Action                  []EventHandlerFunc
	ModalSubmit             []EventHandlerFunc
	ModalClose              []EventHandlerFunc
	SlashCommand            []EventHandlerFunc
	AssistantThreadStarted  []EventHandlerFunc
	AssistantContextChanged []EventHandlerFunc
}

func (h HandlerTable) clone() HandlerTable {
	return HandlerTable{
		Mention:                 append([]MentionHandlerFunc(nil), h.Mention...),
		Message:                 append([]messageHandlerEntry(nil), h.Message...),
		Subscribed:              append([]SubscribedHandlerFunc(nil), h.Subscribed...),
		Reaction:                append([]EventHandlerFunc(nil), h.Reaction...),
		Action:                  append([]EventHandlerFunc(nil), h.Action...),
		ModalSubmit:             append([]EventHandlerFunc(nil), h.ModalSubmit...),
		ModalClose:              append([]EventHandlerFunc(nil), h.ModalClose...),
		SlashCommand:            append([]EventHandlerFunc(nil), h.SlashCommand...),
		AssistantThreadStarted:  append([]EventHandlerFunc(nil), h.AssistantThreadStarted...),
		AssistantContextChanged: append([]EventHandlerFunc(nil), h.AssistantContextChanged...),
	}
}

// Counts reports the number of registered handlers per class, used by
// serialization (spec.md §4.8 — handlers are not serialized, only counts).
func (h HandlerTable) Counts() map[string]int {
	return map[string]int{
		"mention":                   len(h.Mention),
		"message":                   len(h.Message),
		"subscribed":                len(h.Subscribed),
		"reaction":                  len(h.Reaction),
		"action":                    len(h.Action),
		"modal_submit":              len(h.ModalSubmit),
		"modal_close":               len(h.ModalClose),
		"slash_command":             len(h.SlashCommand),
		"assistant_thread_started":  len(h.AssistantThreadStarted),
		"assistant_context_changed": len(h.AssistantContextChanged),
	}
}

// StatelessMention adapts a handler that ignores Chat state into a
// MentionHandlerFunc — the small overloaded-registration shape spec.md §9
// recommends in place of runtime arity introspection.
func StatelessMention(fn func(ctx context.Context, t Thread, in Incoming) error) MentionHandlerFunc {
	return func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error) {
		return c, fn(ctx, t, in)
	}
}

// StatelessMessage is StatelessMention's counterpart for message-regex
// handlers.
func StatelessMessage(fn func(ctx context.Context, t Thread, in Incoming) error) MessageHandlerFunc {
	return func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error) {
		return c, fn(ctx, t, in)
	}
}

// StatelessSubscribed is StatelessMention's counterpart for subscribed-
// thread handlers.
func StatelessSubscribed(fn func(ctx context.Context, t Thread, in Incoming) error) SubscribedHandlerFunc {
	return func(ctx context.Context, c *Chat, t Thread, in Incoming) (*Chat, error) {
		return c, fn(ctx, t, in)
	}
}

// StatelessEvent is StatelessMention's counterpart for the non-message
// event classes.
func StatelessEvent(fn func(ctx context.Context, env EventEnvelope) error) EventHandlerFunc {
	return func(ctx context.Context, c *Chat, env EventEnvelope) (*Chat, error) {
		return c, fn(ctx, env)
	}
}

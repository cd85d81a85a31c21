package chat

import "strings"

// EventType enumerates the event classes an EventEnvelope can carry.
type EventType string

const (
	EventMessage                 EventType = "message"
	EventReaction                EventType = "reaction"
	EventAction                  EventType = "action"
	EventModalSubmit             EventType = "modal_submit"
	EventModalClose              EventType = "modal_close"
	EventSlashCommand            EventType = "slash_command"
	EventAssistantThreadStarted  EventType = "assistant_thread_started"
	EventAssistantContextChanged EventType = "assistant_context_changed"
)

// ReactionEvent is the payload variant for EventReaction.
type ReactionEvent struct {
	Emoji             string
	ExternalUserID    string
	ExternalMessageID string
	ExternalRoomID    string
	ExternalThreadID  string
	Removed           bool
	Metadata          map[string]any
}

// ActionEvent is the payload variant for EventAction (e.g. a button
// click).
type ActionEvent struct {
	ActionID          string
	Value             string
	ExternalUserID    string
	ExternalRoomID    string
	ExternalThreadID  string
	ExternalMessageID string
	Metadata          map[string]any
}

// ModalSubmitEvent is the payload variant for EventModalSubmit.
type ModalSubmitEvent struct {
	CallbackID     string
	ExternalUserID string
	Values         map[string]any
	Metadata       map[string]any
}

// ModalCloseEvent is the payload variant for EventModalClose.
type ModalCloseEvent struct {
	CallbackID     string
	ExternalUserID string
	Metadata       map[string]any
}

// SlashCommandEvent is the payload variant for EventSlashCommand.
type SlashCommandEvent struct {
	Command          string
	Text             string
	ExternalUserID   string
	ExternalRoomID   string
	ExternalThreadID string
	Metadata         map[string]any
}

// AssistantThreadStartedEvent is the payload variant for
// EventAssistantThreadStarted.
type AssistantThreadStartedEvent struct {
	ExternalThreadID string
	ExternalUserID   string
	Metadata         map[string]any
}

// AssistantContextChangedEvent is the payload variant for
// EventAssistantContextChanged.
type AssistantContextChangedEvent struct {
	ExternalThreadID string
	Context          map[string]any
	Metadata         map[string]any
}

// EventEnvelope is the tagged-union event carrier the router dispatches
// on. Exactly one of the Payload* fields is populated, selected by Type.
type EventEnvelope struct {
	ID          string
	AdapterName string
	Type        EventType
	ThreadID    string
	ChannelID   string
	MessageID   string

	PayloadMessage                 *Incoming
	PayloadReaction                *ReactionEvent
	PayloadAction                  *ActionEvent
	PayloadModalSubmit             *ModalSubmitEvent
	PayloadModalClose              *ModalCloseEvent
	PayloadSlashCommand            *SlashCommandEvent
	PayloadAssistantThreadStarted  *AssistantThreadStartedEvent
	PayloadAssistantContextChanged *AssistantContextChangedEvent

	Raw      map[string]any
	Metadata map[string]any
}

// InferEventType infers an EventType from a raw payload's shape when the
// caller did not supply one explicitly (spec.md §4.3): presence of
// "emoji" → reaction, "action_id" → action, "callback_id" → modal_submit,
// "command" → slash_command, otherwise → message.
func InferEventType(payload map[string]any) EventType {
	if payload == nil {
		return EventMessage
	}
	if _, ok := payload["emoji"]; ok {
		return EventReaction
	}
	if _, ok := payload["action_id"]; ok {
		return EventAction
	}
	if _, ok := payload["callback_id"]; ok {
		return EventModalSubmit
	}
	if _, ok := payload["command"]; ok {
		return EventSlashCommand
	}
	return EventMessage
}

// EnsureEnvelope coerces a value into an *EventEnvelope. A typed
// *EventEnvelope passes through; a map is enriched with adapterName (if
// its own is absent) and constructed via EnsureEnvelopeFromMap; anything
// else is an invalid-input error.
func EnsureEnvelope(value any, adapterName string) (*EventEnvelope, error) {
	switch v := value.(type) {
	case *EventEnvelope:
		if v.AdapterName == "" {
			v.AdapterName = adapterName
		}
		return v, nil
	case EventEnvelope:
		if v.AdapterName == "" {
			v.AdapterName = adapterName
		}
		return &v, nil
	case map[string]any:
		return EnsureEnvelopeFromMap(v, adapterName)
	default:
		return nil, newValidation("event_envelope", value, FieldError{
			Path: "", Message: "cannot be coerced to an event envelope",
		})
	}
}

// EnsureEnvelopeFromMap builds an *EventEnvelope from a raw map,
// inferring event_type when absent and defaulting thread_id to "unknown"
// for assistant events that carry none (spec.md §4.3).
func EnsureEnvelopeFromMap(raw map[string]any, adapterName string) (*EventEnvelope, error) {
	env := &EventEnvelope{
		ID:          newID(),
		AdapterName: adapterName,
		Raw:         raw,
	}
	if name, ok := raw["adapter_name"].(string); ok && name != "" {
		env.AdapterName = name
	}
	if t, ok := raw["event_type"].(string); ok && t != "" {
		env.Type = EventType(t)
	} else {
		env.Type = InferEventType(raw)
	}
	if v, ok := raw["thread_id"].(string); ok {
		env.ThreadID = v
	}
	if v, ok := raw["channel_id"].(string); ok {
		env.ChannelID = v
	}
	if v, ok := raw["message_id"].(string); ok {
		env.MessageID = v
	}
	if isAssistantEvent(env.Type) && strings.TrimSpace(env.ThreadID) == "" {
		env.ThreadID = "unknown"
	}
	return env, nil
}

func isAssistantEvent(t EventType) bool {
	return t == EventAssistantThreadStarted || t == EventAssistantContextChanged
}

// WithEnvelopePayload fills thread_id/channel_id/message_id from the
// routed payload when the envelope's own slots are still empty — it never
// overwrites a value that is already set (spec.md §4.3, §8 invariant 5).
func WithEnvelopePayload(env *EventEnvelope, threadID, channelID, messageID string) *EventEnvelope {
	if env == nil {
		return env
	}
	if env.ThreadID == "" && threadID != "" {
		env.ThreadID = threadID
	}
	if env.ChannelID == "" && channelID != "" {
		env.ChannelID = channelID
	}
	if env.MessageID == "" && messageID != "" {
		env.MessageID = messageID
	}
	return env
}

package chat

import "context"

// ErrUnsupportedEventType is returned by Route when an envelope carries an
// EventType the router does not recognize.
type ErrUnsupportedEventType struct {
	Type EventType
}

func (e *ErrUnsupportedEventType) Error() string {
	return "chat: unsupported event type: " + string(e.Type)
}

// RouteOutcome is the result of routing one EventEnvelope, handed to an
// adapter's FormatWebhookResponse (or the default mapper in webhook.go).
type RouteOutcome struct {
	Envelope *EventEnvelope
	NoOp     bool
	Err      error
}

// Route implements C5: given an envelope, it calls the matching C4 entry
// point and splices the routed payload's ids back into the envelope via
// WithEnvelopePayload (spec.md §4.5).
func Route(ctx context.Context, c *Chat, adapterName string, env *EventEnvelope) (*Chat, *EventEnvelope, error) {
	if env == nil {
		return c, nil, nil
	}
	if env.AdapterName == "" {
		env.AdapterName = adapterName
	}

	if env.Type == EventMessage {
		in := Incoming{}
		if env.PayloadMessage != nil {
			in = *env.PayloadMessage
		}
		if env.ThreadID != "" {
			in.ExternalThreadID = threadSuffix(env.ThreadID)
		}

		nextChat, routed, err := ProcessMessage(ctx, c, env.AdapterName, in)
		if err != nil {
			return nextChat, env, err
		}
		env.PayloadMessage = &routed
		threadID := ThreadIDFrom(env.AdapterName, routed)
		channelID := ChannelIDFrom(env.AdapterName, routed.ExternalRoomID)
		WithEnvelopePayload(env, threadID, channelID, routed.ExternalMessageID)
		return nextChat, env, nil
	}

	if !isKnownEventType(env.Type) {
		return c, env, &ErrUnsupportedEventType{Type: env.Type}
	}

	nextChat := DispatchEvent(ctx, c, *env)
	return nextChat, env, nil
}

func isKnownEventType(t EventType) bool {
	switch t {
	case EventMessage, EventReaction, EventAction, EventModalSubmit, EventModalClose,
		EventSlashCommand, EventAssistantThreadStarted, EventAssistantContextChanged:
		return true
	default:
		return false
	}
}

// threadSuffix extracts the trailing ":thread" segment (if any) from a
// canonical "adapter:room[:thread]" id, so an envelope's pre-populated
// ThreadID can seed Incoming.ExternalThreadID before routing.
func threadSuffix(threadID string) string {
	parts := splitN(threadID, ':', 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return ""
}

func splitN(s string, sep byte, n int) []string {
	out := make([]string, 0, n)
	start := 0
	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
